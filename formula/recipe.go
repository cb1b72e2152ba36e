package formula

import (
	"maps"
	"slices"

	"github.com/goplus/hdrecipe/pkgs/mod/module"
	"github.com/goplus/hdrecipe/pkgs/mod/versions"
)

// Identity describes a package. It is resolved once when the recipe is
// loaded and is not modified afterwards.
type Identity struct {
	Name        string
	Version     versions.Version
	Description string
	Author      string
	License     string
	URL         string
	Homepage    string
	topics      []string
}

// NewIdentity returns an identity with the given topics.
func NewIdentity(name string, version versions.Version, topics ...string) Identity {
	return Identity{Name: name, Version: version, topics: slices.Clone(topics)}
}

// Topics returns a copy of the package topics.
func (id Identity) Topics() []string {
	return slices.Clone(id.topics)
}

// Ref returns the package reference, using "unknown" for an absent version.
func (id Identity) Ref() module.Version {
	return module.Version{ID: id.Name, Version: id.Version.OrElse("unknown")}
}

// Recipe is the packaging description of a header-only library together
// with its test harness.
type Recipe struct {
	Identity

	Matrix Matrix

	// BuildRequires are needed by every build of the package.
	BuildRequires []module.Requirement
	// TestRequires are only needed when the package is developed or tested.
	TestRequires []module.Requirement
	// Settings lists the build settings axes the test harness depends on.
	Settings []string
	// Tools maps a boolean option to the builder tool integrations it
	// activates. All tools of an option are activated together.
	Tools map[string][]string

	Exports      []string
	NoCopySource bool
}

// ToolsFor returns the tool integrations activated by opts, in option
// name order.
func (r *Recipe) ToolsFor(opts OptionSet) []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(r.Tools)) {
		if opts.Enabled(name) {
			out = append(out, r.Tools[name]...)
		}
	}
	return out
}

// Build settings axes.
const (
	AxisOS        = "os"
	AxisCompiler  = "compiler"
	AxisBuildType = "build_type"
	AxisArch      = "arch"
	AxisCppStd    = "cppstd"
)

// PlatformAxes are the axes that fork a binary package per platform.
var PlatformAxes = []string{AxisOS, AxisCompiler, AxisBuildType, AxisArch}

// KnownAxis reports whether name is a build settings axis.
func KnownAxis(name string) bool {
	return slices.Contains(PlatformAxes, name) || name == AxisCppStd
}
