// Package resolve computes the effective configuration of a recipe for
// one evaluation context.
//
// Resolve is a pure function of the recipe and the context: it performs no
// I/O and reads no environment, so its result can be cached by ID.
package resolve

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/pkgs/buildsys"
	"github.com/goplus/hdrecipe/pkgs/buildsys/b2"
	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

// ErrNoInstallPrefix is returned when tool integrations are active but
// there is no install prefix for their artifacts.
var ErrNoInstallPrefix = errors.New("install prefix required")

// Mode selects how the package is being evaluated.
type Mode int

const (
	// Consumer mode: the package is used as a header-only dependency.
	Consumer Mode = iota
	// Developer mode: the package is built and tested by its developers.
	Developer
)

func (m Mode) String() string {
	if m == Developer {
		return "developer"
	}
	return "consumer"
}

// Context is the evaluation context of a recipe.
type Context struct {
	Mode Mode
	// Options are the user's option choices; unset options take defaults.
	Options map[string]string
	// Settings are the host's values for the build settings axes.
	Settings map[string]string
	// InstallPrefix is where the package is installed.
	InstallPrefix string
}

// BuildSettings maps axes to optional values. An axis may be present with
// no value; axes that do not apply are absent altogether.
type BuildSettings struct {
	axes map[string]*string
}

// Has reports whether axis is part of the settings.
func (s BuildSettings) Has(axis string) bool {
	_, ok := s.axes[axis]
	return ok
}

// Get returns the value of axis. ok is false when the axis is absent or
// has no value.
func (s BuildSettings) Get(axis string) (value string, ok bool) {
	v := s.axes[axis]
	if v == nil {
		return "", false
	}
	return *v, true
}

// Axes returns the present axes in name order.
func (s BuildSettings) Axes() []string {
	return slices.Sorted(maps.Keys(s.axes))
}

// Values returns the axes that have a value.
func (s BuildSettings) Values() map[string]string {
	out := make(map[string]string, len(s.axes))
	for axis, v := range s.axes {
		if v != nil {
			out[axis] = *v
		}
	}
	return out
}

// Len returns the number of present axes.
func (s BuildSettings) Len() int {
	return len(s.axes)
}

// Resolution is the resolved configuration of a recipe. It implements
// buildsys.Setup to prepare builders accordingly.
type Resolution struct {
	Mode     Mode
	Settings BuildSettings
	Options  formula.OptionSet
	// BuildRequires lists every build-time package dependency.
	BuildRequires []module.Requirement
	// Tools are the builder tool integrations to activate.
	Tools []string
	// BuilderOptions and Properties are handed to the builder as is.
	BuilderOptions map[string]string
	Properties     map[string]string
}

var _ buildsys.Setup = (*Resolution)(nil)

// Resolve computes the configuration of r for ctx.
func Resolve(r *formula.Recipe, ctx Context) (*Resolution, error) {
	opts, err := r.Matrix.Resolve(ctx.Options)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", r.Name, err)
	}

	res := &Resolution{
		Mode:           ctx.Mode,
		Settings:       settingsFor(r, ctx),
		Options:        opts,
		BuildRequires:  slices.Clone(r.BuildRequires),
		Tools:          r.ToolsFor(opts),
		BuilderOptions: map[string]string{},
		Properties:     map[string]string{},
	}
	if ctx.Mode == Developer {
		res.BuildRequires = append(res.BuildRequires, r.TestRequires...)
	}
	for name := range r.Tools {
		if opts.Enabled(name) {
			res.BuilderOptions[name] = opts[name]
		}
	}
	if ctx.InstallPrefix != "" {
		res.Properties[b2.PropInstallPrefix] = ctx.InstallPrefix
	} else if len(res.Tools) > 0 {
		return nil, fmt.Errorf("resolve %s: tools %v: %w", r.Name, res.Tools, ErrNoInstallPrefix)
	}
	return res, nil
}

// settingsFor keeps every declared axis when developing. Consumers of a
// header-only package get none: its identity must not fork per platform.
func settingsFor(r *formula.Recipe, ctx Context) BuildSettings {
	s := BuildSettings{axes: map[string]*string{}}
	if ctx.Mode != Developer {
		return s
	}
	for _, axis := range r.Settings {
		if v, ok := ctx.Settings[axis]; ok {
			s.axes[axis] = &v
			continue
		}
		s.axes[axis] = nil
	}
	return s
}

// Setup applies the resolution to b: tool integrations, builder options
// and properties such as the install prefix.
func (res *Resolution) Setup(b buildsys.Builder) buildsys.Builder {
	for _, tool := range res.Tools {
		b.Using(tool)
	}
	for _, k := range slices.Sorted(maps.Keys(res.BuilderOptions)) {
		b.Option(k, res.BuilderOptions[k])
	}
	for _, k := range slices.Sorted(maps.Keys(res.Properties)) {
		b.Property(k, res.Properties[k])
	}
	return b
}

// ID identifies the binary package the resolution produces. It covers
// the settings and options only, so consumers on every platform share it.
func (res *Resolution) ID() string {
	h := sha1.New()
	for _, axis := range res.Settings.Axes() {
		v, _ := res.Settings.Get(axis)
		fmt.Fprintf(h, "s:%s=%s\n", axis, v)
	}
	for _, k := range slices.Sorted(maps.Keys(res.Options)) {
		fmt.Fprintf(h, "o:%s=%s\n", k, res.Options[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
