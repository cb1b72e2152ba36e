package formula

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

const (
	// PkgConfigPath is the pkg-config search path variable.
	PkgConfigPath = "PKG_CONFIG_PATH"
	// CMakePrefixPath is the CMake package discovery search path variable.
	CMakePrefixPath = "CMAKE_PREFIX_PATH"
)

// PackageInfo is the metadata a built package publishes to its consumers.
type PackageInfo struct {
	// HeaderOnly packages have no binary artifacts; their identity does not
	// depend on build settings.
	HeaderOnly  bool
	Prefix      string
	IncludeDirs []string
	LibDirs     []string
	Env         EnvInfo
}

// HeaderOnlyInfo describes a header-only package installed under prefix:
// headers in prefix/include, pkg-config files in prefix/lib/pkgconfig and
// prefix itself on the CMake search path.
func HeaderOnlyInfo(prefix string) PackageInfo {
	info := PackageInfo{
		HeaderOnly:  true,
		Prefix:      prefix,
		IncludeDirs: []string{filepath.Join(prefix, "include")},
	}
	info.Env.Append(PkgConfigPath, filepath.Join(prefix, "lib", "pkgconfig"))
	info.Env.Append(CMakePrefixPath, prefix)
	return info
}

// EnvInfo holds search-path variables. Values are only ever appended, so
// entries declared earlier keep precedence.
type EnvInfo struct {
	keys []string
	vars map[string][]string
}

// Append adds value to the end of the search path key. Duplicates are
// ignored.
func (e *EnvInfo) Append(key, value string) {
	if e.vars == nil {
		e.vars = map[string][]string{}
	}
	cur, ok := e.vars[key]
	if !ok {
		e.keys = append(e.keys, key)
	}
	if slices.Contains(cur, value) {
		return
	}
	e.vars[key] = append(cur, value)
}

// Merge appends every value of other after the values already held.
func (e *EnvInfo) Merge(other EnvInfo) {
	for _, k := range other.keys {
		for _, v := range other.vars[k] {
			e.Append(k, v)
		}
	}
}

// Keys returns the variable names in the order they were first appended.
func (e *EnvInfo) Keys() []string {
	return slices.Clone(e.keys)
}

// Values returns the entries of key in order.
func (e *EnvInfo) Values(key string) []string {
	return slices.Clone(e.vars[key])
}

// Value returns key joined with the platform list separator.
func (e *EnvInfo) Value(key string) string {
	return strings.Join(e.vars[key], string(os.PathListSeparator))
}

// Environ renders the variables on top of base ("KEY=VALUE" entries).
// Existing entries of base come first.
func (e *EnvInfo) Environ(base []string) []string {
	out := slices.Clone(base)
	for _, k := range e.keys {
		idx := slices.IndexFunc(out, func(kv string) bool {
			name, _, _ := strings.Cut(kv, "=")
			return name == k
		})
		if idx < 0 {
			out = append(out, k+"="+e.Value(k))
			continue
		}
		_, cur, _ := strings.Cut(out[idx], "=")
		parts := filepath.SplitList(cur)
		for _, v := range e.vars[k] {
			if !slices.Contains(parts, v) {
				parts = append(parts, v)
			}
		}
		out[idx] = k + "=" + strings.Join(parts, string(os.PathListSeparator))
	}
	return out
}

// Context carries what a build step needs from the packages built before it.
type Context struct {
	SourceDir string
	BuildDir  string

	packages map[module.Version]PackageInfo
}

// AddPackage records the published metadata of mod.
func (c *Context) AddPackage(mod module.Version, info PackageInfo) {
	if c.packages == nil {
		c.packages = map[module.Version]PackageInfo{}
	}
	c.packages[mod] = info
}

// Package returns the published metadata of mod.
func (c *Context) Package(mod module.Version) (PackageInfo, bool) {
	info, ok := c.packages[mod]
	return info, ok
}

// Overrides renders the variables as "KEY=VALUE" entries appended to the
// current values reported by getenv.
func (e *EnvInfo) Overrides(getenv func(string) string) []string {
	base := make([]string, 0, len(e.keys))
	for _, k := range e.keys {
		if cur := getenv(k); cur != "" {
			base = append(base, k+"="+cur)
		}
	}
	return e.Environ(base)
}
