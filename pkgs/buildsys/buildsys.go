package buildsys

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qiniu/x/gsh"

	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

// Builder is the driver of the package's own build system (b2). Folders,
// options and properties are settable before Configure.
type Builder interface {
	// Basic paths.
	Source(dir string)
	BuildFolder(dir string)
	Folders() (source, build string)

	// Option sets a project option, Property a build property such as
	// install_prefix.
	Option(key, value string)
	Property(key, value string)

	// Using activates an external tool integration.
	Using(tool string)

	// Lifecycle.
	Configure() error
	Build() error
}

// Setup is the capability a recipe offers to prepare a builder before it
// runs. It returns the builder it was given, or a replacement.
type Setup interface {
	Setup(b Builder) Builder
}

// SetupFunc adapts a function to Setup.
type SetupFunc func(b Builder) Builder

func (f SetupFunc) Setup(b Builder) Builder {
	return f(b)
}

// BuildSystem is a secondary build helper (CMake) used to check that an
// installed package can be consumed.
type BuildSystem interface {
	// Use puts a package published in the helper's context on its search
	// paths.
	Use(mod module.Version)

	Configure(args ...string) error
	Build(args ...string) error
}

// Runner runs an external build tool to completion.
type Runner interface {
	// Run executes name with args in dir. env entries ("KEY=VALUE")
	// override the inherited environment.
	Run(dir string, env []string, name string, args ...string) error
}

// NewRunner returns a Runner that executes commands through sys.
func NewRunner(sys gsh.OS) Runner {
	return &osRunner{sys: sys}
}

// DefaultRunner executes commands on the host system.
var DefaultRunner = NewRunner(gsh.Sys)

type osRunner struct {
	sys gsh.OS
}

func (r *osRunner) Run(dir string, env []string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(env) > 0 {
		cmd.Env = MergeEnv(r.sys.Environ(), env)
	}
	return r.sys.Run(cmd)
}

// MergeEnv overlays override on base. Both hold "KEY=VALUE" entries; the
// result is sorted by key.
func MergeEnv(base, override []string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, list := range [][]string{base, override} {
		for _, kv := range list {
			if k, v, ok := strings.Cut(kv, "="); ok {
				envMap[k] = v
			}
		}
	}
	out := make([]string, 0, len(envMap))
	for k, v := range envMap {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

// AbsDir returns dir made absolute against the working directory. Tools
// run from other directories, so folders handed to them must not be
// relative. An empty dir stays empty.
func AbsDir(dir string) string {
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
