package cmake

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/pkgs/buildsys"
	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	ctx       *formula.Context
	runner    buildsys.Runner
	SourceDir string
	buildDir  string
	buildType string
	Defines   map[string]defineValue
	uses      formula.EnvInfo
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a new CMake helper. The context supplies the folders and
// the packages Use can refer to; a nil runner runs cmake on the host.
// Folders are made absolute against the working directory.
func New(ctx *formula.Context, runner buildsys.Runner) *CMake {
	if runner == nil {
		runner = buildsys.DefaultRunner
	}
	c := &CMake{
		ctx:     ctx,
		runner:  runner,
		Defines: map[string]defineValue{},
	}
	if ctx != nil {
		c.SourceDir = buildsys.AbsDir(ctx.SourceDir)
		c.buildDir = buildsys.AbsDir(ctx.BuildDir)
	}
	if c.buildDir == "" {
		buildDir, err := os.MkdirTemp("", "hdrecipe-cmake-")
		if err != nil {
			buildDir = buildsys.AbsDir(filepath.Join(c.SourceDir, "build"))
		}
		c.buildDir = buildDir
	}
	return c
}

func (c *CMake) BuildDir(dir string) *CMake {
	c.buildDir = buildsys.AbsDir(dir)
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

// Use puts a package published in the context on the search paths of the
// build.
func (c *CMake) Use(mod module.Version) {
	if c.ctx == nil {
		panic("cmake: context is not set")
	}
	info, ok := c.ctx.Package(mod)
	if !ok {
		panic(fmt.Sprintf("cmake: dep not found: %s", mod))
	}
	c.UsePackage(info)
}

// UsePackage puts the package described by info on the search paths.
func (c *CMake) UsePackage(info formula.PackageInfo) {
	c.uses.Merge(info.Env)
	for _, dir := range info.IncludeDirs {
		c.uses.Append("CMAKE_INCLUDE_PATH", dir)
	}
	for _, dir := range info.LibDirs {
		c.uses.Append("CMAKE_LIBRARY_PATH", dir)
	}
}

func (c *CMake) Configure(args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.SourceDir, "-B", c.buildDir}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	return c.run(cmakeArgs)
}

func (c *CMake) Build(args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(cmdArgs)
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(c.Defines))
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

func (c *CMake) run(args []string) error {
	return c.runner.Run("", c.uses.Overrides(os.Getenv), "cmake", args...)
}
