package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/pkgs/buildsys"
	"github.com/goplus/hdrecipe/pkgs/buildsys/b2"
	"github.com/goplus/hdrecipe/pkgs/buildsys/cmake"
	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

// Build tools an invocation can run.
const (
	ToolB2    = "b2"
	ToolCMake = "cmake"
)

// ErrDuplicateFolder is returned for plans where two invocations share a
// build folder.
var ErrDuplicateFolder = errors.New("build folder used by more than one invocation")

// State is the progress of one invocation.
type State int

const (
	Idle State = iota
	Configuring
	Building
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Building:
		return "building"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Invocation is one configure/build cycle of a build tool, isolated in its
// own build folder.
type Invocation struct {
	Name         string
	Tool         string
	SourceFolder string
	BuildFolder  string
	Targets      []string
}

// PackagePlan builds and installs the package from sourceDir.
func PackagePlan(sourceDir, buildRoot string) []Invocation {
	return []Invocation{{
		Name:         "package",
		Tool:         ToolB2,
		SourceFolder: sourceDir,
		BuildFolder:  filepath.Join(buildRoot, "package"),
		Targets:      []string{"install"},
	}}
}

// TestPlan checks the installed package from the test harness in testDir:
// a plain b2 build, a b2 build finding the package through pkg-config and
// a CMake project finding it through its package config.
func TestPlan(testDir, buildRoot string) []Invocation {
	return []Invocation{
		{
			Name:         "base",
			Tool:         ToolB2,
			SourceFolder: testDir,
			BuildFolder:  filepath.Join(buildRoot, "base"),
		},
		{
			Name:         "pkgconfig",
			Tool:         ToolB2,
			SourceFolder: filepath.Join(testDir, "pkgconfig"),
			BuildFolder:  filepath.Join(buildRoot, "pkgconfig"),
		},
		{
			Name:         "cmake",
			Tool:         ToolCMake,
			SourceFolder: filepath.Join(testDir, "cmake"),
			BuildFolder:  filepath.Join(buildRoot, "cmake"),
		},
	}
}

// CheckFolders verifies that every invocation has a build folder of its own.
func CheckFolders(plan []Invocation) error {
	seen := make(map[string]string, len(plan))
	for _, inv := range plan {
		if inv.BuildFolder == "" {
			return fmt.Errorf("invocation %s: no build folder", inv.Name)
		}
		dir := buildsys.AbsDir(inv.BuildFolder)
		if other, ok := seen[dir]; ok {
			return fmt.Errorf("%w: %s and %s use %s", ErrDuplicateFolder, other, inv.Name, dir)
		}
		seen[dir] = inv.Name
	}
	return nil
}

// Driver runs the configure and build steps of one invocation.
type Driver interface {
	Configure() error
	Build() error
}

// Dependency is an installed package and the metadata it published.
type Dependency struct {
	Ref  module.Version
	Info formula.PackageInfo
}

// Env is what an invocation's driver is prepared with.
type Env struct {
	// Setup prepares b2 builders; nil leaves them as created.
	Setup buildsys.Setup
	// Uses are installed packages put on the search paths.
	Uses []Dependency
	// Settings are the resolved build settings; build_type selects the
	// CMake configuration.
	Settings map[string]string
}

// context registers the dependencies of env for a driver of inv.
func (env Env) context(inv Invocation) *formula.Context {
	ctx := &formula.Context{SourceDir: inv.SourceFolder, BuildDir: inv.BuildFolder}
	for _, dep := range env.Uses {
		ctx.AddPackage(dep.Ref, dep.Info)
	}
	return ctx
}

// DriverFactory creates the driver of an invocation.
type DriverFactory func(inv Invocation, env Env) (Driver, error)

// Invoker runs invocation plans.
type Invoker struct {
	runner  buildsys.Runner
	logger  *log.Logger
	drivers map[string]DriverFactory
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithRunner sets the runner the default drivers execute tools with.
func WithRunner(r buildsys.Runner) Option {
	return func(iv *Invoker) {
		iv.runner = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(iv *Invoker) {
		iv.logger = l
	}
}

// WithDriver replaces the driver factory of tool.
func WithDriver(tool string, f DriverFactory) Option {
	return func(iv *Invoker) {
		iv.drivers[tool] = f
	}
}

// NewInvoker returns an Invoker with b2 and CMake drivers.
func NewInvoker(opts ...Option) *Invoker {
	iv := &Invoker{
		runner:  buildsys.DefaultRunner,
		drivers: map[string]DriverFactory{},
	}
	iv.drivers[ToolB2] = iv.b2Driver
	iv.drivers[ToolCMake] = iv.cmakeDriver
	for _, opt := range opts {
		opt(iv)
	}
	if iv.logger == nil {
		iv.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "build"})
	}
	return iv
}

// Run executes plan strictly in order. The first invocation that fails
// stops the run: later invocations stay Idle and nothing is retried.
// Cancellation of ctx is honoured between invocations.
func (iv *Invoker) Run(ctx context.Context, plan []Invocation, env Env) (*Report, error) {
	if err := CheckFolders(plan); err != nil {
		return nil, err
	}
	rep := &Report{Results: make([]Result, len(plan))}
	for i, inv := range plan {
		rep.Results[i] = Result{Invocation: inv, State: Idle, History: []State{Idle}}
	}
	for i := range plan {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("build %s: %w", plan[i].Name, err)
		}
		if err := iv.invoke(&rep.Results[i], env); err != nil {
			iv.logger.Error("invocation failed", "invocation", plan[i].Name, "error", err)
			return rep, err
		}
	}
	return rep, nil
}

func (iv *Invoker) invoke(res *Result, env Env) error {
	inv := res.Invocation
	fail := func(step string, err error) error {
		res.Err = fmt.Errorf("%s %s: %w", step, inv.Name, err)
		res.setState(Failed)
		return res.Err
	}

	factory, ok := iv.drivers[inv.Tool]
	if !ok {
		return fail("configure", fmt.Errorf("unknown build tool %q", inv.Tool))
	}
	drv, err := factory(inv, env)
	if err != nil {
		return fail("configure", err)
	}

	res.setState(Configuring)
	iv.logger.Info("configuring", "invocation", inv.Name, "tool", inv.Tool, "folder", inv.BuildFolder)
	if err := drv.Configure(); err != nil {
		return fail("configure", err)
	}

	res.setState(Building)
	iv.logger.Info("building", "invocation", inv.Name)
	if err := drv.Build(); err != nil {
		return fail("build", err)
	}

	res.setState(Success)
	iv.logger.Debug("invocation done", "invocation", inv.Name)
	return nil
}

func (iv *Invoker) b2Driver(inv Invocation, env Env) (Driver, error) {
	b := b2.New(env.context(inv), iv.runner)
	b.Targets(inv.Targets...)
	for _, dep := range env.Uses {
		b.Use(dep.Ref)
	}
	var builder buildsys.Builder = b
	if env.Setup != nil {
		builder = env.Setup.Setup(builder)
	}
	// The setup may move the folders; keep them unique.
	if _, dir := builder.Folders(); dir != buildsys.AbsDir(inv.BuildFolder) {
		return nil, fmt.Errorf("setup moved build folder to %s", dir)
	}
	return builder, nil
}

type cmakeStep struct {
	bs buildsys.BuildSystem
}

func (d cmakeStep) Configure() error { return d.bs.Configure() }
func (d cmakeStep) Build() error     { return d.bs.Build() }

func (iv *Invoker) cmakeDriver(inv Invocation, env Env) (Driver, error) {
	c := cmake.New(env.context(inv), iv.runner)
	if bt := env.Settings[formula.AxisBuildType]; bt != "" {
		c.BuildType(bt)
	}
	var bs buildsys.BuildSystem = c
	for _, dep := range env.Uses {
		bs.Use(dep.Ref)
	}
	return cmakeStep{bs: bs}, nil
}

// Package builds and installs the package into prefix and returns the
// metadata it publishes. A relative prefix is taken from the working
// directory.
func (iv *Invoker) Package(ctx context.Context, sourceDir, buildRoot, prefix string, setup buildsys.Setup) (formula.PackageInfo, *Report, error) {
	rep, err := iv.Run(ctx, PackagePlan(sourceDir, buildRoot), Env{Setup: setup})
	if err != nil {
		return formula.PackageInfo{}, rep, err
	}
	return formula.HeaderOnlyInfo(buildsys.AbsDir(prefix)), rep, nil
}

// Test runs the test plan against the installed package dep. settings
// are the resolved build settings of the developer context.
func (iv *Invoker) Test(ctx context.Context, testDir, buildRoot string, dep Dependency, settings map[string]string) (*Report, error) {
	return iv.Run(ctx, TestPlan(testDir, buildRoot), Env{Uses: []Dependency{dep}, Settings: settings})
}

// Result is the outcome of one invocation.
type Result struct {
	Invocation Invocation
	State      State
	// History lists every state the invocation went through.
	History []State
	Err     error
}

func (r *Result) setState(s State) {
	r.State = s
	r.History = append(r.History, s)
}

// Report collects the results of a run in plan order.
type Report struct {
	Results []Result
}

// Err returns the error of the failed invocation, if any.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.State == Failed {
			return res.Err
		}
	}
	return nil
}

// Succeeded reports whether every invocation succeeded.
func (r *Report) Succeeded() bool {
	for _, res := range r.Results {
		if res.State != Success {
			return false
		}
	}
	return true
}
