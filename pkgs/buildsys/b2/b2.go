// Package b2 drives Boost.Build (b2) builds.
//
// Configure writes a project-config.jam into the build folder that
// activates tool integrations ("using asciidoctor ;") and sets project
// options; Build runs b2 from the source folder against that file.
package b2

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/pkgs/buildsys"
	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

// ProjectConfig is the file name Configure writes into the build folder.
const ProjectConfig = "project-config.jam"

// PropInstallPrefix is the property carrying the install prefix. It is
// passed to b2 as --prefix.
const PropInstallPrefix = "install_prefix"

var errNotConfigured = errors.New("b2: build before configure")

// B2 wraps a b2 configure/build cycle with chainable configuration.
type B2 struct {
	ctx        *formula.Context
	runner     buildsys.Runner
	sourceDir  string
	buildDir   string
	options    map[string]string
	properties map[string]string
	tools      []string
	targets    []string
	uses       formula.EnvInfo
	configured bool
}

var _ buildsys.Builder = (*B2)(nil)

// New creates a b2 driver. Folders default to the context's and are made
// absolute, since b2 runs from the source folder; a nil runner runs b2 on
// the host.
func New(ctx *formula.Context, runner buildsys.Runner) *B2 {
	if runner == nil {
		runner = buildsys.DefaultRunner
	}
	b := &B2{
		ctx:        ctx,
		runner:     runner,
		options:    map[string]string{},
		properties: map[string]string{},
	}
	if ctx != nil {
		b.sourceDir = buildsys.AbsDir(ctx.SourceDir)
		b.buildDir = buildsys.AbsDir(ctx.BuildDir)
	}
	if b.buildDir == "" {
		b.buildDir = buildsys.AbsDir(filepath.Join(b.sourceDir, "build"))
	}
	return b
}

func (b *B2) Source(dir string) {
	b.sourceDir = buildsys.AbsDir(dir)
}

func (b *B2) BuildFolder(dir string) {
	b.buildDir = buildsys.AbsDir(dir)
}

func (b *B2) Folders() (source, build string) {
	return b.sourceDir, b.buildDir
}

func (b *B2) Option(key, value string) {
	b.options[key] = value
}

func (b *B2) Property(key, value string) {
	if key == PropInstallPrefix {
		value = buildsys.AbsDir(value)
	}
	b.properties[key] = value
}

// Using activates tool once; repeated calls are ignored.
func (b *B2) Using(tool string) {
	if !slices.Contains(b.tools, tool) {
		b.tools = append(b.tools, tool)
	}
}

// Tools returns the activated tool integrations in activation order.
func (b *B2) Tools() []string {
	return slices.Clone(b.tools)
}

// Targets sets the targets to build. No targets builds the default ones.
func (b *B2) Targets(targets ...string) *B2 {
	b.targets = slices.Clone(targets)
	return b
}

// Use puts a package published in the context on the search paths of the
// build.
func (b *B2) Use(mod module.Version) {
	if b.ctx == nil {
		panic("b2: context is not set")
	}
	info, ok := b.ctx.Package(mod)
	if !ok {
		panic(fmt.Sprintf("b2: dep not found: %s", mod))
	}
	b.UsePackage(info)
}

// UsePackage puts the installed package described by info on the search
// paths of the build.
func (b *B2) UsePackage(info formula.PackageInfo) {
	b.uses.Merge(info.Env)
}

// Configure creates the build folder and writes the project config.
func (b *B2) Configure() error {
	if err := os.MkdirAll(b.buildDir, 0o755); err != nil {
		return err
	}
	cfg := filepath.Join(b.buildDir, ProjectConfig)
	if err := os.WriteFile(cfg, []byte(b.projectConfig()), 0o644); err != nil {
		return fmt.Errorf("b2: write %s: %w", ProjectConfig, err)
	}
	b.configured = true
	return nil
}

// Build runs b2 in the source folder.
func (b *B2) Build() error {
	if !b.configured {
		return errNotConfigured
	}
	return b.runner.Run(b.sourceDir, b.uses.Overrides(os.Getenv), "b2", b.args()...)
}

func (b *B2) projectConfig() string {
	var sb strings.Builder
	sb.WriteString("# generated by hdrecipe\n")
	for _, tool := range b.tools {
		fmt.Fprintf(&sb, "using %s ;\n", tool)
	}
	for _, k := range slices.Sorted(maps.Keys(b.options)) {
		fmt.Fprintf(&sb, "option.set %s : %s ;\n", k, jamQuote(b.options[k]))
	}
	return sb.String()
}

func (b *B2) args() []string {
	args := []string{
		"--build-dir=" + b.buildDir,
		"--project-config=" + filepath.Join(b.buildDir, ProjectConfig),
	}
	for _, k := range slices.Sorted(maps.Keys(b.properties)) {
		v := b.properties[k]
		if k == PropInstallPrefix {
			args = append(args, "--prefix="+v)
			continue
		}
		args = append(args, k+"="+v)
	}
	return append(args, b.targets...)
}

func jamQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n;\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
