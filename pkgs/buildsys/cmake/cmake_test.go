package cmake

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

type call struct {
	env  []string
	args []string
}

type recordRunner struct {
	calls []call
}

func (r *recordRunner) Run(dir string, env []string, name string, args ...string) error {
	r.calls = append(r.calls, call{env: env, args: args})
	return nil
}

func TestUseSetsEnv(t *testing.T) {
	for _, key := range []string{
		formula.PkgConfigPath,
		formula.CMakePrefixPath,
		"CMAKE_INCLUDE_PATH",
		"CMAKE_LIBRARY_PATH",
	} {
		t.Setenv(key, "")
	}

	prefix := t.TempDir()
	mod := module.Version{ID: "enum-flags", Version: "1.0.0"}
	ctx := &formula.Context{BuildDir: t.TempDir()}
	ctx.AddPackage(mod, formula.HeaderOnlyInfo(prefix))

	r := &recordRunner{}
	c := New(ctx, r)
	c.Use(mod)
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	expectEq := map[string]string{
		formula.PkgConfigPath:   filepath.Join(prefix, "lib", "pkgconfig"),
		formula.CMakePrefixPath: prefix,
		"CMAKE_INCLUDE_PATH":    filepath.Join(prefix, "include"),
	}
	got := map[string]string{}
	for _, kv := range r.calls[0].env {
		k, v, _ := strings.Cut(kv, "=")
		got[k] = v
	}
	for k, v := range expectEq {
		if got[k] != v {
			t.Fatalf("%s = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["CMAKE_LIBRARY_PATH"]; ok {
		t.Fatal("CMAKE_LIBRARY_PATH set for a header-only package")
	}
}

func TestUseUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Use() of unknown package did not panic")
		}
	}()
	New(&formula.Context{BuildDir: t.TempDir()}, &recordRunner{}).Use(module.Version{ID: "nope"})
}

func TestConfigureArgs(t *testing.T) {
	tmp := t.TempDir()
	r := &recordRunner{}
	c := New(&formula.Context{SourceDir: "src/cmake", BuildDir: filepath.Join(tmp, "cmake")}, r)
	c.BuildType("Release").Define("FOO", "BAR")

	if err := c.Configure("--fresh"); err != nil {
		t.Fatal(err)
	}
	src, err := filepath.Abs("src/cmake")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"-S", src, "-B", filepath.Join(tmp, "cmake"),
		"-DCMAKE_BUILD_TYPE:STRING=Release",
		"-DFOO:STRING=BAR",
		"--fresh",
	}
	if !reflect.DeepEqual(r.calls[0].args, want) {
		t.Fatalf("args = %v, want %v", r.calls[0].args, want)
	}
	if _, err := os.Stat(filepath.Join(tmp, "cmake")); err != nil {
		t.Fatalf("build dir not created: %v", err)
	}

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}
	if want := []string{"--build", filepath.Join(tmp, "cmake"), "--config", "Release"}; !reflect.DeepEqual(r.calls[1].args, want) {
		t.Fatalf("build args = %v, want %v", r.calls[1].args, want)
	}
}

func TestRelativeBuildDir(t *testing.T) {
	wd := t.TempDir()
	t.Chdir(wd)
	c := New(&formula.Context{SourceDir: "cmake", BuildDir: "out"}, &recordRunner{})
	c.BuildDir(filepath.Join("out", "cmake"))
	if err := c.Configure(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(wd, "out", "cmake")); err != nil {
		t.Fatalf("build dir not created under the work dir: %v", err)
	}
}

func TestConfigureBuildE2E(t *testing.T) {
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("cmake not found in PATH")
	}

	tmp := t.TempDir()
	sourceDir := filepath.Join("testdata", "project")
	c := New(&formula.Context{SourceDir: sourceDir, BuildDir: filepath.Join(tmp, "build")}, nil)
	c.BuildType("Release")
	c.Define("FOO", "BAR")

	if err := c.Configure(); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmp, "build", "CMakeCache.txt"))
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	content := string(data)
	for _, snippet := range []string{
		"FOO:STRING=BAR",
		"CMAKE_BUILD_TYPE:STRING=Release",
	} {
		if !strings.Contains(content, snippet) {
			t.Fatalf("cache missing %q", snippet)
		}
	}
}
