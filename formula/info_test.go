package formula

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goplus/hdrecipe/pkgs/mod/module"
)

func TestHeaderOnlyInfo(t *testing.T) {
	prefix := filepath.Join("opt", "enum-flags")
	info := HeaderOnlyInfo(prefix)

	if !info.HeaderOnly {
		t.Fatal("HeaderOnly = false")
	}
	if len(info.LibDirs) != 0 {
		t.Fatalf("LibDirs = %v, want none", info.LibDirs)
	}
	if want := []string{filepath.Join(prefix, "include")}; !reflect.DeepEqual(info.IncludeDirs, want) {
		t.Fatalf("IncludeDirs = %v, want %v", info.IncludeDirs, want)
	}
	if got, want := info.Env.Values(PkgConfigPath), []string{filepath.Join(prefix, "lib", "pkgconfig")}; !reflect.DeepEqual(got, want) {
		t.Fatalf("%s = %v, want %v", PkgConfigPath, got, want)
	}
	if got, want := info.Env.Values(CMakePrefixPath), []string{prefix}; !reflect.DeepEqual(got, want) {
		t.Fatalf("%s = %v, want %v", CMakePrefixPath, got, want)
	}
	if got, want := info.Env.Keys(), []string{PkgConfigPath, CMakePrefixPath}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
}

func TestEnvInfo_AppendPreservesOrder(t *testing.T) {
	var env EnvInfo
	env.Append(CMakePrefixPath, "a")
	env.Append(CMakePrefixPath, "b")
	env.Append(CMakePrefixPath, "a")

	var other EnvInfo
	other.Append(CMakePrefixPath, "c")
	other.Append(CMakePrefixPath, "b")
	env.Merge(other)

	if got, want := env.Values(CMakePrefixPath), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
	sep := string(os.PathListSeparator)
	if got, want := env.Value(CMakePrefixPath), "a"+sep+"b"+sep+"c"; got != want {
		t.Fatalf("Value() = %q, want %q", got, want)
	}
}

func TestEnvInfo_Environ(t *testing.T) {
	sep := string(os.PathListSeparator)
	var env EnvInfo
	env.Append(PkgConfigPath, "/pkg/lib/pkgconfig")
	env.Append(CMakePrefixPath, "/pkg")

	base := []string{
		"HOME=/home/user",
		PkgConfigPath + "=/usr/lib/pkgconfig" + sep + "/pkg/lib/pkgconfig",
	}
	got := env.Environ(base)
	want := []string{
		"HOME=/home/user",
		PkgConfigPath + "=/usr/lib/pkgconfig" + sep + "/pkg/lib/pkgconfig",
		CMakePrefixPath + "=/pkg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Environ() = %v, want %v", got, want)
	}
	if base[1] != PkgConfigPath+"=/usr/lib/pkgconfig"+sep+"/pkg/lib/pkgconfig" {
		t.Fatal("Environ() modified base")
	}

	got = env.Environ([]string{PkgConfigPath + "=/usr/lib/pkgconfig"})
	if want := PkgConfigPath + "=/usr/lib/pkgconfig" + sep + "/pkg/lib/pkgconfig"; got[0] != want {
		t.Fatalf("Environ()[0] = %q, want %q", got[0], want)
	}
}

func TestContext_Package(t *testing.T) {
	ctx := &Context{}
	mod := module.Version{ID: "enum-flags", Version: "1.0.0"}

	if _, ok := ctx.Package(mod); ok {
		t.Fatalf("Context.Package() ok = true, want false")
	}

	ctx.AddPackage(mod, HeaderOnlyInfo("/prefix"))
	got, ok := ctx.Package(mod)
	if !ok {
		t.Fatalf("Context.Package() ok = false, want true")
	}
	if got.Prefix != "/prefix" {
		t.Fatalf("Context.Package() prefix = %q, want %q", got.Prefix, "/prefix")
	}
}
