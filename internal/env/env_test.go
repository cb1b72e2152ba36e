package env

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWorkDir(t *testing.T) {
	dir, err := WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() returned error: %v", err)
	}

	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		t.Fatalf("os.UserCacheDir() returned error: %v", err)
	}
	if want := filepath.Join(userCacheDir, ".hdrecipe"); dir != want {
		t.Errorf("WorkDir() = %q, want %q", dir, want)
	}
}

func TestBuildDir(t *testing.T) {
	workspace := t.TempDir()

	dir, err := BuildDir(workspace, "abc123")
	if err != nil {
		t.Fatalf("BuildDir() returned error: %v", err)
	}
	if want := filepath.Join(workspace, "build", "abc123"); dir != want {
		t.Errorf("BuildDir() = %q, want %q", dir, want)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("BuildDir() created a file instead of a directory")
	}
	if runtime.GOOS != "windows" {
		if mode := info.Mode().Perm(); mode != 0o700 {
			t.Errorf("Directory has permissions %v, want %v", mode, os.FileMode(0o700))
		}
	}

	// Idempotent.
	again, err := BuildDir(workspace, "abc123")
	if err != nil || again != dir {
		t.Errorf("second BuildDir() = %q, %v, want %q", again, err, dir)
	}
}

func TestBuildDirWithCustomCache(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honoured on linux")
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir, err := BuildDir("", "id")
	if err != nil {
		t.Fatalf("BuildDir() failed with custom cache dir: %v", err)
	}
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), ".hdrecipe", "build", "id"); dir != want {
		t.Errorf("BuildDir() = %q, want %q", dir, want)
	}
}

func TestPackageDir(t *testing.T) {
	dir, err := PackageDir("/ws", "id")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/ws", "package", "id"); dir != want {
		t.Errorf("PackageDir() = %q, want %q", dir, want)
	}
}
