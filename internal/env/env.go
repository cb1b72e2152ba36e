package env

import (
	"os"
	"path/filepath"
)

// WorkDir returns the root of the hdrecipe workspace in the user cache.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".hdrecipe"), nil
}

// BuildDir returns the build root for the package id inside workspace,
// creating it with 0700 permissions. An empty workspace means WorkDir.
func BuildDir(workspace, id string) (string, error) {
	if workspace == "" {
		dir, err := WorkDir()
		if err != nil {
			return "", err
		}
		workspace = dir
	}
	dir := filepath.Join(workspace, "build", id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// PackageDir returns the install prefix for the package id inside
// workspace. The directory is not created.
func PackageDir(workspace, id string) (string, error) {
	if workspace == "" {
		dir, err := WorkDir()
		if err != nil {
			return "", err
		}
		workspace = dir
	}
	return filepath.Join(workspace, "package", id), nil
}
