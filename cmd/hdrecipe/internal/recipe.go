package internal

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/internal/env"
	"github.com/goplus/hdrecipe/internal/loader"
	"github.com/goplus/hdrecipe/internal/resolve"
)

// loadRecipe loads the recipe of the source directory.
func loadRecipe() (*formula.Recipe, error) {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source dir: %w", err)
	}
	r, err := loader.Load(os.DirFS(abs))
	if err != nil {
		return nil, err
	}
	logger.Debug("recipe loaded", "package", r.Name, "version", r.Version.OrElse("unknown"))
	if !r.Version.IsSet() {
		logger.Debug("version not determined", "reason", r.Version.Reason())
	}
	return r, nil
}

// parseAssignments parses "key=value" arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q: want key=value", arg)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// hostSettings returns the settings of the running host overlaid with
// the user's assignments.
func hostSettings(assign []string) (map[string]string, error) {
	s := map[string]string{
		formula.AxisOS:   runtime.GOOS,
		formula.AxisArch: runtime.GOARCH,
	}
	user, err := parseAssignments(assign)
	if err != nil {
		return nil, err
	}
	for axis := range user {
		if !formula.KnownAxis(axis) {
			return nil, fmt.Errorf("unknown settings axis %q", axis)
		}
	}
	maps.Copy(s, user)
	return s, nil
}

// evalContext builds the evaluation context from the config and flags.
// Options given on the command line override configured ones.
func evalContext(develop bool, options, assign []string, prefix string) (resolve.Context, error) {
	ctx := resolve.Context{Mode: resolve.Consumer, InstallPrefix: prefix}
	if develop {
		ctx.Mode = resolve.Developer
	}
	ctx.Options = maps.Clone(cfg.Options)
	if ctx.Options == nil {
		ctx.Options = map[string]string{}
	}
	opts, err := parseAssignments(options)
	if err != nil {
		return ctx, err
	}
	maps.Copy(ctx.Options, opts)
	if ctx.Settings, err = hostSettings(assign); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// packagePrefix is the default install prefix of r in the workspace.
// Header-only packages install once per version.
func packagePrefix(r *formula.Recipe) (string, error) {
	ref := r.Ref()
	return env.PackageDir(cfg.Workspace, filepath.Join(ref.ID, ref.Version))
}

// installPrefix returns dir made absolute, or the workspace package dir of r
// when dir is empty. b2 runs in the source folder, so a relative prefix would
// otherwise resolve against it instead of the working directory.
func installPrefix(r *formula.Recipe, dir string) (string, error) {
	if dir == "" {
		return packagePrefix(r)
	}
	return filepath.Abs(dir)
}
