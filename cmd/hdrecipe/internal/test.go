package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/internal/build"
	"github.com/goplus/hdrecipe/internal/env"
	"github.com/goplus/hdrecipe/internal/resolve"
)

var (
	testDir      string
	testBuild    string
	testPrefix   string
	testOptions  []string
	testSettings []string
	testRebuild  bool
)

// newInvoker builds the invoker used by the test command.
var newInvoker = func() *build.Invoker {
	return build.NewInvoker(build.WithLogger(logger))
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Build, install and test the package",
	Long: `Test builds and installs the package with b2, then builds the test
projects against the install: a plain b2 project, a b2 project using
pkg-config and a CMake project. The first failing build stops the run.`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func init() {
	flags := testCmd.Flags()
	flags.StringVar(&testDir, "test-dir", "", "Test projects directory (default: <source>/test)")
	flags.StringVar(&testBuild, "build", "", "Build root (default: workspace build dir)")
	flags.StringVar(&testPrefix, "prefix", "", "Install prefix (default: workspace package dir)")
	flags.StringArrayVarP(&testOptions, "option", "o", nil, "Option choice as name=value")
	flags.StringArrayVarP(&testSettings, "setting", "s", nil, "Settings axis value as axis=value")
	flags.BoolVar(&testRebuild, "rebuild", false, "Rebuild the package even if it is cached")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r, err := loadRecipe()
	if err != nil {
		return err
	}
	prefix, err := installPrefix(r, testPrefix)
	if err != nil {
		return err
	}
	evalCtx, err := evalContext(true, testOptions, testSettings, prefix)
	if err != nil {
		return err
	}
	res, err := resolve.Resolve(r, evalCtx)
	if err != nil {
		return err
	}
	id := res.ID()

	var buildRoot string
	if testBuild == "" {
		if buildRoot, err = env.BuildDir(cfg.Workspace, id); err != nil {
			return fmt.Errorf("failed to create build dir: %w", err)
		}
	} else if buildRoot, err = filepath.Abs(testBuild); err != nil {
		return err
	}
	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return err
	}
	tests := filepath.Join(src, "test")
	if testDir != "" {
		if tests, err = filepath.Abs(testDir); err != nil {
			return err
		}
	}

	cache, err := build.LoadCache(cfg.Workspace)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	iv := newInvoker()

	var info formula.PackageInfo
	if !testRebuild && cached(cache, id, r.Ref().Version, prefix) {
		logger.Info("package up to date", "package", r.Ref(), "prefix", prefix)
		info = formula.HeaderOnlyInfo(prefix)
	} else {
		var rep *build.Report
		info, rep, err = iv.Package(ctx, src, buildRoot, prefix, res)
		if err != nil {
			return fmt.Errorf("failed to package %s: %w", r.Ref(), err)
		}
		cache.Record(id, build.Entry{
			Name:      r.Name,
			Version:   r.Ref().Version,
			Options:   res.Options,
			Prefix:    prefix,
			BuildTime: time.Now(),
		}, rep)
		if err := build.SaveCache(cfg.Workspace, cache); err != nil {
			logger.Warn("failed to save cache", "error", err)
		}
	}

	dep := build.Dependency{Ref: r.Ref(), Info: info}
	rep, err := iv.Test(ctx, tests, buildRoot, dep, res.Settings.Values())
	if err != nil {
		return fmt.Errorf("test of %s failed: %w", r.Ref(), err)
	}
	for _, result := range rep.Results {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", result.Invocation.Name, result.State)
	}
	return nil
}

// cached reports whether the cache holds an install of version at prefix
// whose headers are still on disk.
func cached(cache *build.Cache, id, version, prefix string) bool {
	entry, ok := cache.Get(id)
	if !ok || entry.Prefix != prefix || entry.Version != version {
		return false
	}
	if _, err := os.Stat(filepath.Join(prefix, "include")); err != nil {
		logger.Warn("cached install is missing", "prefix", prefix, "error", err)
		return false
	}
	return true
}
