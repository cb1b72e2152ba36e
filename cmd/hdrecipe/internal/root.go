package internal

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goplus/hdrecipe/internal/config"
)

var (
	sourceDir string
	cfg       = &config.Config{Options: map[string]string{}}
	logger    = log.NewWithOptions(os.Stderr, log.Options{Prefix: "hdrecipe"})
	settings  = config.New("")
)

var rootCmd = &cobra.Command{
	Use:   "hdrecipe",
	Short: "hdrecipe resolves and tests header-only package builds",
	Long: `hdrecipe loads the recipe of a header-only C++ package, resolves its
options and settings, builds and installs it with b2 and checks the install
from a b2 and a CMake consumer project.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&sourceDir, "source", "C", ".", "Package source directory")
	flags.String(config.KeyWorkspace, "", "Workspace directory for builds and installs")
	flags.BoolP(config.KeyVerbose, "v", false, "Enable debug logging")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Root().PersistentFlags()
	for _, key := range []string{config.KeyWorkspace, config.KeyVerbose} {
		if err := settings.BindPFlag(key, flags.Lookup(key)); err != nil {
			return err
		}
	}
	c, err := config.Load(settings)
	if err != nil {
		return err
	}
	cfg = c
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
