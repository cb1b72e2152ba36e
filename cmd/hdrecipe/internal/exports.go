package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrecipe/internal/loader"
)

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List the source files exported with the recipe",
	Args:  cobra.NoArgs,
	RunE:  runExports,
}

func init() {
	rootCmd.AddCommand(exportsCmd)
}

func runExports(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe()
	if err != nil {
		return err
	}
	files, err := loader.Exports(os.DirFS(sourceDir), r.Exports)
	if err != nil {
		return fmt.Errorf("failed to list exports: %w", err)
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
