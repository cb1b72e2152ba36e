package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the package version",
	Long:  `Version prints the version declared in the package's build-root file, or "unknown".`,
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.Version.OrElse("unknown"))
	return nil
}
