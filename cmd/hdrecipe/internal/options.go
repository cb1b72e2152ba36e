package internal

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var optionsAll bool

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the package options",
	Long:  `Options lists each option with its allowed values and default.`,
	Args:  cobra.NoArgs,
	RunE:  runOptions,
}

func init() {
	optionsCmd.Flags().BoolVar(&optionsAll, "all", false, "List every option combination")
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if optionsAll {
		for _, set := range r.Matrix.Combinations() {
			fmt.Fprintln(out, set)
		}
		return nil
	}
	names := make([]string, 0, len(r.Matrix.Options))
	for name := range r.Matrix.Options {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		line := fmt.Sprintf("%s: [%s] default %s", name,
			strings.Join(r.Matrix.Options[name], ", "), r.Matrix.DefaultOptions[name])
		if tools := r.Tools[name]; len(tools) > 0 {
			line += fmt.Sprintf(" (tools: %s)", strings.Join(tools, ", "))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
