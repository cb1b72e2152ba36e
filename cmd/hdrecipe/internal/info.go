package internal

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrecipe/formula"
)

var infoPrefix string

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the metadata the installed package publishes",
	Long: `Info prints, as JSON, the include directories and search-path variables
consumers of the package installed at the prefix should use.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoPrefix, "prefix", "", "Install prefix (default: workspace package dir)")
	rootCmd.AddCommand(infoCmd)
}

type infoView struct {
	HeaderOnly  bool                `json:"header_only"`
	Prefix      string              `json:"prefix"`
	IncludeDirs []string            `json:"include_dirs"`
	Env         map[string][]string `json:"env"`
}

func newInfoView(info formula.PackageInfo) infoView {
	v := infoView{
		HeaderOnly:  info.HeaderOnly,
		Prefix:      info.Prefix,
		IncludeDirs: info.IncludeDirs,
		Env:         map[string][]string{},
	}
	for _, k := range info.Env.Keys() {
		v.Env[k] = info.Env.Values(k)
	}
	return v
}

func runInfo(cmd *cobra.Command, args []string) error {
	var r *formula.Recipe
	if infoPrefix == "" {
		var err error
		if r, err = loadRecipe(); err != nil {
			return err
		}
	}
	prefix, err := installPrefix(r, infoPrefix)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(newInfoView(formula.HeaderOnlyInfo(prefix)))
}
