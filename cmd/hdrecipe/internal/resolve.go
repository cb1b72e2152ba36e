package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/internal/resolve"
)

var (
	resolveDevelop  bool
	resolveOptions  []string
	resolveSettings []string
	resolvePrefix   string
	resolveJSON     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the build configuration",
	Long: `Resolve prints the effective options, settings, build requirements and
tool integrations of the package for the consumer or developer context.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	flags := resolveCmd.Flags()
	flags.BoolVar(&resolveDevelop, "develop", false, "Resolve for package development")
	flags.StringArrayVarP(&resolveOptions, "option", "o", nil, "Option choice as name=value")
	flags.StringArrayVarP(&resolveSettings, "setting", "s", nil, "Settings axis value as axis=value")
	flags.StringVar(&resolvePrefix, "prefix", "", "Install prefix (default: workspace package dir)")
	flags.BoolVar(&resolveJSON, "json", false, "Print JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe()
	if err != nil {
		return err
	}
	develop := cfg.Develop
	if cmd.Flags().Changed("develop") {
		develop = resolveDevelop
	}
	prefix, err := installPrefix(r, resolvePrefix)
	if err != nil {
		return err
	}
	ctx, err := evalContext(develop, resolveOptions, resolveSettings, prefix)
	if err != nil {
		return err
	}
	res, err := resolve.Resolve(r, ctx)
	if err != nil {
		return err
	}
	view := newResolutionView(r, res)
	if resolveJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	view.print(cmd.OutOrStdout())
	return nil
}

// resolutionView is the printed form of a resolution.
type resolutionView struct {
	Package       string             `json:"package"`
	Mode          string             `json:"mode"`
	ID            string             `json:"id"`
	Settings      map[string]*string `json:"settings"`
	Options       map[string]string  `json:"options"`
	BuildRequires []string           `json:"build_requires"`
	Tools         []string           `json:"tools"`
	Properties    map[string]string  `json:"properties,omitempty"`
}

func newResolutionView(r *formula.Recipe, res *resolve.Resolution) *resolutionView {
	v := &resolutionView{
		Package:       r.Ref().String(),
		Mode:          res.Mode.String(),
		ID:            res.ID(),
		Settings:      map[string]*string{},
		Options:       res.Options,
		BuildRequires: []string{},
		Tools:         res.Tools,
		Properties:    res.Properties,
	}
	if v.Tools == nil {
		v.Tools = []string{}
	}
	for _, axis := range res.Settings.Axes() {
		if val, ok := res.Settings.Get(axis); ok {
			v.Settings[axis] = &val
			continue
		}
		v.Settings[axis] = nil
	}
	for _, req := range res.BuildRequires {
		v.BuildRequires = append(v.BuildRequires, req.String())
	}
	return v
}

func (v *resolutionView) print(w io.Writer) {
	fmt.Fprintf(w, "package:  %s\n", v.Package)
	fmt.Fprintf(w, "mode:     %s\n", v.Mode)
	fmt.Fprintf(w, "id:       %s\n", v.ID)
	fmt.Fprintf(w, "options:  %s\n", formula.OptionSet(v.Options))

	axes := make([]string, 0, len(v.Settings))
	for axis, val := range v.Settings {
		if val == nil {
			axes = append(axes, axis+"=<unset>")
			continue
		}
		axes = append(axes, axis+"="+*val)
	}
	slices.Sort(axes)
	fmt.Fprintf(w, "settings: %s\n", strings.Join(axes, ","))
	fmt.Fprintf(w, "tools:    %s\n", strings.Join(v.Tools, ","))
	fmt.Fprintln(w, "build requires:")
	for _, req := range v.BuildRequires {
		fmt.Fprintf(w, "  %s\n", req)
	}
}
