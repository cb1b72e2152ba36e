package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/pkgs/mod/module"
	"github.com/goplus/hdrecipe/pkgs/mod/versions"
)

// RecipeFile is the name of the recipe description in a source tree.
const RecipeFile = "recipe.toml"

// recipeFile mirrors the TOML layout of RecipeFile.
type recipeFile struct {
	Name           string              `toml:"name"`
	Version        string              `toml:"version"`
	VersionFile    string              `toml:"version_file"`
	Description    string              `toml:"description"`
	Author         string              `toml:"author"`
	License        string              `toml:"license"`
	URL            string              `toml:"url"`
	Homepage       string              `toml:"homepage"`
	Topics         []string            `toml:"topics"`
	Exports        []string            `toml:"exports"`
	NoCopySource   bool                `toml:"no_copy_source"`
	BuildRequires  []string            `toml:"build_requires"`
	TestRequires   []string            `toml:"test_requires"`
	Settings       []string            `toml:"settings"`
	Options        map[string][]any    `toml:"options"`
	DefaultOptions map[string]any      `toml:"default_options"`
	Tools          map[string][]string `toml:"tools"`
}

// Load reads the recipe of the source tree fsys. A tree without RecipeFile
// gets the built-in recipe. The version comes from the literal "version"
// key, or else from the build-root file; an undeterminable version is not
// an error.
func Load(fsys fs.FS) (*formula.Recipe, error) {
	data, err := (&formula.Project{SourceFS: fsys}).ReadFile(RecipeFile)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(fsys), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return Parse(fsys, data)
}

// Parse builds a recipe from the TOML content data. fsys is consulted for
// the version file only.
func Parse(fsys fs.FS, data []byte) (*formula.Recipe, error) {
	var f recipeFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if f.Name == "" {
		return nil, errors.New("failed to load recipe: name is required")
	}

	version := versions.Of(f.Version)
	if f.Version == "" {
		file := f.VersionFile
		if file == "" {
			file = versions.JamrootFile
		}
		version = (&formula.Project{SourceFS: fsys}).Version(file)
	}

	r := &formula.Recipe{
		Identity:     formula.NewIdentity(f.Name, version, f.Topics...),
		Exports:      f.Exports,
		NoCopySource: f.NoCopySource,
		Settings:     f.Settings,
		Tools:        f.Tools,
	}
	r.Description = f.Description
	r.Author = f.Author
	r.License = f.License
	r.URL = f.URL
	r.Homepage = f.Homepage
	if r.Homepage == "" {
		r.Homepage = f.URL
	}

	r.Matrix = formula.Matrix{
		Options:        make(map[string][]string, len(f.Options)),
		DefaultOptions: make(map[string]string, len(f.DefaultOptions)),
	}
	for name, values := range f.Options {
		for _, v := range values {
			r.Matrix.Options[name] = append(r.Matrix.Options[name], optionValue(v))
		}
	}
	for name, v := range f.DefaultOptions {
		r.Matrix.DefaultOptions[name] = optionValue(v)
	}
	if err := r.Matrix.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load recipe %s: %w", f.Name, err)
	}

	for _, name := range slices.Sorted(maps.Keys(f.Tools)) {
		if _, ok := r.Matrix.Options[name]; !ok {
			return nil, fmt.Errorf("failed to load recipe %s: tools for %q: %w", f.Name, name, formula.ErrNoSuchOption)
		}
		if !r.Matrix.IsBool(name) {
			return nil, fmt.Errorf("failed to load recipe %s: tools for %q: option is not boolean: %w", f.Name, name, formula.ErrBadValue)
		}
	}
	for _, axis := range f.Settings {
		if !formula.KnownAxis(axis) {
			return nil, fmt.Errorf("failed to load recipe %s: unknown settings axis %q", f.Name, axis)
		}
	}

	var err error
	if r.BuildRequires, err = parseRequirements(f.BuildRequires); err != nil {
		return nil, fmt.Errorf("failed to load recipe %s: build_requires: %w", f.Name, err)
	}
	if r.TestRequires, err = parseRequirements(f.TestRequires); err != nil {
		return nil, fmt.Errorf("failed to load recipe %s: test_requires: %w", f.Name, err)
	}
	return r, nil
}

func parseRequirements(refs []string) ([]module.Requirement, error) {
	out := make([]module.Requirement, 0, len(refs))
	for _, ref := range refs {
		req, err := module.ParseRequirement(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// optionValue spells TOML scalars the way option domains are written:
// booleans as "True"/"False".
func optionValue(v any) string {
	switch v := v.(type) {
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Exports lists the files of fsys matched by the recipe's export patterns,
// in lexical order. A pattern starting with "*" matches at any depth.
func Exports(fsys fs.FS, patterns []string) ([]string, error) {
	globs := make([]string, len(patterns))
	for i, p := range patterns {
		if strings.HasPrefix(p, "*") && !strings.HasPrefix(p, "**/") {
			p = "**/" + p
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid export pattern %q", patterns[i])
		}
		globs[i] = p
	}

	var out []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, g := range globs {
			if ok, _ := doublestar.Match(g, path); ok {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
