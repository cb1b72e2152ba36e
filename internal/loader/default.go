package loader

import (
	"io/fs"

	"github.com/goplus/hdrecipe/formula"
	"github.com/goplus/hdrecipe/pkgs/mod/module"
	"github.com/goplus/hdrecipe/pkgs/mod/versions"
)

// Default returns the enum-flags recipe with its version read from the
// jamroot of fsys.
func Default(fsys fs.FS) *formula.Recipe {
	r := &formula.Recipe{
		Identity: formula.NewIdentity(
			"enum-flags",
			(&formula.Project{SourceFS: fsys}).Version(versions.JamrootFile),
			"bit-mask", "bit-flag",
		),
		Matrix: formula.Matrix{
			Options:        map[string][]string{"with_docs": {"False", "True"}},
			DefaultOptions: map[string]string{"with_docs": "False"},
		},
		BuildRequires: []module.Requirement{
			module.MustParseRequirement("boost_build/[>=1.68]@bincrafters/stable"),
			module.MustParseRequirement("b2-tools/[>=0.1]@grisumbras/testing"),
		},
		TestRequires: []module.Requirement{
			module.MustParseRequirement("boost_core/[>1.60]@bincrafters/stable"),
			module.MustParseRequirement("cmake_installer/[>3.0]@conan/stable"),
		},
		Settings: []string{
			formula.AxisOS,
			formula.AxisCompiler,
			formula.AxisBuildType,
			formula.AxisArch,
			formula.AxisCppStd,
		},
		Tools: map[string][]string{"with_docs": {"asciidoctor", "sass"}},
		Exports: []string{
			"jamroot.jam",
			"*build.jam",
			"*.hpp",
			"*.cpp",
			"LICENSE*",
			"*.adoc",
			"*.scss",
			"*.erb",
			"*.png",
			"*.gif",
		},
		NoCopySource: true,
	}
	r.Description = "Bit flags for C++ scoped enums"
	r.Author = "Dmitry Arkhipov <grisumbras@gmail.com>"
	r.License = "MIT"
	r.URL = "https://github.com/grisumbras/enum-flags"
	r.Homepage = r.URL
	return r
}
