package formula

import (
	"io"
	"io/fs"

	"github.com/goplus/hdrecipe/pkgs/mod/versions"
)

// -----------------------------------------------------------------------------

// Project represents the source tree of the package being built.
type Project struct {
	SourceFS fs.FS
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(path string) ([]byte, error) {
	file, err := p.SourceFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// Version looks up the version declared in the build-root file name.
// A missing file or declaration yields an absent version.
func (p *Project) Version(name string) versions.Version {
	return versions.Lookup(p.SourceFS, name)
}

// -----------------------------------------------------------------------------
