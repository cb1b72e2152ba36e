package versions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// JamrootFile is the build-root configuration file that declares the
// package version.
const JamrootFile = "jamroot.jam"

var versionRe = regexp.MustCompile(`constant\s*VERSION\s*:\s*(\S+)\s*;`)

// errNoDeclaration is recorded when the file has no VERSION constant.
var errNoDeclaration = errors.New("no VERSION constant declared")

// Version is an optional version token. The zero value is absent.
//
// A Version is never an error: lookups that fail yield an absent Version
// and callers decide what an unknown version means for them.
type Version struct {
	value  string
	ok     bool
	reason error
}

// Of returns a present Version holding v.
func Of(v string) Version {
	return Version{value: v, ok: true}
}

// Absent returns a Version with no value. reason is kept for diagnostics.
func Absent(reason error) Version {
	return Version{reason: reason}
}

// Value returns the token and whether it is present.
func (v Version) Value() (string, bool) {
	return v.value, v.ok
}

// IsSet reports whether the version is present.
func (v Version) IsSet() bool {
	return v.ok
}

// OrElse returns the token, or def when the version is absent.
func (v Version) OrElse(def string) string {
	if v.ok {
		return v.value
	}
	return def
}

// Reason explains why the version is absent. It is nil for present versions.
func (v Version) Reason() error {
	return v.reason
}

// Semver returns the token in canonical "vX.Y.Z" form when it is a valid
// semantic version.
func (v Version) Semver() (string, bool) {
	if !v.ok {
		return "", false
	}
	sv := v.value
	if !strings.HasPrefix(sv, "v") {
		sv = "v" + sv
	}
	if !semver.IsValid(sv) {
		return "", false
	}
	return semver.Canonical(sv), true
}

func (v Version) String() string {
	return v.value
}

// Extract finds the first `constant VERSION : <token> ;` declaration in
// content and returns <token>.
func Extract(content string) (string, bool) {
	m := versionRe.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Parse extracts the version from data, or from file on disk when data is
// nil. Read failures and missing declarations yield an absent Version.
func Parse(file string, data []byte) Version {
	if data == nil {
		b, err := os.ReadFile(file)
		if err != nil {
			return Absent(err)
		}
		data = b
	}
	if tok, ok := Extract(string(data)); ok {
		return Of(tok)
	}
	return Absent(fmt.Errorf("%s: %w", file, errNoDeclaration))
}

// Lookup reads name from fsys and extracts its version. It never fails;
// a nil fsys, unreadable file or missing declaration is an absent Version.
func Lookup(fsys fs.FS, name string) (v Version) {
	defer func() {
		if r := recover(); r != nil {
			v = Absent(fmt.Errorf("%s: %v", name, r))
		}
	}()
	if fsys == nil {
		return Absent(fmt.Errorf("%s: no source tree", name))
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Absent(err)
	}
	if data == nil {
		data = []byte{}
	}
	return Parse(name, data)
}
