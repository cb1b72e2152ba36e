package module

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goplus/hdrecipe/pkgs/gnu"
	"golang.org/x/mod/semver"
)

// ErrBadReference is returned for package references that cannot be parsed.
var ErrBadReference = errors.New("malformed package reference")

// Constraint is a single version bound such as ">=1.68".
type Constraint struct {
	Op      string // one of "=", ">", ">=", "<", "<="
	Version string
}

func (c Constraint) String() string {
	if c.Op == "=" {
		return c.Version
	}
	return c.Op + c.Version
}

// Allows reports whether ver satisfies the bound.
func (c Constraint) Allows(ver string) bool {
	d := Compare(ver, c.Version)
	switch c.Op {
	case ">":
		return d > 0
	case ">=":
		return d >= 0
	case "<":
		return d < 0
	case "<=":
		return d <= 0
	default:
		return d == 0
	}
}

// Requirement is a package reference of the form
//
//	name/version@user/channel
//	name/[>=1.0 <2.0]@user/channel
//
// The @user/channel part is optional.
type Requirement struct {
	Name    string
	Version string       // pinned version; empty when Range is set
	Range   []Constraint // all bounds must hold
	User    string
	Channel string
}

// ParseRequirement parses a package reference.
func ParseRequirement(ref string) (Requirement, error) {
	var r Requirement
	s := strings.TrimSpace(ref)
	if s == "" {
		return r, fmt.Errorf("%w: empty reference", ErrBadReference)
	}

	if at := strings.LastIndex(s, "@"); at >= 0 {
		user, channel, ok := strings.Cut(s[at+1:], "/")
		if !ok || user == "" || channel == "" || strings.Contains(channel, "/") {
			return r, fmt.Errorf("%w: %q: want @user/channel", ErrBadReference, ref)
		}
		r.User, r.Channel = user, channel
		s = s[:at]
	}

	name, ver, ok := strings.Cut(s, "/")
	if !ok || name == "" || ver == "" {
		return r, fmt.Errorf("%w: %q: want name/version", ErrBadReference, ref)
	}
	if strings.ContainsAny(name, " []") {
		return r, fmt.Errorf("%w: %q: invalid name %q", ErrBadReference, ref, name)
	}
	r.Name = name

	if strings.HasPrefix(ver, "[") {
		if !strings.HasSuffix(ver, "]") {
			return r, fmt.Errorf("%w: %q: unterminated version range", ErrBadReference, ref)
		}
		rng, err := parseRange(ver[1 : len(ver)-1])
		if err != nil {
			return r, fmt.Errorf("%w: %q: %v", ErrBadReference, ref, err)
		}
		r.Range = rng
		return r, nil
	}
	if strings.ContainsAny(ver, " []/") {
		return r, fmt.Errorf("%w: %q: invalid version %q", ErrBadReference, ref, ver)
	}
	r.Version = ver
	return r, nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
// It is meant for references compiled into the program.
func MustParseRequirement(ref string) Requirement {
	r, err := ParseRequirement(ref)
	if err != nil {
		panic(err)
	}
	return r
}

func parseRange(s string) ([]Constraint, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 0 {
		return nil, errors.New("empty version range")
	}
	out := make([]Constraint, 0, len(fields))
	for _, f := range fields {
		c := Constraint{Op: "="}
		for _, op := range []string{">=", "<=", ">", "<", "="} {
			if strings.HasPrefix(f, op) {
				c.Op = op
				f = f[len(op):]
				break
			}
		}
		if f == "" {
			return nil, fmt.Errorf("bound %q has no version", c.Op)
		}
		c.Version = f
		out = append(out, c)
	}
	return out, nil
}

// Allows reports whether ver satisfies the requirement.
func (r Requirement) Allows(ver string) bool {
	if len(r.Range) == 0 {
		return Compare(ver, r.Version) == 0
	}
	for _, c := range r.Range {
		if !c.Allows(ver) {
			return false
		}
	}
	return true
}

// Module pins the requirement to ver.
func (r Requirement) Module(ver string) Version {
	return Version{ID: r.Name, Version: ver}
}

func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte('/')
	if len(r.Range) > 0 {
		parts := make([]string, len(r.Range))
		for i, c := range r.Range {
			parts[i] = c.String()
		}
		b.WriteString("[" + strings.Join(parts, " ") + "]")
	} else {
		b.WriteString(r.Version)
	}
	if r.User != "" {
		b.WriteString("@" + r.User + "/" + r.Channel)
	}
	return b.String()
}

// Compare orders two version tokens. Tokens that are both semantic versions
// (with or without the leading "v") are compared with semver rules,
// anything else falls back to GNU version ordering.
func Compare(v1, v2 string) int {
	s1, s2 := canonical(v1), canonical(v2)
	if semver.IsValid(s1) && semver.IsValid(s2) {
		return semver.Compare(s1, s2)
	}
	switch d := gnu.Compare(v1, v2); {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}

var _ VersionComparator = Compare

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
