package module

// Version identifies one version of a package.
type Version struct {
	ID      string
	Version string
}

func (v Version) String() string {
	if v.Version == "" {
		return v.ID
	}
	return v.ID + "/" + v.Version
}

// VersionComparator orders two version tokens like strings.Compare.
type VersionComparator func(v1, v2 string) int
