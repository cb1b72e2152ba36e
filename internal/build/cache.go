package build

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Workspace directory layout:
//
//	workspaceDir/
//	  .cache.json          # maps package id -> last successful phase
//	  build/<id>/          # one folder per invocation
//	    package/
//	    base/
//	    pkgconfig/
//	    cmake/
//	  package/<id>/        # install prefix
//	    include/
//	    lib/pkgconfig/
const cacheFile = ".cache.json"

// Entry records a successful package and test phase.
type Entry struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Options     map[string]string `json:"options"`
	Prefix      string            `json:"prefix"`
	Invocations []string          `json:"invocations"`
	BuildTime   time.Time         `json:"build_time"`
}

// Cache maps package ids to their last successful build. Failures are
// never recorded.
type Cache struct {
	Entries map[string]*Entry `json:"cache"`
}

// Get returns the entry of id.
func (c *Cache) Get(id string) (*Entry, bool) {
	e, ok := c.Entries[id]
	return e, ok
}

// Set records entry for id, replacing any previous one.
func (c *Cache) Set(id string, entry *Entry) {
	if c.Entries == nil {
		c.Entries = make(map[string]*Entry)
	}
	c.Entries[id] = entry
}

// Record stores the successful invocations of rep under id. It reports
// false and records nothing when rep has a failed or unfinished invocation.
func (c *Cache) Record(id string, entry Entry, rep *Report) bool {
	if rep == nil || !rep.Succeeded() {
		return false
	}
	for _, res := range rep.Results {
		entry.Invocations = append(entry.Invocations, res.Invocation.Name)
	}
	c.Set(id, &entry)
	return true
}

// LoadCache reads the cache of workspace. A missing file is an empty cache.
func LoadCache(workspace string) (*Cache, error) {
	data, err := os.ReadFile(filepath.Join(workspace, cacheFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &Cache{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cache Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

// SaveCache writes the cache of workspace.
func SaveCache(workspace string, cache *Cache) error {
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(workspace, cacheFile), data, 0o644)
}
