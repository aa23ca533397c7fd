package checker

import (
	"os"

	json "github.com/goccy/go-json"
)

// cache remembers clean files by size and mtime so unchanged files are
// skipped on re-runs. A corrupt or unreadable cache is discarded, never
// fatal.
type cache struct {
	Entries map[string]cacheEntry `json:"entries"`
}

type cacheEntry struct {
	Size    int64 `json:"size"`
	ModTime int64 `json:"mtime"` // unix nanoseconds
}

func loadCache(path string) cache {
	c := cache{Entries: map[string]cacheEntry{}}
	if path == "" {
		return c
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(raw, &c); err != nil || c.Entries == nil {
		return cache{Entries: map[string]cacheEntry{}}
	}
	return c
}

func (c cache) save(path string) error {
	if path == "" {
		return nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// fresh reports whether the file matches its cached fingerprint.
func (c cache) fresh(path string) bool {
	e, ok := c.Entries[path]
	if !ok {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Size() == e.Size && fi.ModTime().UnixNano() == e.ModTime
}

// markClean records the file's current fingerprint.
func (c cache) markClean(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	c.Entries[path] = cacheEntry{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}
}
