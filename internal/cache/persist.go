package cache

import (
	"encoding/json"
	"fmt"
	"os"
)

// SchemaVersion tags the persisted cache format. Files written with a
// different schema load as a cold cache rather than being misapplied.
const SchemaVersion = 1

type persistedCache struct {
	Schema  int                `json:"schema"`
	Entries map[string]float64 `json:"entries"`
}

// Save writes the cache contents to path as JSON.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	p := persistedCache{Schema: SchemaVersion, Entries: make(map[string]float64, len(c.entries))}
	for k, v := range c.entries {
		p.Entries[k] = v
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load warms the cache from path. A missing file or a schema mismatch is
// not an error: the cache simply stays cold. A corrupt file is reported.
func (c *Cache) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var p persistedCache
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("cache file %s: %w", path, err)
	}
	if p.Schema != SchemaVersion {
		return nil
	}

	c.mu.Lock()
	for k, v := range p.Entries {
		c.entries[k] = v
	}
	c.mu.Unlock()
	return nil
}
