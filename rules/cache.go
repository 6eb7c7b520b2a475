package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoOverride is returned by Cache.Get when no override exists for a platform.
var ErrNoOverride = errors.New("no override profile")

// Cache manages user override profiles stored as <dir>/<platform>.json.
type Cache struct {
	localDir    string
	memoryCache map[string]*Profile
}

// NewCache creates a new override cache.
// If localDir is empty, uses ~/.config/chatnav/rules/
func NewCache(localDir string) (*Cache, error) {
	if localDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home dir: %w", err)
		}
		localDir = filepath.Join(home, ".config", "chatnav", "rules")
	}

	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, fmt.Errorf("creating rules dir: %w", err)
	}

	return &Cache{
		localDir:    localDir,
		memoryCache: make(map[string]*Profile),
	}, nil
}

// Get retrieves the override for a platform.
// Checks: memory cache → local file → ErrNoOverride
func (c *Cache) Get(platform string) (*Profile, error) {
	platform = normalizePlatform(platform)

	if p, ok := c.memoryCache[platform]; ok {
		return p, nil
	}

	p, err := c.loadFromFile(platform)
	if err != nil {
		return nil, err
	}
	c.memoryCache[platform] = p
	return p, nil
}

// Apply merges the override for base.Platform into base, if one exists.
// A missing override is not an error.
func (c *Cache) Apply(base Profile) (Profile, error) {
	if c == nil {
		return base, nil
	}
	override, err := c.Get(base.Platform)
	if errors.Is(err, ErrNoOverride) {
		return base, nil
	}
	if err != nil {
		return base, err
	}
	return Merge(base, *override), nil
}

// Put stores an override in memory and optionally to disk.
func (c *Cache) Put(p *Profile, persist bool) error {
	platform := normalizePlatform(p.Platform)
	c.memoryCache[platform] = p

	if persist {
		return c.saveToFile(p)
	}
	return nil
}

// Delete removes an override from cache and disk.
func (c *Cache) Delete(platform string) error {
	platform = normalizePlatform(platform)
	delete(c.memoryCache, platform)

	if err := os.Remove(c.filePath(platform)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns all platforms that have an override.
func (c *Cache) List() ([]string, error) {
	var platforms []string
	seen := make(map[string]bool)

	for platform := range c.memoryCache {
		platforms = append(platforms, platform)
		seen[platform] = true
	}

	entries, err := os.ReadDir(c.localDir)
	if err != nil {
		if os.IsNotExist(err) {
			return platforms, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			platform := strings.TrimSuffix(name, ".json")
			if !seen[platform] {
				platforms = append(platforms, platform)
			}
		}
	}

	return platforms, nil
}

// LocalDir returns the local override directory path.
func (c *Cache) LocalDir() string {
	return c.localDir
}

func (c *Cache) filePath(platform string) string {
	safe := strings.ReplaceAll(platform, "/", "_")
	safe = strings.ReplaceAll(safe, ":", "_")
	return filepath.Join(c.localDir, safe+".json")
}

func (c *Cache) loadFromFile(platform string) (*Profile, error) {
	data, err := os.ReadFile(c.filePath(platform))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", platform, ErrNoOverride)
	}
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing override file for %s: %w", platform, err)
	}
	if p.Platform == "" {
		p.Platform = platform
	}
	return &p, nil
}

func (c *Cache) saveToFile(p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling override: %w", err)
	}

	if err := os.WriteFile(c.filePath(normalizePlatform(p.Platform)), data, 0644); err != nil {
		return fmt.Errorf("writing override file: %w", err)
	}

	return nil
}

func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
