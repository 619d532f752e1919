package multiworld

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DefaultWorldID string      `yaml:"default_world_id"`
	Worlds         []WorldSpec `yaml:"worlds"`
}

type WorldSpec struct {
	ID         string `yaml:"id"`
	SeedOffset int64  `yaml:"seed_offset"`
	Enabled    bool   `yaml:"enabled"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	// Worlds in the file replace the defaults entirely.
	cfg.Worlds = nil
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		DefaultWorldID: "overworld",
		Worlds: []WorldSpec{
			{ID: "overworld", SeedOffset: 0, Enabled: true},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	for i := range c.Worlds {
		c.Worlds[i].ID = strings.TrimSpace(c.Worlds[i].ID)
	}
	c.DefaultWorldID = strings.TrimSpace(c.DefaultWorldID)
	if c.DefaultWorldID == "" {
		for _, w := range c.Worlds {
			if w.Enabled {
				c.DefaultWorldID = w.ID
				break
			}
		}
	}
}

func (c Config) Validate() error {
	if len(c.Worlds) == 0 {
		return fmt.Errorf("worlds must not be empty")
	}
	seen := map[string]bool{}
	enabled := 0
	for _, w := range c.Worlds {
		if w.ID == "" {
			return fmt.Errorf("world id must not be empty")
		}
		if strings.ContainsAny(w.ID, "@, ") {
			return fmt.Errorf("world id %q must not contain '@', ',' or spaces", w.ID)
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate world id: %s", w.ID)
		}
		seen[w.ID] = true
		if w.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one world must be enabled")
	}
	if c.DefaultWorldID == "" {
		return fmt.Errorf("default_world_id must not be empty")
	}
	spec, ok := c.WorldSpecByID(c.DefaultWorldID)
	if !ok {
		return fmt.Errorf("default_world_id %q not found in worlds", c.DefaultWorldID)
	}
	if !spec.Enabled {
		return fmt.Errorf("default_world_id %q is disabled", c.DefaultWorldID)
	}
	return nil
}

func (c Config) WorldSpecByID(id string) (WorldSpec, bool) {
	for _, w := range c.Worlds {
		if w.ID == id {
			return w, true
		}
	}
	return WorldSpec{}, false
}

// EnabledWorlds returns the enabled specs in file order.
func (c Config) EnabledWorlds() []WorldSpec {
	var out []WorldSpec
	for _, w := range c.Worlds {
		if w.Enabled {
			out = append(out, w)
		}
	}
	return out
}
