package config

import (
	"fmt"
	"os"

	"newsdesk/models"

	"github.com/BurntSushi/toml"
)

// Feed represents a single feed entry from TOML
type Feed struct {
	Name     string `toml:"name"`
	URL      string `toml:"url"`
	Category string `toml:"category"`
}

// Config represents the top-level feeds configuration
type Config struct {
	Feeds []Feed `toml:"feeds"`
}

// Names returns the configured source names in file order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Feeds))
	for _, feed := range c.Feeds {
		names = append(names, feed.Name)
	}
	return names
}

// LoadConfig reads and validates the feeds configuration. The file is
// re-read on every call; callers should not cache the result across
// reconciliations.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", models.ErrConfigUnavailable, path, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", models.ErrConfigUnavailable, path, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfigUnavailable, err)
	}

	return &config, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Feeds))
	for i, feed := range c.Feeds {
		if feed.Name == "" {
			return fmt.Errorf("feed %d has no name", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("feed %q has no url", feed.Name)
		}
		if seen[feed.Name] {
			return fmt.Errorf("duplicate feed name %q", feed.Name)
		}
		seen[feed.Name] = true
	}
	return nil
}
