package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"newsdesk/config"
	"newsdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
name = "TechCrunch"
url = "https://techcrunch.com/feed/"
category = "tech"

[[feeds]]
name = "BBC World"
url = "https://feeds.bbci.co.uk/news/world/rss.xml"
category = "world"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Feeds, 2)
	assert.Equal(t, "TechCrunch", cfg.Feeds[0].Name)
	assert.Equal(t, "tech", cfg.Feeds[0].Category)
	assert.Equal(t, []string{"TechCrunch", "BBC World"}, cfg.Names())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, models.ErrConfigUnavailable)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "broken toml",
			content: `[[feeds] name = "x"`,
		},
		{
			name: "missing name",
			content: `
[[feeds]]
url = "https://example.com/feed"
category = "tech"
`,
		},
		{
			name: "missing url",
			content: `
[[feeds]]
name = "Example"
category = "tech"
`,
		},
		{
			name: "duplicate names",
			content: `
[[feeds]]
name = "Example"
url = "https://example.com/a"

[[feeds]]
name = "Example"
url = "https://example.com/b"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, models.ErrConfigUnavailable)
		})
	}
}
