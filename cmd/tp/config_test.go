package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeja2023/tp/mapview"
)

func TestLoadConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.test.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
url = "https://tp.example.com/api"

[bolt]
store = "/var/lib/tp/tp.db"

[map]
zoom = 9
satellite = "https://tiles.example.com/{z}/{x}/{y}.png"
`), 0o644))

	t.Setenv("TP_TIMEOUT", "5s")

	cfg, err := loadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tp.example.com/api", cfg.API.URL)
	assert.Equal(t, "/var/lib/tp/tp.db", cfg.Bolt.Store)
	assert.Equal(t, "data/tasks.bleve", cfg.Bleve.Store)
	assert.Equal(t, "127.0.0.1:8787", cfg.Serve.Address)

	timeout, err := cfg.timeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	m := cfg.Map.mapview()
	defaults := mapview.DefaultConfig()
	assert.Equal(t, 9, m.Zoom)
	assert.Equal(t, defaults.Center, m.Center)
	assert.Equal(t, "https://tiles.example.com/{z}/{x}/{y}.png", m.Satellite)
	assert.Equal(t, defaults.Standard, m.Standard)
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	t.Setenv("TP_API_URL", "http://10.0.0.1:8000/api")

	cfg, err := loadConfiguration(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.1:8000/api", cfg.API.URL)
	assert.Equal(t, "30s", cfg.API.Timeout)
	assert.Equal(t, "data/tp.db", cfg.Bolt.Store)
}
