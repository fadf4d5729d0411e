package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathGivesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.NoError(t, c.Validate())
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotwarp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project: riverside
store:
  driver: postgres
  postgres:
    host: db.internal
render:
  grid: 16
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "riverside", c.Project)
	assert.Equal(t, DriverPostgres, c.Store.Driver)
	assert.Equal(t, "db.internal", c.Store.Postgres.Host)
	assert.Equal(t, 5432, c.Store.Postgres.Port)
	assert.Equal(t, 16, c.Render.Grid)
	assert.Equal(t, 10.0, c.Render.HandleRadius)
	assert.Contains(t, c.PostgresDSN(), "host=db.internal port=5432")
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotwarp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
project = "hillside"

[assets]
concurrency = 8

[log]
file = "lotwarp.log"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hillside", c.Project)
	assert.Equal(t, 8, c.Assets.Concurrency)
	assert.Equal(t, "lotwarp.log", c.Log.File)
	assert.Equal(t, DriverFile, c.Store.Driver)
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := Default()
	want.Project = "roundtrip"
	want.Store.DSN = "postgres://u@h/db"

	for _, name := range []string{"c.yml", "c.toml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Write(path, want))
		got, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
		assert.Equal(t, "postgres://u@h/db", got.PostgresDSN())
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := Load("settings.ini")
	assert.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, Write("settings.json", Default()), ErrFormat)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Store.Driver = "redis"
	assert.Error(t, c.Validate())

	c = Default()
	c.Render.Grid = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Render.HandleRadius = -1
	assert.Error(t, c.Validate())
}
