package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/internal/sources/autotrade"
	"github.com/agentstation/pricemap/pkg/checkpoint"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
)

func newTestApp(t *testing.T, mutate func(*Config)) *App {
	t.Helper()
	chdir(t)
	config, err := LoadConfig("")
	require.NoError(t, err)
	config.LogOutput = "discard"
	if mutate != nil {
		mutate(config)
	}
	app, err := New("1.2.3", "abc123", "2026-10-19", "test",
		WithConfig(config), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	return app
}

func TestAppNew(t *testing.T) {
	app := newTestApp(t, nil)
	assert.Equal(t, "1.2.3", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2026-10-19", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
	assert.Len(t, app.Tiers().Bands, 26)
}

func TestAppFetcherRequiresAuthKey(t *testing.T) {
	app := newTestApp(t, nil)
	_, err := app.Fetcher()
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
}

func TestAppFetcherSingleton(t *testing.T) {
	app := newTestApp(t, func(c *Config) { c.AuthKey = "secret" })
	f1, err := app.Fetcher()
	require.NoError(t, err)
	f2, err := app.Fetcher()
	require.NoError(t, err)
	assert.Same(t, f1.(*autotrade.Client), f2.(*autotrade.Client))
}

func TestAppCheckpointStoreFile(t *testing.T) {
	app := newTestApp(t, func(c *Config) { c.CheckpointFile = "state/cp.json" })
	store, err := app.CheckpointStore(context.Background())
	require.NoError(t, err)
	fs, ok := store.(*checkpoint.FileStore)
	require.True(t, ok)
	assert.Equal(t, "state/cp.json", fs.Path)
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestAppOptions(t *testing.T) {
	app := newTestApp(t, nil)
	opts, err := app.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	app = newTestApp(t, func(c *Config) { c.WarehousesFile = filepath.Join(t.TempDir(), "missing.yaml") })
	_, err = app.Options()
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
}

func TestAppPaths(t *testing.T) {
	app := newTestApp(t, func(c *Config) {
		c.CatalogFile = "c.xlsx"
		c.ReportFile = "r.xlsx"
	})
	paths := app.Paths()
	assert.Equal(t, "c.xlsx", paths.Catalog)
	assert.Equal(t, "r.xlsx", paths.Report)
	assert.Empty(t, paths.Final)
}

func TestExecuteTiers(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"tiers", "--price", "1050", "-o", "json", "--log-level", "error"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.JSONEq(t, `{"wholesale":"1050","markup":300,"retail":"1350"}`, out.String())
	assert.Equal(t, "json", app.Config().Format)
}

func TestExecuteRejectsInvalidConfig(t *testing.T) {
	app := newTestApp(t, func(c *Config) { c.BatchSize = 100 })
	err := app.Execute(context.Background(), []string{"tiers"})
	require.Error(t, err)
	assert.True(t, errors.IsPrecondition(err))
}

func TestExecuteVersion(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "pricemap 1.2.3")
}
