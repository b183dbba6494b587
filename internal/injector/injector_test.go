package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/pkg/value"
)

func TestInitializeApp(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ppersist.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("decode:\n  max_depth: 8\n"), 0o600))

	app, err := InitializeApp(ConfigPath(cfgPath), "error")
	require.NoError(t, err)
	assert.Equal(t, 8, app.Config.Decode.MaxDepth)
	assert.Equal(t, log.LevelError, app.Logger.GetLevel())

	var nested any = 1
	for i := 0; i < 10; i++ {
		nested = []any{nested}
	}
	path := filepath.Join(dir, "deep.pp")
	require.NoError(t, app.Persister.Save(path, value.BundleOf("deep", nested)))

	_, err = app.Persister.Load(path)
	assert.Error(t, err, "max_depth from the config file applies")
}

func TestInitializeApp_BadLevel(t *testing.T) {
	_, err := InitializeApp("", "shouty")
	assert.Error(t, err)
}
