package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamdivyeshtailor/finance-management/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:         config.BackendSQLite,
		SQLiteDBPath:        "./data/budget.db",
		AMQPExchange:        "budget",
		AMQPQueue:           "sync_expenses",
		GoogleSpreadsheetID: "sheet-1",
		GoogleSheetName:     "Expenses",
		GoogleReportPrefix:  "Report",
	}

	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Empty(t, cfg.AMQPURL, "AMQP stays off without a URL")
	require.NotNil(t, cfg.Sheets)
	assert.Equal(t, "sheet-1", cfg.Sheets.SpreadsheetID)

	app.DataBackend = "postgres"
	_, err = FromAppConfig(app)
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: MemoryBackend, AMQPURL: "amqp://localhost"}.Validate())
	assert.Error(t, Config{Type: "sheets"}.Validate())
}

func TestFactoryOpen(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	mem, err := f.Open(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Nil(t, mem.Sync)
	assert.Nil(t, mem.Publisher)
	assert.NoError(t, mem.Ping(ctx))
	assert.NoError(t, mem.Close())

	db, err := f.Open(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "budget.db")})
	require.NoError(t, err)
	assert.NotNil(t, db.Sync)
	assert.Nil(t, db.AMQP())
	assert.NoError(t, db.Ping(ctx))
	assert.NoError(t, db.Close())
}

func TestOpenSheetsDisabled(t *testing.T) {
	cli, err := OpenSheets(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Nil(t, cli)
}
