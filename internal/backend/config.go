package backend

import (
	"fmt"

	"github.com/iamdivyeshtailor/finance-management/internal/config"
	gsheet "github.com/iamdivyeshtailor/finance-management/internal/sheets/google"
)

type Type string

const (
	SQLiteBackend Type = config.BackendSQLite
	MemoryBackend Type = config.BackendMemory
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	return t == SQLiteBackend || t == MemoryBackend
}

// Config selects and configures the data backend.
type Config struct {
	Type Type

	SQLiteDBPath string

	// AMQP publishing is off when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sheets is nil when no spreadsheet is configured.
	Sheets *gsheet.Options
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{
		Type:         t,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}
	if appConfig.AMQPEnabled() {
		cfg.AMQPURL = appConfig.AMQPURL
		cfg.AMQPExchange = appConfig.AMQPExchange
		cfg.AMQPQueue = appConfig.AMQPQueue
	}
	if appConfig.SheetsEnabled() {
		cfg.Sheets = &gsheet.Options{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			ExpensesSheet:   appConfig.GoogleSheetName,
			ReportPrefix:    appConfig.GoogleReportPrefix,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		}
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case MemoryBackend:
		if c.AMQPURL != "" {
			return fmt.Errorf("AMQP sync requires the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}
