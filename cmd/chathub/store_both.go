//go:build sqlite && postgres

package main

import (
	"chathub/internal/auth"
	"chathub/internal/config"
	"chathub/internal/observability"
	"chathub/internal/storage"
	pgstore "chathub/internal/storage/postgres"
	sqlitestore "chathub/internal/storage/sqlite"
)

// selectStores picks PostgreSQL if postgres_dsn is set, otherwise SQLite.
func selectStores(logger observability.Logger, cfg *config.Config) appStores {
	if cfg.PostgresDSN != "" {
		st, err := pgstore.New(cfg.PostgresDSN)
		if err != nil {
			logger.Error("postgres init failed; falling back to sqlite", "error", err)
		} else {
			logger.Info("using postgres stores")
			return appStores{
				conversations: st,
				settings:      st,
				users:         auth.NewPostgresUserStoreFromPool(st.Pool()),
				close: func() {
					if err := st.Close(); err != nil {
						logger.Error("error closing postgres store", "error", err)
					}
				},
			}
		}
	}

	dsn := cfg.SQLitePath
	if dsn == "" {
		dsn = "file:chathub.db?cache=shared"
	}
	st, err := sqlitestore.New(dsn)
	if err != nil {
		logger.Error("sqlite init failed; falling back to in-memory stores", "error", err)
		return appStores{
			conversations: storage.NewMemoryConversationStore(),
			settings:      storage.NewMemorySettingsStore(),
			users:         auth.NewMemoryUserStore(),
			close:         func() {},
		}
	}
	logger.Info("using sqlite stores", "dsn", dsn)
	return appStores{
		conversations: st,
		settings:      st,
		users:         auth.NewSQLiteUserStoreFromDB(st.DB()),
		close: func() {
			if err := st.Close(); err != nil {
				logger.Error("error closing sqlite store", "error", err)
			}
		},
	}
}
