//go:build sqlite && !postgres

package main

import (
	"chathub/internal/auth"
	"chathub/internal/config"
	"chathub/internal/observability"
	"chathub/internal/storage"
	sqlitestore "chathub/internal/storage/sqlite"
)

// selectStores returns SQLite-backed stores when built with the 'sqlite' tag.
// Conversations, settings and users share one database file.
func selectStores(logger observability.Logger, cfg *config.Config) appStores {
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
