//go:build !sqlite && !postgres

package main

import (
	"chathub/internal/auth"
	"chathub/internal/config"
	"chathub/internal/observability"
	"chathub/internal/storage"
)

// selectStores returns in-memory stores when built without a database tag.
// If a DSN is configured, log a hint to rebuild with the matching tag.
func selectStores(logger observability.Logger, cfg *config.Config) appStores {
	if cfg.SQLitePath != "" {
		logger.Warn("sqlite_path set, but binary not built with -tags sqlite; using in-memory stores")
	}
	if cfg.PostgresDSN != "" {
		logger.Warn("postgres_dsn set, but binary not built with -tags postgres; using in-memory stores")
	}
	logger.Info("using in-memory stores")
	return appStores{
		conversations: storage.NewMemoryConversationStore(),
		settings:      storage.NewMemorySettingsStore(),
		users:         auth.NewMemoryUserStore(),
		close:         func() {},
	}
}
