//go:build !mongo

package main

import (
	"chathub/internal/config"
	"chathub/internal/observability"
	"chathub/internal/storage"
)

// selectMongoConversations is a no-op when built without the 'mongo' tag.
func selectMongoConversations(logger observability.Logger, cfg *config.Config) (storage.ConversationStore, func()) {
	if cfg.MongoURI != "" {
		logger.Warn("mongo_uri set, but binary not built with -tags mongo; conversations stay on the relational store")
	}
	return nil, nil
}
