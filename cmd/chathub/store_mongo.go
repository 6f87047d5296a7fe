//go:build mongo

package main

import (
	"context"
	"time"

	"chathub/internal/config"
	"chathub/internal/observability"
	"chathub/internal/storage"
	mongostore "chathub/internal/storage/mongo"
)

// selectMongoConversations returns a MongoDB-backed conversation store when
// mongo_uri is configured. Users and settings are unaffected; only the chat
// documents move.
func selectMongoConversations(logger observability.Logger, cfg *config.Config) (storage.ConversationStore, func()) {
	if cfg.MongoURI == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := mongostore.New(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("mongodb init failed; conversations stay on the relational store", "error", err)
		return nil, nil
	}
	logger.Info("using mongodb conversation store")
	return st, func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Error("error closing mongodb store", "error", err)
		}
	}
}
