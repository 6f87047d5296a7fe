//go:build mongo

// Package mongo provides document-store persistence for conversations via
// the official MongoDB driver.
package mongo

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chathub/internal/storage"
)

const defaultDatabase = "chathub"

// Store implements storage.ConversationStore backed by MongoDB.
// User and settings records stay in the relational store; only the chat
// documents live here.
type Store struct {
	client        *mongo.Client
	conversations *mongo.Collection
	messages      *mongo.Collection
}

var _ storage.ConversationStore = (*Store)(nil)

// New connects to the MongoDB deployment at uri and ensures the indexes the
// read and upsert paths rely on. The database name is taken from the URI
// path, falling back to "chathub".
func New(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storage.WrapUnavailable("connect mongodb", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storage.WrapUnavailable("ping mongodb", err)
	}

	db := client.Database(databaseName(uri))
	s := &Store{
		client:        client,
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return s, nil
}

// Close disconnects from the deployment.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return storage.WrapUnavailable("ping", s.client.Ping(ctx, nil))
}

// ensureIndexes creates the indexes backing the upsert and the two read
// patterns. The unique (user_id, session_id) index is what makes the
// conversation upsert safe under concurrency.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "timestamp", Value: 1}}},
	})
	return err
}

func databaseName(uri string) string {
	// mongodb://host:port/dbname?opts
	trimmed := uri
	if i := strings.Index(trimmed, "?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		if name := trimmed[i+1:]; name != "" && !strings.Contains(name, ":") {
			return name
		}
	}
	return defaultDatabase
}
