//go:build mongo

package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chathub/internal/domain"
	"chathub/internal/storage"
)

// conversationDoc is the persisted conversation shape. Field names are the
// durable contract and must stay stable across implementations.
type conversationDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	SessionID string    `bson:"session_id"`
	Title     string    `bson:"title"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type messageDoc struct {
	ID             string    `bson:"_id,omitempty"`
	ConversationID string    `bson:"conversation_id"`
	UserID         string    `bson:"user_id"`
	Content        string    `bson:"content"`
	Role           string    `bson:"role"`
	Service        string    `bson:"service"`
	Model          string    `bson:"model"`
	Timestamp      time.Time `bson:"timestamp"`
}

// SaveMessage upserts the conversation for (userID, sessionID) in a single
// FindOneAndUpdate, then appends the message. $setOnInsert carries the
// creation-only fields, so a concurrent first write cannot clobber the title
// or create a second document.
func (s *Store) SaveMessage(ctx context.Context, userID, sessionID string, msg domain.Message) (string, error) {
	msg, err := storage.ValidateSaveMessage(userID, sessionID, msg)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "session_id", Value: sessionID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: uuid.New().String()},
			{Key: "title", Value: domain.ConversationTitle(msg.Content)},
			{Key: "created_at", Value: now},
		}},
	}

	var conv conversationDoc
	err = s.conversations.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&conv)
	if err != nil {
		return "", storage.WrapUnavailable("upsert conversation", err)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	doc := messageDoc{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		UserID:         userID,
		Content:        msg.Content,
		Role:           msg.Role,
		Service:        msg.Service,
		Model:          msg.Model,
		Timestamp:      msg.Timestamp.UTC(),
	}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return "", storage.WrapUnavailable("insert message", err)
	}
	return doc.ID, nil
}

// ConversationMessages returns all messages of a conversation sorted by
// timestamp ascending, with the document identifier projected out.
func (s *Store) ConversationMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	cursor, err := s.messages.Find(ctx,
		bson.D{{Key: "conversation_id", Value: conversationID}},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: 1}}).
			SetProjection(bson.D{{Key: "_id", Value: 0}}),
	)
	if err != nil {
		return nil, storage.WrapUnavailable("query messages", err)
	}
	defer cursor.Close(ctx)

	messages := []domain.Message{}
	for cursor.Next(ctx) {
		var doc messageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		messages = append(messages, domain.Message{
			ConversationID: doc.ConversationID,
			UserID:         doc.UserID,
			Content:        doc.Content,
			Role:           doc.Role,
			Service:        doc.Service,
			Model:          doc.Model,
			Timestamp:      doc.Timestamp,
		})
	}
	return messages, storage.WrapUnavailable("iterate messages", cursor.Err())
}

// UserConversations returns conversation summaries for a user sorted by
// updated_at descending with page-offset semantics.
func (s *Store) UserConversations(ctx context.Context, userID string, limit, skip int) ([]domain.ConversationSummary, error) {
	if err := storage.ValidatePage(limit, skip); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.ConversationSummary{}, nil
	}

	cursor, err := s.conversations.Find(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.Find().
			SetSort(bson.D{{Key: "updated_at", Value: -1}}).
			SetSkip(int64(skip)).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, storage.WrapUnavailable("query conversations", err)
	}
	defer cursor.Close(ctx)

	result := []domain.ConversationSummary{}
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, domain.ConversationSummary{
			ID:        doc.ID,
			Title:     doc.Title,
			SessionID: doc.SessionID,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return result, storage.WrapUnavailable("iterate conversations", cursor.Err())
}

// SessionConversation looks up the conversation for an exact pair.
// Returns nil, nil when no match exists.
func (s *Store) SessionConversation(ctx context.Context, userID, sessionID string) (*domain.ConversationSummary, error) {
	var doc conversationDoc
	err := s.conversations.FindOne(ctx,
		bson.D{{Key: "user_id", Value: userID}, {Key: "session_id", Value: sessionID}},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storage.WrapUnavailable("query conversation", err)
	}
	return &domain.ConversationSummary{
		ID:        doc.ID,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
