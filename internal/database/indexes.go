package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		participantsCollection: {
			{
				Keys:    bson.D{{"conversation_id", 1}, {"user_id", 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{"user_id", 1}}},
		},
		receiptsCollection: {
			{
				Keys:    bson.D{{"message_id", 1}, {"user_id", 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{"user_id", 1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{"conversation_id", 1}, {"_id", -1}}},
			{
				Keys: bson.D{{"external_id", 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{"external_id", bson.D{{"$exists", true}}}}),
			},
			{Keys: bson.D{{"created_at", 1}}},
		},
		conversationsCollection: {
			{Keys: bson.D{{"case_id", 1}, {"updated_at", -1}}},
			{Keys: bson.D{{"case_id", 1}, {"external_phone", 1}}},
			{Keys: bson.D{{"status", 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := m.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb create indexes on %s: %w", name, err)
		}
	}
	return nil
}
