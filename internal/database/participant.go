package repository

import (
	"CaseLink/entity"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddParticipant inserts the membership if absent. It reports whether a new member was added.
func (m *MongoDB) AddParticipant(ctx context.Context, p *entity.Participant) (bool, error) {
	res, err := m.collection(participantsCollection).UpdateOne(ctx,
		bson.D{{"conversation_id", p.ConversationID}, {"user_id", p.UserID}},
		bson.D{{"$setOnInsert", bson.D{
			{"role", p.Role},
			{"joined_at", p.JoinedAt},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// concurrent upsert of the same member lost the race on the unique index
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("mongodb upsert participant: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (m *MongoDB) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	err := m.collection(participantsCollection).FindOne(ctx,
		bson.D{{"conversation_id", conversationID}, {"user_id", userID}},
		options.FindOne().SetProjection(bson.D{{"_id", 1}}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongodb find participant: %w", err)
	}
	return true, nil
}

func (m *MongoDB) Participants(ctx context.Context, conversationID string) ([]entity.Participant, error) {
	opts := options.Find().SetSort(bson.D{{"joined_at", 1}})
	cursor, err := m.collection(participantsCollection).Find(ctx, bson.D{{"conversation_id", conversationID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find participants: %w", err)
	}
	defer cursor.Close(ctx)

	participants := make([]entity.Participant, 0)
	if err = cursor.All(ctx, &participants); err != nil {
		return nil, fmt.Errorf("mongodb decode participants: %w", err)
	}
	return participants, nil
}

func (m *MongoDB) TouchParticipant(ctx context.Context, conversationID, userID string, at time.Time) error {
	_, err := m.collection(participantsCollection).UpdateOne(ctx,
		bson.D{{"conversation_id", conversationID}, {"user_id", userID}},
		bson.D{{"$set", bson.D{{"last_seen_at", at}}}},
	)
	if err != nil {
		return fmt.Errorf("mongodb update last seen: %w", err)
	}
	return nil
}
