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

// UpsertReceipts records that the user read the messages. Existing receipts keep their read_at.
func (m *MongoDB) UpsertReceipts(ctx context.Context, userID string, messageIDs []int64, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(messageIDs))
	for _, id := range messageIDs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{"message_id", id}, {"user_id", userID}}).
			SetUpdate(bson.D{{"$setOnInsert", bson.D{{"read_at", at}}}}).
			SetUpsert(true))
	}

	_, err := m.collection(receiptsCollection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return fmt.Errorf("mongodb upsert receipts: %w", err)
	}
	return nil
}

// ReadMessageIDs returns the subset of messageIDs the user already has receipts for.
func (m *MongoDB) ReadMessageIDs(ctx context.Context, userID string, messageIDs []int64) (map[int64]bool, error) {
	read := make(map[int64]bool, len(messageIDs))
	if len(messageIDs) == 0 {
		return read, nil
	}

	cursor, err := m.collection(receiptsCollection).Find(ctx,
		bson.D{{"user_id", userID}, {"message_id", bson.D{{"$in", messageIDs}}}},
		options.Find().SetProjection(bson.D{{"message_id", 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongodb find receipts: %w", err)
	}
	defer cursor.Close(ctx)

	var receipts []entity.ReadReceipt
	if err = cursor.All(ctx, &receipts); err != nil {
		return nil, fmt.Errorf("mongodb decode receipts: %w", err)
	}
	for _, r := range receipts {
		read[r.MessageID] = true
	}
	return read, nil
}

// onlyDuplicates reports whether a bulk write failed solely on unique index
// collisions, which for receipts means another request stored them first.
func onlyDuplicates(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return mongo.IsDuplicateKeyError(err)
	}
	if bwe.WriteConcernError != nil {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}
