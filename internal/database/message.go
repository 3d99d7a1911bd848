package repository

import (
	"CaseLink/entity"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCounter = "message_id"

// nextMessageID increments the store-wide message counter. Ids are unique and
// increasing, gaps are possible when an insert fails.
func (m *MongoDB) nextMessageID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.collection(countersCollection).FindOneAndUpdate(ctx,
		bson.D{{"_id", messageCounter}},
		bson.D{{"$inc", bson.D{{"seq", int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongodb next message id: %w", err)
	}
	return counter.Seq, nil
}

// InsertMessage assigns the next id and stores the message.
// A repeated external id yields entity.ErrDuplicate.
func (m *MongoDB) InsertMessage(ctx context.Context, msg *entity.Message) error {
	id, err := m.nextMessageID(ctx)
	if err != nil {
		return err
	}
	msg.ID = id

	_, err = m.collection(messagesCollection).InsertOne(ctx, msg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("message %d: %w", id, entity.ErrDuplicate)
		}
		return fmt.Errorf("mongodb insert message: %w", err)
	}
	return nil
}

func (m *MongoDB) GetMessage(ctx context.Context, id int64) (*entity.Message, error) {
	var msg entity.Message
	err := m.collection(messagesCollection).FindOne(ctx, bson.D{{"_id", id}}).Decode(&msg)
	if err != nil {
		return nil, m.findError(err, fmt.Sprintf("message %d", id))
	}
	return &msg, nil
}

func (m *MongoDB) MessageByExternalID(ctx context.Context, externalID string) (*entity.Message, error) {
	var msg entity.Message
	err := m.collection(messagesCollection).FindOne(ctx, bson.D{{"external_id", externalID}}).Decode(&msg)
	if err != nil {
		return nil, m.findError(err, "message "+externalID)
	}
	return &msg, nil
}

// MessagesBefore returns up to limit messages with id < beforeID, newest first.
// A zero beforeID means no upper bound.
func (m *MongoDB) MessagesBefore(ctx context.Context, conversationID string, beforeID int64, limit int) ([]entity.Message, error) {
	filter := bson.D{{"conversation_id", conversationID}}
	if beforeID > 0 {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{"$lt", beforeID}}})
	}
	opts := options.Find().SetSort(bson.D{{"_id", -1}}).SetLimit(int64(limit))
	return m.findMessages(ctx, filter, opts)
}

// AllMessages returns every message of the conversation in id order.
func (m *MongoDB) AllMessages(ctx context.Context, conversationID string) ([]entity.Message, error) {
	opts := options.Find().SetSort(bson.D{{"_id", 1}})
	return m.findMessages(ctx, bson.D{{"conversation_id", conversationID}}, opts)
}

func (m *MongoDB) findMessages(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]entity.Message, error) {
	cursor, err := m.collection(messagesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]entity.Message, 0)
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("mongodb decode messages: %w", err)
	}
	return messages, nil
}

func (m *MongoDB) SoftDeleteMessage(ctx context.Context, id int64) error {
	res, err := m.collection(messagesCollection).UpdateOne(ctx,
		bson.D{{"_id", id}},
		bson.D{
			{"$set", bson.D{{"content", entity.DeletedPlaceholder}, {"is_deleted", true}}},
			{"$unset", bson.D{{"file_id", ""}, {"file_url", ""}, {"file_name", ""}, {"file_size", ""}, {"file_type", ""}}},
		},
	)
	if err != nil {
		return fmt.Errorf("mongodb soft delete message: %w", err)
	}
	if res.MatchedCount == 0 {
		return entity.NotFound(fmt.Sprintf("message %d", id))
	}
	return nil
}
