package repository

import (
	"CaseLink/entity"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// unreadStages keeps messages of other senders that the user has no receipt for.
// The input documents are messages.
func unreadStages(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{"sender_id", bson.D{{"$ne", userID}}}}}},
		{{Key: "$lookup", Value: bson.D{
			{"from", receiptsCollection},
			{"let", bson.D{{"mid", "$_id"}}},
			{"pipeline", bson.A{
				bson.D{{"$match", bson.D{
					{"user_id", userID},
					{"$expr", bson.D{{"$eq", bson.A{"$message_id", "$$mid"}}}},
				}}},
				bson.D{{"$limit", 1}},
			}},
			{"as", "receipt"},
		}}},
		{{Key: "$match", Value: bson.D{{"receipt", bson.D{{"$size", 0}}}}}},
	}
}

// UnreadCounts returns unread counts for the user in each of the conversations,
// computed by one aggregation. Conversations without unread messages are absent.
func (m *MongoDB) UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{"conversation_id", bson.D{{"$in", conversationIDs}}}}}},
	}
	pipeline = append(pipeline, unreadStages(userID)...)
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{"_id", "$conversation_id"},
		{"count", bson.D{{"$sum", 1}}},
	}}})

	cursor, err := m.collection(messagesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate unread counts: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		ConversationID string `bson:"_id"`
		Count          int64  `bson:"count"`
	}
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("mongodb decode unread counts: %w", err)
	}
	for _, g := range groups {
		counts[g.ConversationID] = g.Count
	}
	return counts, nil
}

// UnreadTotal counts unread messages across all conversations the user participates in.
func (m *MongoDB) UnreadTotal(ctx context.Context, userID string) (int64, error) {
	inner := bson.A{
		bson.D{{"$match", bson.D{{"$expr", bson.D{{"$eq", bson.A{"$conversation_id", "$$cid"}}}}}}},
	}
	for _, stage := range unreadStages(userID) {
		inner = append(inner, stage)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{"user_id", userID}}}},
		{{Key: "$lookup", Value: bson.D{
			{"from", messagesCollection},
			{"let", bson.D{{"cid", "$conversation_id"}}},
			{"pipeline", inner},
			{"as", "unread"},
		}}},
		{{Key: "$group", Value: bson.D{
			{"_id", nil},
			{"total", bson.D{{"$sum", bson.D{{"$size", "$unread"}}}}},
		}}},
	}

	cursor, err := m.collection(participantsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("mongodb aggregate unread total: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int64 `bson:"total"`
	}
	if err = cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("mongodb decode unread total: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// LastMessages returns the newest message of each conversation, computed by one aggregation.
func (m *MongoDB) LastMessages(ctx context.Context, conversationIDs []string) (map[string]entity.LastMessage, error) {
	last := make(map[string]entity.LastMessage, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return last, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{"conversation_id", bson.D{{"$in", conversationIDs}}}}}},
		{{Key: "$sort", Value: bson.D{{"_id", -1}}}},
		{{Key: "$group", Value: bson.D{
			{"_id", "$conversation_id"},
			{"content", bson.D{{"$first", "$content"}}},
			{"created_at", bson.D{{"$first", "$created_at"}}},
		}}},
	}

	cursor, err := m.collection(messagesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate last messages: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []entity.LastMessage
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("mongodb decode last messages: %w", err)
	}
	for _, r := range rows {
		last[r.ConversationID] = r
	}
	return last, nil
}
