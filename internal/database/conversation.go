package repository

import (
	"CaseLink/entity"
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activityStages orders conversations by coalesce(last_message_at, created_at), newest first.
var activityStages = mongo.Pipeline{
	{{Key: "$addFields", Value: bson.D{
		{"activity", bson.D{{"$ifNull", bson.A{"$last_message_at", "$created_at"}}}},
	}}},
	{{Key: "$sort", Value: bson.D{{"activity", -1}, {"_id", 1}}}},
	{{Key: "$project", Value: bson.D{{"activity", 0}}}},
}

func (m *MongoDB) CreateConversation(ctx context.Context, conv *entity.Conversation) error {
	_, err := m.collection(conversationsCollection).InsertOne(ctx, conv)
	if err != nil {
		return fmt.Errorf("mongodb insert conversation: %w", err)
	}
	return nil
}

func (m *MongoDB) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := m.collection(conversationsCollection).FindOne(ctx, bson.D{{"_id", id}}).Decode(&conv)
	if err != nil {
		return nil, m.findError(err, "conversation "+id)
	}
	return &conv, nil
}

func (m *MongoDB) updateConversation(ctx context.Context, id string, set bson.D) error {
	res, err := m.collection(conversationsCollection).UpdateOne(ctx,
		bson.D{{"_id", id}},
		bson.D{{"$set", set}},
	)
	if err != nil {
		return fmt.Errorf("mongodb update conversation: %w", err)
	}
	if res.MatchedCount == 0 {
		return entity.NotFound("conversation " + id)
	}
	return nil
}

func (m *MongoDB) SetConversationStatus(ctx context.Context, id string, status entity.ConversationStatus, at time.Time) error {
	return m.updateConversation(ctx, id, bson.D{{"status", status}, {"updated_at", at}})
}

func (m *MongoDB) SetConversationPriority(ctx context.Context, id string, priority entity.Priority, at time.Time) error {
	return m.updateConversation(ctx, id, bson.D{{"priority", priority}, {"updated_at", at}})
}

// TouchConversation records a new message at the given time.
func (m *MongoDB) TouchConversation(ctx context.Context, id string, at time.Time) error {
	return m.updateConversation(ctx, id, bson.D{{"last_message_at", at}, {"updated_at", at}})
}

func (m *MongoDB) conversations(ctx context.Context, coll string, pipeline mongo.Pipeline) ([]entity.Conversation, error) {
	cursor, err := m.collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate conversations: %w", err)
	}
	defer cursor.Close(ctx)

	convs := make([]entity.Conversation, 0)
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("mongodb decode conversations: %w", err)
	}
	return convs, nil
}

// ConversationsByCase returns all conversations of a case, most recently active first.
func (m *MongoDB) ConversationsByCase(ctx context.Context, caseID string) ([]entity.Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{"case_id", caseID}}}},
	}
	pipeline = append(pipeline, activityStages...)
	return m.conversations(ctx, conversationsCollection, pipeline)
}

// ConversationsByUser returns the conversations the user participates in, most recently active first.
func (m *MongoDB) ConversationsByUser(ctx context.Context, userID string, limit int) ([]entity.Conversation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{"user_id", userID}}}},
		{{Key: "$lookup", Value: bson.D{
			{"from", conversationsCollection},
			{"localField", "conversation_id"},
			{"foreignField", "_id"},
			{"as", "conversation"},
		}}},
		{{Key: "$unwind", Value: "$conversation"}},
		{{Key: "$replaceRoot", Value: bson.D{{"newRoot", "$conversation"}}}},
	}
	pipeline = append(pipeline, activityStages...)
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return m.conversations(ctx, participantsCollection, pipeline)
}

// ConversationByPhone returns the conversation of a case bridged to the phone number.
func (m *MongoDB) ConversationByPhone(ctx context.Context, caseID, phone string) (*entity.Conversation, error) {
	var conv entity.Conversation
	filter := bson.D{{"case_id", caseID}, {"external_phone", phone}}
	opts := options.FindOne().SetSort(bson.D{{"created_at", 1}})
	err := m.collection(conversationsCollection).FindOne(ctx, filter, opts).Decode(&conv)
	if err != nil {
		return nil, m.findError(err, "conversation for phone "+phone)
	}
	return &conv, nil
}

// SearchConversations matches the title or any message content, case-insensitive,
// among the conversations the user participates in.
func (m *MongoDB) SearchConversations(ctx context.Context, userID, query string, limit int) ([]entity.Conversation, error) {
	ids, err := m.collection(participantsCollection).Distinct(ctx, "conversation_id", bson.D{{"user_id", userID}})
	if err != nil {
		return nil, fmt.Errorf("mongodb distinct user conversations: %w", err)
	}
	if len(ids) == 0 {
		return []entity.Conversation{}, nil
	}

	pattern := primitiveRegex(query)
	matched, err := m.collection(messagesCollection).Distinct(ctx, "conversation_id", bson.D{
		{"conversation_id", bson.D{{"$in", ids}}},
		{"is_deleted", false},
		{"content", pattern},
	})
	if err != nil {
		return nil, fmt.Errorf("mongodb distinct message matches: %w", err)
	}
	if matched == nil {
		matched = bson.A{}
	}

	filter := bson.D{
		{"_id", bson.D{{"$in", ids}}},
		{"$or", bson.A{
			bson.D{{"title", pattern}},
			bson.D{{"_id", bson.D{{"$in", matched}}}},
		}},
	}
	opts := options.Find().SetSort(bson.D{{"updated_at", -1}}).SetLimit(int64(limit))
	cursor, err := m.collection(conversationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb search conversations: %w", err)
	}
	defer cursor.Close(ctx)

	convs := make([]entity.Conversation, 0)
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("mongodb decode conversations: %w", err)
	}
	return convs, nil
}

// AllConversations returns one page of all conversations, newest first, and the total count.
func (m *MongoDB) AllConversations(ctx context.Context, skip, limit int) ([]entity.Conversation, int64, error) {
	coll := m.collection(conversationsCollection)
	total, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb count conversations: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{"created_at", -1}, {"_id", 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb find conversations: %w", err)
	}
	defer cursor.Close(ctx)

	convs := make([]entity.Conversation, 0)
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, 0, fmt.Errorf("mongodb decode conversations: %w", err)
	}
	return convs, total, nil
}

func (m *MongoDB) ConversationStats(ctx context.Context, since time.Time) (*entity.ConversationStats, error) {
	cursor, err := m.collection(conversationsCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{"_id", "$status"},
			{"count", bson.D{{"$sum", 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate status counts: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status entity.ConversationStatus `bson:"_id"`
		Count  int64                     `bson:"count"`
	}
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("mongodb decode status counts: %w", err)
	}

	stats := &entity.ConversationStats{}
	for _, g := range groups {
		switch g.Status {
		case entity.StatusActive:
			stats.Active = g.Count
		case entity.StatusResolved:
			stats.Resolved = g.Count
		case entity.StatusArchived:
			stats.Archived = g.Count
		}
	}

	stats.MessagesToday, err = m.collection(messagesCollection).CountDocuments(ctx,
		bson.D{{"created_at", bson.D{{"$gte", since}}}})
	if err != nil {
		return nil, fmt.Errorf("mongodb count messages: %w", err)
	}
	return stats, nil
}

func primitiveRegex(query string) bson.D {
	return bson.D{{"$regex", regexp.QuoteMeta(query)}, {"$options", "i"}}
}
