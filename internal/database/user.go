package repository

import (
	"CaseLink/entity"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

func (m *MongoDB) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	var user entity.User
	err := m.collection(usersCollection).FindOne(ctx, bson.D{{"_id", userID}}).Decode(&user)
	if err != nil {
		return nil, m.findError(err, "user "+userID)
	}
	return &user, nil
}

// GetUsers resolves the ids present in the directory; unknown ids are absent from the result.
func (m *MongoDB) GetUsers(ctx context.Context, userIDs []string) (map[string]*entity.User, error) {
	users := make(map[string]*entity.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	cursor, err := m.collection(usersCollection).Find(ctx, bson.D{{"_id", bson.D{{"$in", userIDs}}}})
	if err != nil {
		return nil, fmt.Errorf("mongodb find users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var u entity.User
		if err := cursor.Decode(&u); err != nil {
			m.log.Warn("decode user", "error", err.Error())
			continue
		}
		users[u.ID] = &u
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongodb iterate users: %w", err)
	}
	return users, nil
}
