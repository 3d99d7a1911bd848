package repository

import (
	"CaseLink/entity"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetCase reads the ownership fields of a case. Cases are managed by another service.
func (m *MongoDB) GetCase(ctx context.Context, caseID string) (*entity.Case, error) {
	var c entity.Case
	opts := options.FindOne().SetProjection(bson.D{
		{"title", 1},
		{"created_by", 1},
		{"admin_ids", 1},
		{"sub_consultant_ids", 1},
	})
	err := m.collection(casesCollection).FindOne(ctx, bson.D{{"_id", caseID}}, opts).Decode(&c)
	if err != nil {
		return nil, m.findError(err, "case "+caseID)
	}
	return &c, nil
}
