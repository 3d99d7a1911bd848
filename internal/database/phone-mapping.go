package repository

import (
	"CaseLink/entity"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertPhoneMapping stores the phone to case route, replacing any previous one.
func (m *MongoDB) UpsertPhoneMapping(ctx context.Context, mapping *entity.PhoneCaseMapping) error {
	_, err := m.collection(phoneMappingsCollection).UpdateOne(ctx,
		bson.D{{"_id", mapping.Phone}},
		bson.D{{"$set", bson.D{
			{"case_id", mapping.CaseID},
			{"updated_at", mapping.UpdatedAt},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb upsert phone mapping: %w", err)
	}
	return nil
}

func (m *MongoDB) GetPhoneMapping(ctx context.Context, phone string) (*entity.PhoneCaseMapping, error) {
	var mapping entity.PhoneCaseMapping
	err := m.collection(phoneMappingsCollection).FindOne(ctx, bson.D{{"_id", phone}}).Decode(&mapping)
	if err != nil {
		return nil, m.findError(err, "phone mapping "+phone)
	}
	return &mapping, nil
}

func (m *MongoDB) ListPhoneMappings(ctx context.Context) ([]entity.PhoneCaseMapping, error) {
	opts := options.Find().SetSort(bson.D{{"updated_at", -1}})
	cursor, err := m.collection(phoneMappingsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find phone mappings: %w", err)
	}
	defer cursor.Close(ctx)

	mappings := make([]entity.PhoneCaseMapping, 0)
	if err = cursor.All(ctx, &mappings); err != nil {
		return nil, fmt.Errorf("mongodb decode phone mappings: %w", err)
	}
	return mappings, nil
}
