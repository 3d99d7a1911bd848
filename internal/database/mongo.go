package repository

import (
	"CaseLink/entity"
	"CaseLink/internal/config"
	"CaseLink/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	conversationsCollection = "conversations"
	participantsCollection  = "participants"
	messagesCollection      = "messages"
	receiptsCollection      = "read_receipts"
	countersCollection      = "counters"
	phoneMappingsCollection = "phone_mappings"
	casesCollection         = "cases"
	usersCollection         = "users"

	connectTimeout = 10 * time.Second
)

// MongoDB is the persistence store. The client is shared by all requests,
// every call takes the caller's context.
type MongoDB struct {
	client   *mongo.Client
	database string
	log      *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
		log:      logger.With(sl.Module("mongodb")),
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

// findError converts a missing document into entity.ErrNotFound.
func (m *MongoDB) findError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.NotFound(what)
	}
	return fmt.Errorf("mongodb find %s: %w", what, err)
}
