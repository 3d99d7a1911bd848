// Package presence keeps a shared registry of users with live sockets in Redis,
// so every instance sees the same online state.
package presence

import (
	"CaseLink/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "caselink:presence:"
	// keys expire when an instance dies without decrementing
	keyTTL = 2 * time.Minute
)

type Service struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewPresenceService(rdb *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		rdb: rdb,
		log: logger.With(sl.Module("presence")),
	}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Connect counts a new socket of the user.
func (s *Service) Connect(ctx context.Context, userID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key(userID))
	pipe.Expire(ctx, key(userID), keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence connect: %w", err)
	}
	return nil
}

// Refresh extends the registration while the socket is alive.
func (s *Service) Refresh(ctx context.Context, userID string) error {
	if err := s.rdb.Expire(ctx, key(userID), keyTTL).Err(); err != nil {
		return fmt.Errorf("presence refresh: %w", err)
	}
	return nil
}

// Disconnect removes one socket of the user.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	n, err := s.rdb.Decr(ctx, key(userID)).Result()
	if err != nil {
		return fmt.Errorf("presence disconnect: %w", err)
	}
	if n <= 0 {
		if err = s.rdb.Del(ctx, key(userID)).Err(); err != nil {
			return fmt.Errorf("presence cleanup: %w", err)
		}
	}
	return nil
}

// Online reports which of the users have at least one live socket.
func (s *Service) Online(ctx context.Context, userIDs []string) (map[string]bool, error) {
	online := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("presence lookup: %w", err)
	}
	for i, v := range values {
		if v != nil {
			online[userIDs[i]] = true
		}
	}
	return online, nil
}
