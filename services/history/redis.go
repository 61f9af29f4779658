package history

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"sjsage522/dealwatcher/logger"
	"sjsage522/dealwatcher/pkg/errors"
)

// RedisStore keeps the history in a Redis hash, one field per link
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
	}
}

// Load reads the hash. Errors and unparsable fields are logged and skipped.
func (s *RedisStore) Load(ctx context.Context) (*History, error) {
	log := logger.ForHistory()

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Failed to read history, starting empty")
		return New(nil), nil
	}

	prices := make(map[string]float64, len(fields))
	for link, raw := range fields {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Warn().Str("link", link).Str("value", raw).Msg("Skipping unparsable history entry")
			continue
		}
		prices[link] = p
	}

	return New(prices), nil
}

// Save writes every entry of the history into the hash
func (s *RedisStore) Save(ctx context.Context, h *History) error {
	snapshot := h.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(snapshot))
	for link, p := range snapshot {
		values[link] = strconv.FormatFloat(p, 'f', -1, 64)
	}

	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return errors.NewHistory("redis", "failed to save history", err)
	}
	return nil
}
