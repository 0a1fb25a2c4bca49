package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"helpbot/model"
)

const messagesIndexKey = "helpbot:messages"

type messageInternal struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	UserID     *string      `json:"user_id"`
	Timestamp  int64        `json:"ts"` // Unix ms
	Status     model.Status `json:"status"`
	AIResponse *string      `json:"ai_response"`
}

// RedisStore keeps each message as a JSON string under its own key and
// indexes ids in a sorted set scored by timestamp.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func messageKey(id string) string {
	return fmt.Sprintf("helpbot:message:%s", id)
}

func (s *RedisStore) Insert(ctx context.Context, msg *model.Message) (string, error) {
	id := model.NewID()
	data, err := json.Marshal(messageInternal{
		ID:         id,
		Content:    msg.Content,
		UserID:     msg.UserID,
		Timestamp:  msg.Timestamp.UnixMilli(),
		Status:     msg.Status,
		AIResponse: msg.AIResponse,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, messageKey(id), data, 0)
		pipe.ZAdd(ctx, messagesIndexKey, redis.Z{
			Score:  float64(msg.Timestamp.UnixMilli()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to save message %s: %w", id, err)
	}
	msg.ID = id
	return id, nil
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*model.Message, error) {
	raw, err := s.rdb.Get(ctx, messageKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	msg, err := decodeMessage(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", id, err)
	}
	return msg, nil
}

func (s *RedisStore) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	limit = normalizeLimit(limit)

	// equal scores come back in descending member order, i.e. newest id first
	ids, err := s.rdb.ZRevRange(ctx, messagesIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read message index: %w", err)
	}
	messages := make([]model.Message, 0, len(ids))
	if len(ids) == 0 {
		return messages, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = messageKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		msg, err := decodeMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %s: %w", ids[i], err)
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func decodeMessage(raw string) (*model.Message, error) {
	var in messageInternal
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, err
	}
	return &model.Message{
		ID:         in.ID,
		Content:    in.Content,
		UserID:     in.UserID,
		Timestamp:  time.UnixMilli(in.Timestamp).UTC(),
		Status:     in.Status,
		AIResponse: in.AIResponse,
	}, nil
}
