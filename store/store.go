package store

import (
	"context"
	"errors"
	"fmt"

	"helpbot/config"
	"helpbot/model"
	"helpbot/platform"
)

// DefaultListLimit caps ListRecent when the caller passes a non-positive limit.
const DefaultListLimit = 100

// ErrNotFound is returned by FindByID when no message has the given id.
var ErrNotFound = errors.New("message not found")

// MessageStore persists messages. Implementations assign the identifier on
// Insert and list newest first: timestamp descending, then id descending.
type MessageStore interface {
	// Insert stores msg, sets msg.ID and returns it.
	Insert(ctx context.Context, msg *model.Message) (string, error)
	// FindByID looks up a message by its canonical id.
	FindByID(ctx context.Context, id string) (*model.Message, error)
	// ListRecent returns at most limit messages, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Message, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Store) (MessageStore, error) {
	switch cfg.Driver {
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI)
	case "mysql":
		db, err := platform.OpenMySQL(cfg.MySQL)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db)
	case "sqlite":
		db, err := platform.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db)
	case "redis":
		client, err := platform.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client), nil
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
