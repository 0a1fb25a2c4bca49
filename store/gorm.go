package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"helpbot/model"
)

// GormStore keeps messages in a SQL database (MySQL or SQLite).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and wraps db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := model.InstallDB(db); err != nil {
		return nil, fmt.Errorf("migrate messages: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Insert(ctx context.Context, msg *model.Message) (string, error) {
	msg.ID = ""
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}
	return msg.ID, nil
}

func (s *GormStore) FindByID(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	msg.Timestamp = msg.Timestamp.UTC()
	return &msg, nil
}

func (s *GormStore) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Limit(normalizeLimit(limit)).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	for i := range messages {
		messages[i].Timestamp = messages[i].Timestamp.UTC()
	}
	return messages, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
