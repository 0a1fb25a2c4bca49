package model

import (
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// TimestampLayout is the ISO-8601 rendering used for Message.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrInvalidID is returned by ParseID for malformed identifiers.
var ErrInvalidID = errors.New("invalid message id")

type Status string

const (
	StatusReceived           Status = "received"
	StatusProcessedByAI      Status = "processed_by_ai"
	StatusAIProcessingFailed Status = "ai_processing_failed"
	StatusAIDisabled         Status = "ai_disabled"
)

// Terminal reports whether s may be persisted.
func (s Status) Terminal() bool {
	switch s {
	case StatusProcessedByAI, StatusAIProcessingFailed, StatusAIDisabled:
		return true
	}
	return false
}

// Message is the persisted unit of user communication.
type Message struct {
	ID         string    `gorm:"primaryKey;type:varchar(24)"`
	Content    string    `gorm:"type:text;not null"`
	UserID     *string   `gorm:"type:varchar(50)"`
	Timestamp  time.Time `gorm:"not null;index"`
	Status     Status    `gorm:"type:varchar(32);not null"`
	AIResponse *string   `gorm:"type:text"`
}

// NewMessage builds a freshly received message stamped with now (UTC,
// millisecond precision).
func NewMessage(content string, userID *string, now time.Time) *Message {
	return &Message{
		Content:   content,
		UserID:    userID,
		Timestamp: now.UTC().Truncate(time.Millisecond),
		Status:    StatusReceived,
	}
}

// BeforeCreate assigns the identifier when the row has none yet.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

type messageJSON struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	UserID     *string `json:"user_id"`
	Timestamp  string  `json:"timestamp"`
	Status     Status  `json:"status"`
	AIResponse *string `json:"ai_response"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		ID:         m.ID,
		Content:    m.Content,
		UserID:     m.UserID,
		Timestamp:  m.Timestamp.UTC().Format(TimestampLayout),
		Status:     m.Status,
		AIResponse: m.AIResponse,
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(TimestampLayout, raw.Timestamp)
	if err != nil {
		return err
	}
	*m = Message{
		ID:         raw.ID,
		Content:    raw.Content,
		UserID:     raw.UserID,
		Timestamp:  ts.UTC(),
		Status:     raw.Status,
		AIResponse: raw.AIResponse,
	}
	return nil
}

// NewID returns a new 24-character hex identifier. Identifiers generated by
// one process sort in creation order.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ParseID validates id and returns its canonical (lowercase) form.
func ParseID(id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return oid.Hex(), nil
}
