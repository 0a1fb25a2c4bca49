package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"helpbot/model"
)

const (
	defaultMongoDatabase = "helpbot"
	messagesCollection   = "messages"
)

type messageDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	Content    string             `bson:"content"`
	UserID     *string            `bson:"user_id"`
	Timestamp  time.Time          `bson:"timestamp"`
	Status     string             `bson:"status"`
	AIResponse *string            `bson:"ai_response"`
}

func (d messageDocument) toModel() model.Message {
	return model.Message{
		ID:         d.ID.Hex(),
		Content:    d.Content,
		UserID:     d.UserID,
		Timestamp:  d.Timestamp.UTC(),
		Status:     model.Status(d.Status),
		AIResponse: d.AIResponse,
	}
}

// MongoStore keeps messages in the "messages" collection of the database
// named in the connection URI.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and ensures the timestamp index exists.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongo uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(dbName).Collection(messagesCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create timestamp index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Insert(ctx context.Context, msg *model.Message) (string, error) {
	doc := messageDocument{
		ID:         primitive.NewObjectID(),
		Content:    msg.Content,
		UserID:     msg.UserID,
		Timestamp:  msg.Timestamp,
		Status:     string(msg.Status),
		AIResponse: msg.AIResponse,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}
	msg.ID = doc.ID.Hex()
	return msg.ID, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc messageDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message %s: %w", id, err)
	}
	msg := doc.toModel()
	return &msg, nil
}

func (s *MongoStore) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]model.Message, 0, len(docs))
	for _, d := range docs {
		messages = append(messages, d.toModel())
	}
	return messages, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
