// Package mongodb is the document store: safety tips and emergency messages
// kept in MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yeogiro/internal/config"
	"yeogiro/internal/store"
	"yeogiro/pkg/contracts/domain"
)

// Collection names.
const (
	TipsCollection     = "tips"
	MessagesCollection = "messages"
)

// Message listing bounds.
const (
	DefaultMessageLimit = 20
	MaxMessageLimit     = 200
)

var (
	// ErrConnect wraps connection establishment failures.
	ErrConnect = errors.New("mongo connect failed")
	// ErrPing wraps connectivity probe failures.
	ErrPing = errors.New("mongo ping failed")
)

// Option customizes the driver calls, primarily for tests.
type Option func(*clientDeps)

type clientDeps struct {
	connect     func(context.Context, *options.ClientOptions) (*mongo.Client, error)
	ping        func(context.Context, *mongo.Client) error
	disconnect  func(context.Context, *mongo.Client) error
	createIndex func(context.Context, *mongo.Client, string, string, mongo.IndexModel) error
}

func defaultDeps() clientDeps {
	return clientDeps{
		connect: func(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
			return mongo.Connect(ctx, opts)
		},
		ping: func(ctx context.Context, client *mongo.Client) error {
			return client.Ping(ctx, nil)
		},
		disconnect: func(ctx context.Context, client *mongo.Client) error {
			return client.Disconnect(ctx)
		},
		createIndex: func(ctx context.Context, client *mongo.Client, database, collection string, index mongo.IndexModel) error {
			_, err := client.Database(database).Collection(collection).Indexes().CreateOne(ctx, index)
			return err
		},
	}
}

// Store is the MongoDB-backed document store.
type Store struct {
	store.Lifecycle

	cfg    config.MongoStoreConfig
	logger *slog.Logger
	deps   clientDeps
	client *mongo.Client
	now    func() time.Time
}

// New creates an unopened document store.
func New(cfg config.MongoStoreConfig, logger *slog.Logger, opts ...Option) *Store {
	deps := defaultDeps()
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	return &Store{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "mongodb")),
		deps:   deps,
		now:    time.Now,
	}
}

// Kind implements store.Handle.
func (s *Store) Kind() store.Kind { return store.DocumentStore }

// Open connects, pings and ensures the message index.
func (s *Store) Open(ctx context.Context) error {
	return s.Lifecycle.Open(func() error {
		if strings.TrimSpace(s.cfg.URI) == "" || strings.TrimSpace(s.cfg.Database) == "" {
			return errors.New("mongo uri and database are required")
		}

		clientOpts := options.Client().ApplyURI(s.cfg.URI)
		if s.cfg.MaxPoolSize > 0 {
			clientOpts.SetMaxPoolSize(s.cfg.MaxPoolSize)
		}
		if s.cfg.ServerSelectionTimeout > 0 {
			clientOpts.SetServerSelectionTimeout(s.cfg.ServerSelectionTimeout)
		}

		client, err := s.deps.connect(ctx, clientOpts)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConnect, err)
		}
		if client == nil {
			return fmt.Errorf("%w: driver returned nil client", ErrConnect)
		}

		if err := s.deps.ping(ctx, client); err != nil {
			if derr := s.deps.disconnect(context.WithoutCancel(ctx), client); derr != nil {
				s.logger.WarnContext(ctx, "disconnect after failed ping", slog.String("error", derr.Error()))
			}
			return fmt.Errorf("%w: %w", ErrPing, err)
		}

		index := mongo.IndexModel{
			Keys:    bson.D{{Key: "region", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("region_created_at"),
		}
		if err := s.deps.createIndex(ctx, client, s.cfg.Database, MessagesCollection, index); err != nil {
			_ = s.deps.disconnect(context.WithoutCancel(ctx), client)
			return fmt.Errorf("create message index: %w", err)
		}

		s.client = client
		s.logger.InfoContext(ctx, "document store connected", slog.String("database", s.cfg.Database))
		return nil
	})
}

// Close disconnects the client. It is a no-op when Open never connected.
func (s *Store) Close(ctx context.Context) error {
	return s.Lifecycle.Close(func() error {
		if s.client == nil {
			return nil
		}
		return s.deps.disconnect(ctx, s.client)
	})
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.client.Database(s.cfg.Database).Collection(name)
}

type tipDoc struct {
	ID        string    `bson:"_id"`
	Category  string    `bson:"category"`
	Title     string    `bson:"title"`
	Body      string    `bson:"body"`
	Steps     []string  `bson:"steps,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d tipDoc) toDomain() domain.Tip {
	return domain.Tip{
		ID:        d.ID,
		Category:  d.Category,
		Title:     d.Title,
		Body:      d.Body,
		Steps:     d.Steps,
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type messageDoc struct {
	ID        string    `bson:"_id"`
	Region    string    `bson:"region"`
	Title     string    `bson:"title"`
	Body      string    `bson:"body"`
	Severity  string    `bson:"severity"`
	Sender    string    `bson:"sender,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func newMessageDoc(m domain.Message) messageDoc {
	return messageDoc{
		ID:        m.ID,
		Region:    m.Region,
		Title:     m.Title,
		Body:      m.Body,
		Severity:  m.Severity,
		Sender:    m.Sender,
		CreatedAt: m.CreatedAt,
	}
}

func (d messageDoc) toDomain() domain.Message {
	return domain.Message{
		ID:        d.ID,
		Region:    d.Region,
		Title:     d.Title,
		Body:      d.Body,
		Severity:  d.Severity,
		Sender:    d.Sender,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// Tips lists tips, optionally restricted to one category.
func (s *Store) Tips(ctx context.Context, category string) ([]domain.Tip, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.collection(TipsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find tips: %w", err)
	}
	var docs []tipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tips: %w", err)
	}

	tips := make([]domain.Tip, 0, len(docs))
	for _, d := range docs {
		tips = append(tips, d.toDomain())
	}
	return tips, nil
}

// Tip returns one tip by id.
func (s *Store) Tip(ctx context.Context, id string) (domain.Tip, error) {
	if err := s.Check(); err != nil {
		return domain.Tip{}, err
	}

	var doc tipDoc
	err := s.collection(TipsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Tip{}, fmt.Errorf("tip %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return domain.Tip{}, fmt.Errorf("find tip %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// UpsertTips replaces tips by id. It is used to seed the tips collection.
func (s *Store) UpsertTips(ctx context.Context, tips []domain.Tip) error {
	if err := s.Check(); err != nil {
		return err
	}
	if len(tips) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(tips))
	for _, t := range tips {
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = s.now().UTC()
		}
		doc := tipDoc{ID: t.ID, Category: t.Category, Title: t.Title, Body: t.Body, Steps: t.Steps, UpdatedAt: t.UpdatedAt}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": t.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := s.collection(TipsCollection).BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("upsert tips: %w", err)
	}
	return nil
}

// InsertMessage stores msg, assigning an id, a creation time and the info
// severity when they are missing, and returns the stored message.
func (s *Store) InsertMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if err := s.Check(); err != nil {
		return domain.Message{}, err
	}

	msg = s.normalizeMessage(msg)
	if _, err := s.collection(MessagesCollection).InsertOne(ctx, newMessageDoc(msg)); err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *Store) normalizeMessage(msg domain.Message) domain.Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	// BSON dates carry millisecond precision.
	msg.CreatedAt = msg.CreatedAt.UTC().Truncate(time.Millisecond)
	if msg.Severity == "" {
		msg.Severity = domain.SeverityInfo
	}
	return msg
}

// RecentMessages returns the newest messages first, optionally for a single
// region.
func (s *Store) RecentMessages(ctx context.Context, region string, limit int) ([]domain.Message, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if region != "" {
		filter["region"] = region
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(clampLimit(limit)))

	cur, err := s.collection(MessagesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	msgs := make([]domain.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, d.toDomain())
	}
	return msgs, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultMessageLimit
	case limit > MaxMessageLimit:
		return MaxMessageLimit
	default:
		return limit
	}
}
