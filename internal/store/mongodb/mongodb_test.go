package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yeogiro/internal/config"
	"yeogiro/internal/shared/testutil"
	"yeogiro/internal/store"
	"yeogiro/pkg/contracts/domain"
)

func withDeps(deps clientDeps) Option {
	return func(current *clientDeps) {
		*current = deps
	}
}

func baseConfig() config.MongoStoreConfig {
	return config.MongoStoreConfig{
		URI:                    "mongodb://localhost:27017",
		Database:               "yeogiro",
		MaxPoolSize:            25,
		ServerSelectionTimeout: 3 * time.Second,
	}
}

type callLog struct {
	connects, pings, disconnects int
	indexDB, indexCollection     string
	clientOpts                   *options.ClientOptions
}

func recordingDeps(calls *callLog) clientDeps {
	fakeClient := &mongo.Client{}

	return clientDeps{
		connect: func(_ context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
			calls.connects++
			calls.clientOpts = opts
			return fakeClient, nil
		},
		ping: func(context.Context, *mongo.Client) error {
			calls.pings++
			return nil
		},
		disconnect: func(context.Context, *mongo.Client) error {
			calls.disconnects++
			return nil
		},
		createIndex: func(_ context.Context, _ *mongo.Client, db, coll string, _ mongo.IndexModel) error {
			calls.indexDB, calls.indexCollection = db, coll
			return nil
		},
	}
}

func TestStore_OpenAndClose(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	calls := &callLog{}
	s := New(baseConfig(), logger, withDeps(recordingDeps(calls)))
	ctx := context.Background()

	assert.Equal(t, store.DocumentStore, s.Kind())
	require.NoError(t, s.Open(ctx))
	assert.Equal(t, store.Ready, s.State())

	assert.Equal(t, 1, calls.connects)
	assert.Equal(t, 1, calls.pings)
	assert.Equal(t, "yeogiro", calls.indexDB)
	assert.Equal(t, MessagesCollection, calls.indexCollection)
	require.NotNil(t, calls.clientOpts.MaxPoolSize)
	assert.Equal(t, uint64(25), *calls.clientOpts.MaxPoolSize)
	require.NotNil(t, calls.clientOpts.ServerSelectionTimeout)
	assert.Equal(t, 3*time.Second, *calls.clientOpts.ServerSelectionTimeout)
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "document store connected")

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, calls.disconnects)
	assert.Equal(t, store.Closed, s.State())
	assert.NotNil(t, s.client, "the disconnected client stays in place for late callers")

	_, err := s.Tips(ctx, "")
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestStore_OpenFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name            string
		cfg             func(*config.MongoStoreConfig)
		mutate          func(*clientDeps)
		wantErr         error
		wantDisconnects int
	}{
		{
			name:    "empty uri",
			cfg:     func(c *config.MongoStoreConfig) { c.URI = " " },
			mutate:  func(*clientDeps) {},
			wantErr: nil,
		},
		{
			name: "connect fails",
			mutate: func(d *clientDeps) {
				d.connect = func(context.Context, *options.ClientOptions) (*mongo.Client, error) { return nil, boom }
			},
			wantErr: ErrConnect,
		},
		{
			name: "nil client",
			mutate: func(d *clientDeps) {
				d.connect = func(context.Context, *options.ClientOptions) (*mongo.Client, error) { return nil, nil }
			},
			wantErr: ErrConnect,
		},
		{
			name: "ping fails",
			mutate: func(d *clientDeps) {
				d.ping = func(context.Context, *mongo.Client) error { return boom }
			},
			wantErr:         ErrPing,
			wantDisconnects: 1,
		},
		{
			name: "index fails",
			mutate: func(d *clientDeps) {
				d.createIndex = func(context.Context, *mongo.Client, string, string, mongo.IndexModel) error { return boom }
			},
			wantErr:         boom,
			wantDisconnects: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			calls := &callLog{}
			deps := recordingDeps(calls)
			tt.mutate(&deps)

			cfg := baseConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			s := New(cfg, logger, withDeps(deps))

			err := s.Open(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, store.Uninitialized, s.State())
			assert.Equal(t, tt.wantDisconnects, calls.disconnects)

			require.NoError(t, s.Close(context.Background()))
			assert.Equal(t, tt.wantDisconnects, calls.disconnects, "close after a failed open has nothing to release")
		})
	}
}

func TestStore_NotReady(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := New(baseConfig(), logger, withDeps(recordingDeps(&callLog{})))
	ctx := context.Background()

	_, err := s.Tip(ctx, "quake-1")
	assert.ErrorIs(t, err, store.ErrNotReady)
	_, err = s.InsertMessage(ctx, domain.Message{Region: "seoul"})
	assert.ErrorIs(t, err, store.ErrNotReady)
	_, err = s.RecentMessages(ctx, "", 5)
	assert.ErrorIs(t, err, store.ErrNotReady)
	assert.ErrorIs(t, s.UpsertTips(ctx, nil), store.ErrNotReady)
}

func TestNormalizeMessage(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := New(baseConfig(), logger)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.FixedZone("KST", 9*3600))
	s.now = func() time.Time { return fixed }

	got := s.normalizeMessage(domain.Message{Region: "seoul", Title: "t", Body: "b"})
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, domain.SeverityInfo, got.Severity)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.Equal(t, fixed.UTC().Truncate(time.Millisecond), got.CreatedAt)

	kept := s.normalizeMessage(domain.Message{ID: "m-1", Severity: domain.SeverityCritical})
	assert.Equal(t, "m-1", kept.ID)
	assert.Equal(t, domain.SeverityCritical, kept.Severity)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultMessageLimit, clampLimit(0))
	assert.Equal(t, DefaultMessageLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxMessageLimit, clampLimit(MaxMessageLimit+1))
}
