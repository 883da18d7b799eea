//go:build integration

package pathdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"yeogiro/internal/shared/testutil"
	"yeogiro/internal/store"
	"yeogiro/pkg/contracts/domain"
)

func openContainerStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("yeogiro_it"),
		postgres.WithUsername("yeogiro_it"),
		postgres.WithPassword("yeogiro_it"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.DSN = dsn
	logger, _ := testutil.NewTestLogger(t)
	s := New(cfg, logger)
	require.NoError(t, s.Open(ctx))
	t.Cleanup(func() { _ = s.Close(ctx) })
	return s
}

func TestIntegration_SaveAndFind(t *testing.T) {
	s := openContainerStore(t)
	ctx := context.Background()

	saved, err := s.SavePath(ctx, domain.Path{
		Origin:          cityHall,
		Destination:     gwanghwamun,
		Waypoints:       []domain.Point{cityHall, {Lat: 37.5690, Lng: 126.9772}, gwanghwamun},
		DurationSeconds: 420,
		Source:          "osrm",
	})
	require.NoError(t, err)

	loaded, err := s.Path(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Waypoints, loaded.Waypoints)
	assert.True(t, saved.CreatedAt.Equal(loaded.CreatedAt))
	assert.InDelta(t, saved.DistanceMetres, loaded.DistanceMetres, 1e-9)

	nearby := domain.Point{Lat: cityHall.Lat + 0.0002, Lng: cityHall.Lng}
	found, err := s.FindPath(ctx, nearby, gwanghwamun, 0)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)

	_, err = s.FindPath(ctx, nearby, gwanghwamun, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Path(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
