package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Rank(t *testing.T) {
	assert.Equal(t, []Kind{MapStore, DocumentStore, PathStore, EmergencyStore}, Kinds())
	for i, k := range Kinds() {
		assert.Equal(t, i, k.Rank(), k.String())
	}
	assert.Equal(t, -1, Kind(0).Rank())
	assert.Equal(t, -1, Kind(9).Rank())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestLifecycle_OpenClose(t *testing.T) {
	var l Lifecycle
	assert.Equal(t, Uninitialized, l.State())
	assert.ErrorIs(t, l.Check(), ErrNotReady)

	require.NoError(t, l.Open(func() error { return nil }))
	assert.Equal(t, Ready, l.State())
	assert.NoError(t, l.Check())

	released := 0
	require.NoError(t, l.Close(func() error { released++; return nil }))
	assert.Equal(t, Closed, l.State())
	assert.ErrorIs(t, l.Check(), ErrClosed)

	require.NoError(t, l.Close(func() error { released++; return nil }))
	assert.Equal(t, 1, released, "second close must not release again")
}

func TestLifecycle_OpenTwice(t *testing.T) {
	var l Lifecycle
	require.NoError(t, l.Open(func() error { return nil }))

	called := false
	err := l.Open(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, called)
	assert.Equal(t, Ready, l.State())
}

func TestLifecycle_OpenAfterClose(t *testing.T) {
	var l Lifecycle
	require.NoError(t, l.Close(func() error { return nil }))

	err := l.Open(func() error { return nil })
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Closed, l.State())
}

func TestLifecycle_FailedOpenStaysUninitialized(t *testing.T) {
	var l Lifecycle
	boom := errors.New("connection refused")

	assert.ErrorIs(t, l.Open(func() error { return boom }), boom)
	assert.Equal(t, Uninitialized, l.State())

	// cleanup after a partial failure is legal
	released := false
	require.NoError(t, l.Close(func() error { released = true; return nil }))
	assert.True(t, released)
	assert.Equal(t, Closed, l.State())
}

func TestLifecycle_CloseErrorStillCloses(t *testing.T) {
	var l Lifecycle
	require.NoError(t, l.Open(func() error { return nil }))

	boom := errors.New("flush failed")
	assert.ErrorIs(t, l.Close(func() error { return boom }), boom)
	assert.Equal(t, Closed, l.State())
}

func TestLifecycle_ConcurrentClose(t *testing.T) {
	var l Lifecycle
	require.NoError(t, l.Open(func() error { return nil }))

	var released atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Close(func() error { released.Add(1); return nil })
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), released.Load())
}
