package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"yeogiro/internal/lifecycle"
	"yeogiro/pkg/contracts/domain"
)

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) InsertMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *mockMessageStore) RecentMessages(ctx context.Context, region string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, region, limit)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) BroadcastMessage(ctx context.Context, msg domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type stubStores struct {
	ready  bool
	status []lifecycle.StoreStatus
}

func (s stubStores) Ready() bool                     { return s.ready }
func (s stubStores) Status() []lifecycle.StoreStatus { return s.status }

type stubClients int

func (c stubClients) ClientCount() int { return int(c) }
