package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/services"
)

// MockRelationshipStore mocks the relationship edge store.
type MockRelationshipStore struct {
	mock.Mock
}

func (m *MockRelationshipStore) Insert(ctx context.Context, requesterID, recipientID int64, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	args := m.Called(ctx, requesterID, recipientID, status)
	var edge *models.FriendRequest
	if val := args.Get(0); val != nil {
		edge = val.(*models.FriendRequest)
	}
	return edge, args.Error(1)
}

func (m *MockRelationshipStore) GetByID(ctx context.Context, id int64) (*models.FriendRequest, error) {
	args := m.Called(ctx, id)
	var edge *models.FriendRequest
	if val := args.Get(0); val != nil {
		edge = val.(*models.FriendRequest)
	}
	return edge, args.Error(1)
}

func (m *MockRelationshipStore) UpdateStatusIf(ctx context.Context, id int64, expected, next models.FriendRequestStatus, recipientID int64) (int64, error) {
	args := m.Called(ctx, id, expected, next, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRelationshipStore) DeleteWhere(ctx context.Context, requesterID, recipientID int64, statuses []models.FriendRequestStatus) (int64, error) {
	args := m.Called(ctx, requesterID, recipientID, statuses)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRelationshipStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRelationshipStore) QueryPair(ctx context.Context, requesterID, recipientID int64, limit int) ([]models.FriendRequest, error) {
	args := m.Called(ctx, requesterID, recipientID, limit)
	var rows []models.FriendRequest
	if val := args.Get(0); val != nil {
		rows = val.([]models.FriendRequest)
	}
	return rows, args.Error(1)
}

func (m *MockRelationshipStore) QueryEdgesTouchingAny(ctx context.Context, userIDs []int64, status models.FriendRequestStatus) ([]models.FriendRequest, error) {
	args := m.Called(ctx, userIDs, status)
	var rows []models.FriendRequest
	if val := args.Get(0); val != nil {
		rows = val.([]models.FriendRequest)
	}
	return rows, args.Error(1)
}

// MockEntryRepository mocks the read-only entry store.
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) ListRecent(ctx context.Context, limit int) ([]models.Entry, error) {
	args := m.Called(ctx, limit)
	var entries []models.Entry
	if val := args.Get(0); val != nil {
		entries = val.([]models.Entry)
	}
	return entries, args.Error(1)
}

func (m *MockEntryRepository) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Entry, error) {
	args := m.Called(ctx, ownerID, limit)
	var entries []models.Entry
	if val := args.Get(0); val != nil {
		entries = val.([]models.Entry)
	}
	return entries, args.Error(1)
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	args := m.Called(ctx, id)
	var entry *models.Entry
	if val := args.Get(0); val != nil {
		entry = val.(*models.Entry)
	}
	return entry, args.Error(1)
}

// MockAccountDirectory mocks the accounts service client.
type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) GetAccount(ctx context.Context, id int64) (*services.Account, error) {
	args := m.Called(ctx, id)
	var account *services.Account
	if val := args.Get(0); val != nil {
		account = val.(*services.Account)
	}
	return account, args.Error(1)
}

// MockPublisher mocks RabbitMQ publisher behavior.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Compile-time assertions
var (
	_ repositories.RelationshipStore = (*MockRelationshipStore)(nil)
	_ repositories.EntryRepository   = (*MockEntryRepository)(nil)
	_ services.AccountDirectory      = (*MockAccountDirectory)(nil)
	_ rabbitmq.Publisher             = (*MockPublisher)(nil)
)
