package services

import (
	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/internal/events"
	"github.com/ledgerline/finance-services/models"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockStore) FindUserByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) FindUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) CreateUser(user *models.User) (*models.User, error) {
	args := m.Called(user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateRefreshToken(username, refreshToken string) error {
	args := m.Called(username, refreshToken)
	return args.Error(0)
}

func (m *MockStore) DeleteUser(username string) error {
	args := m.Called(username)
	return args.Error(0)
}

func (m *MockStore) FindGroupByName(name string) (*models.Group, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockStore) FindGroupContainingEmail(email string) (*models.Group, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockStore) SaveGroup(group *models.Group) error {
	args := m.Called(group)
	return args.Error(0)
}

func (m *MockStore) UpdateGroupMembers(name string, members []models.GroupMember) error {
	args := m.Called(name, members)
	return args.Error(0)
}

func (m *MockStore) DeleteGroup(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockStore) DeleteTransactionsByUsername(username string) (int, error) {
	args := m.Called(username)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) GetTransactions(username string) ([]models.Transaction, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockStore) GetTransaction(id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockStore) CreateTransaction(t *models.Transaction) (*models.Transaction, error) {
	args := m.Called(t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockStore) UpdateTransaction(id uuid.UUID, t models.Transaction) (*models.Transaction, error) {
	args := m.Called(id, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockStore) DeleteTransaction(id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStore) GetCategories(username string) ([]models.Category, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockStore) CreateCategory(c *models.Category) (*models.Category, error) {
	args := m.Called(c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockStore) DeleteCategory(username string, id uuid.UUID) error {
	args := m.Called(username, id)
	return args.Error(0)
}

func (m *MockNotifier) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockNotifier) Close() {
	m.Called()
}
