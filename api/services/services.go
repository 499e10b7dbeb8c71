package services

import (
	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/internal/appconfig"
	"github.com/ledgerline/finance-services/internal/authn"
	"github.com/ledgerline/finance-services/internal/authz"
	"github.com/ledgerline/finance-services/internal/events"
	"github.com/ledgerline/finance-services/internal/membership"
	"github.com/ledgerline/finance-services/models"
)

// Store is the persistence surface the service functions depend on. It
// extends the reconciler's store with the user-session and CRUD
// operations; db.FinanceDB implements all of it.
type Store interface {
	membership.Store

	CreateUser(user *models.User) (*models.User, error)
	UpdateRefreshToken(username, refreshToken string) error

	GetTransactions(username string) ([]models.Transaction, error)
	GetTransaction(id uuid.UUID) (*models.Transaction, error)
	CreateTransaction(t *models.Transaction) (*models.Transaction, error)
	UpdateTransaction(id uuid.UUID, t models.Transaction) (*models.Transaction, error)
	DeleteTransaction(id uuid.UUID) error

	GetCategories(username string) ([]models.Category, error)
	CreateCategory(c *models.Category) (*models.Category, error)
	DeleteCategory(username string, id uuid.UUID) error
}

// Service contains all shared dependencies for handlers.
type Service struct {
	Config     *appconfig.Config
	DB         Store
	Codec      *authn.Codec
	Verifier   *authz.Verifier
	Reconciler *membership.Reconciler
	Publisher  events.Notifier
}
