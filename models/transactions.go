package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a single income or expense entry owned by a user.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Username    string    `json:"username"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	OccurredAt  time.Time `json:"occurredAt"`
	Description string    `json:"description,omitempty"`
}

// Category is a user-defined transaction label.
type Category struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
}
