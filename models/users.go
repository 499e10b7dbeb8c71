package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleRegular = "regular"
	RoleAdmin   = "admin"
)

// User represents a registered account holder.
type User struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"-"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DeleteUserResponse reports what a cascading user deletion removed.
type DeleteUserResponse struct {
	DeletedTransactions int  `json:"deletedTransactions"`
	DeletedFromGroup    bool `json:"deletedFromGroup"`
}
