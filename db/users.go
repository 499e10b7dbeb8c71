package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/models"
)

const userColumns = `id, created_at, username, email, password_hash, role, refresh_token`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID,
		&u.CreatedAt,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.RefreshToken); err != nil {
		if err == sql.ErrNoRows {
			// User does not exist, return nil user and nil error
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return &u, nil
}

// FindUserByUsername retrieves a single user by username.
func (f *FinanceDB) FindUserByUsername(username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(f.DB.QueryRow(query, username))
}

// FindUserByEmail retrieves a single user by email address.
func (f *FinanceDB) FindUserByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(f.DB.QueryRow(query, email))
}

// CreateUser inserts a new user row.
func (f *FinanceDB) CreateUser(user *models.User) (*models.User, error) {
	tx, err := f.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()

	err = f.execQuery(tx, `
		INSERT INTO users (id, created_at, username, email, password_hash, role, refresh_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.CreatedAt, user.Username, user.Email, user.PasswordHash, user.Role, user.RefreshToken)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := f.CommitTransaction(tx); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateRefreshToken links (or, with an empty token, unlinks) a user row
// to a live session. Used at login and logout.
func (f *FinanceDB) UpdateRefreshToken(username, refreshToken string) error {
	_, err := f.DB.Exec(`UPDATE users SET refresh_token = $1 WHERE username = $2`,
		refreshToken, username)
	if err != nil {
		return fmt.Errorf("error updating refresh token: %w", err)
	}
	return nil
}

// DeleteUser removes a user row.
func (f *FinanceDB) DeleteUser(username string) error {
	tx, err := f.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := f.execQuery(tx, `DELETE FROM users WHERE username = $1`, username); err != nil {
		tx.Rollback()
		return err
	}

	return f.CommitTransaction(tx)
}
