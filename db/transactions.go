package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/models"
)

// GetTransactions retrieves all transactions owned by the given user,
// newest first.
func (f *FinanceDB) GetTransactions(username string) ([]models.Transaction, error) {
	query := `
		SELECT id, created_at, username, category, amount, occurred_at, description
		FROM transactions WHERE username = $1 ORDER BY occurred_at DESC`
	rows, err := f.DB.Query(query, username)
	if err != nil {
		return nil, fmt.Errorf("error retrieving transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID,
			&t.CreatedAt,
			&t.Username,
			&t.Category,
			&t.Amount,
			&t.OccurredAt,
			&t.Description); err != nil {
			return nil, fmt.Errorf("error scanning transactions: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// GetTransaction retrieves a single transaction by ID.
func (f *FinanceDB) GetTransaction(id uuid.UUID) (*models.Transaction, error) {
	query := `
		SELECT id, created_at, username, category, amount, occurred_at, description
		FROM transactions WHERE id = $1`

	var t models.Transaction
	if err := f.DB.QueryRow(query, id).Scan(&t.ID,
		&t.CreatedAt,
		&t.Username,
		&t.Category,
		&t.Amount,
		&t.OccurredAt,
		&t.Description); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning transaction: %w", err)
	}
	return &t, nil
}

// CreateTransaction inserts a new transaction row.
func (f *FinanceDB) CreateTransaction(t *models.Transaction) (*models.Transaction, error) {
	tx, err := f.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}

	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	if t.OccurredAt.IsZero() {
		t.OccurredAt = t.CreatedAt
	}

	err = f.execQuery(tx, `
		INSERT INTO transactions (id, created_at, username, category, amount, occurred_at, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.CreatedAt, t.Username, t.Category, t.Amount, t.OccurredAt, t.Description)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := f.CommitTransaction(tx); err != nil {
		return nil, err
	}

	return t, nil
}

// UpdateTransaction updates the mutable fields of a transaction.
func (f *FinanceDB) UpdateTransaction(id uuid.UUID, t models.Transaction) (*models.Transaction, error) {
	tx, err := f.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}

	err = f.execQuery(tx, `
		UPDATE transactions
		SET category = $1, amount = $2, occurred_at = $3, description = $4
		WHERE id = $5`,
		t.Category, t.Amount, t.OccurredAt, t.Description, id)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("error updating transaction: %w", err)
	}

	if err := f.CommitTransaction(tx); err != nil {
		return nil, err
	}

	t.ID = id
	return &t, nil
}

// DeleteTransaction removes a single transaction row.
func (f *FinanceDB) DeleteTransaction(id uuid.UUID) error {
	tx, err := f.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := f.execQuery(tx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		tx.Rollback()
		return err
	}

	return f.CommitTransaction(tx)
}

// DeleteTransactionsByUsername removes all of a user's transactions and
// reports how many rows were deleted.
func (f *FinanceDB) DeleteTransactionsByUsername(username string) (int, error) {
	result, err := f.DB.Exec(`DELETE FROM transactions WHERE username = $1`, username)
	if err != nil {
		return 0, fmt.Errorf("error deleting transactions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted transactions: %w", err)
	}
	return int(count), nil
}
