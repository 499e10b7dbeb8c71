package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/models"
)

// GetCategories retrieves all categories defined by the given user.
func (f *FinanceDB) GetCategories(username string) ([]models.Category, error) {
	rows, err := f.DB.Query(`SELECT id, username, name FROM categories WHERE username = $1 ORDER BY name`, username)
	if err != nil {
		return nil, fmt.Errorf("error retrieving categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Username, &c.Name); err != nil {
			return nil, fmt.Errorf("error scanning categories: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory inserts a new category row.
func (f *FinanceDB) CreateCategory(c *models.Category) (*models.Category, error) {
	c.ID = uuid.New()
	_, err := f.DB.Exec(`INSERT INTO categories (id, username, name) VALUES ($1, $2, $3)`,
		c.ID, c.Username, c.Name)
	if err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category owned by the given user.
func (f *FinanceDB) DeleteCategory(username string, id uuid.UUID) error {
	_, err := f.DB.Exec(`DELETE FROM categories WHERE id = $1 AND username = $2`, id, username)
	if err != nil {
		return fmt.Errorf("error deleting category: %w", err)
	}
	return nil
}
