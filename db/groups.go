package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/finance-services/models"
)

// FindGroupByName retrieves a group and its members in stored order.
func (f *FinanceDB) FindGroupByName(name string) (*models.Group, error) {
	query := `SELECT id, name FROM groups WHERE name = $1`

	var g models.Group
	if err := f.DB.QueryRow(query, name).Scan(&g.ID, &g.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning group: %w", err)
	}

	members, err := f.getGroupMembers(g.ID)
	if err != nil {
		return nil, err
	}
	g.Members = members

	return &g, nil
}

// FindGroupContainingEmail retrieves the group a user belongs to, if any.
// At most one group can contain an email.
func (f *FinanceDB) FindGroupContainingEmail(email string) (*models.Group, error) {
	query := `
		SELECT g.id, g.name FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.email = $1`

	var g models.Group
	if err := f.DB.QueryRow(query, email).Scan(&g.ID, &g.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning group: %w", err)
	}

	members, err := f.getGroupMembers(g.ID)
	if err != nil {
		return nil, err
	}
	g.Members = members

	return &g, nil
}

// SaveGroup inserts a new group and its member list in one transaction.
func (f *FinanceDB) SaveGroup(group *models.Group) error {
	tx, err := f.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	group.ID = uuid.New()

	err = f.execQuery(tx, `
		INSERT INTO groups (id, created_at, name)
		VALUES ($1, $2, $3)`,
		group.ID, time.Now().UTC(), group.Name)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := f.insertMembers(tx, group.ID, group.Members); err != nil {
		tx.Rollback()
		return err
	}

	return f.CommitTransaction(tx)
}

// UpdateGroupMembers replaces a group's member list, preserving the
// order of the given slice.
func (f *FinanceDB) UpdateGroupMembers(name string, members []models.GroupMember) error {
	tx, err := f.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	var groupID uuid.UUID
	if err := tx.QueryRow(`SELECT id FROM groups WHERE name = $1`, name).Scan(&groupID); err != nil {
		tx.Rollback()
		return fmt.Errorf("error resolving group %q: %w", name, err)
	}

	if err := f.execQuery(tx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		tx.Rollback()
		return err
	}

	if err := f.insertMembers(tx, groupID, members); err != nil {
		tx.Rollback()
		return err
	}

	return f.CommitTransaction(tx)
}

// DeleteGroup removes a group; its member rows cascade.
func (f *FinanceDB) DeleteGroup(name string) error {
	tx, err := f.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := f.execQuery(tx, `DELETE FROM groups WHERE name = $1`, name); err != nil {
		tx.Rollback()
		return err
	}

	return f.CommitTransaction(tx)
}

func (f *FinanceDB) insertMembers(tx *sql.Tx, groupID uuid.UUID, members []models.GroupMember) error {
	for i, m := range members {
		err := f.execQuery(tx, `
			INSERT INTO group_members (group_id, email, user_id, position)
			VALUES ($1, $2, $3, $4)`,
			groupID, m.Email, m.UserID, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *FinanceDB) getGroupMembers(groupID uuid.UUID) ([]models.GroupMember, error) {
	rows, err := f.DB.Query(`
		SELECT email, user_id FROM group_members
		WHERE group_id = $1 ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving group members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.Email, &m.UserID); err != nil {
			return nil, fmt.Errorf("error scanning group member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
