package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/odpad/internal/model"
)

const userColumns = `id, email, name, password_hash, role, department_id, vendor_id, created_at, deleted_at`

// CreateUser creates a new user from u. ID and timestamps are assigned by
// the database. An email held by an active user returns ErrDuplicate.
func CreateUser(ctx context.Context, db *sql.DB, u model.User) (*model.User, error) {
	id, err := insertUser(ctx, db, u)
	if err != nil {
		return nil, err
	}
	return GetUser(ctx, db, id)
}

func insertUser(ctx context.Context, ex execer, u model.User) (int64, error) {
	var departmentID sql.NullInt64
	if u.DepartmentID > 0 {
		departmentID = sql.NullInt64{Int64: u.DepartmentID, Valid: true}
	}

	result, err := ex.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, role, department_id, vendor_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.PasswordHash, u.Role, departmentID, nullString(u.VendorID),
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting user id: %w", err)
	}
	return id, nil
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the active user with an email, falling back to the
// most recent soft-deleted one so login can tell them apart.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?
		 ORDER BY deleted_at IS NOT NULL, id DESC LIMIT 1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var departmentID sql.NullInt64
	var vendorID sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&departmentID, &vendorID, &u.CreatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	u.DepartmentID = departmentID.Int64
	u.VendorID = vendorID.String
	return &u, nil
}
