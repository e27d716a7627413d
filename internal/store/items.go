package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/odpad/internal/model"
)

const itemColumns = `id, name, description, category, department_id, reported_by, reported_at,
	disposed_at, disposition, status, brand, build_quality, user_lifespan, usage_pattern,
	condition, original_price, used_duration, current_price, image_mime, updated_at`

// NewItem holds the fields of an item being reported.
type NewItem struct {
	Name         string
	Description  string
	Category     string
	DepartmentID int64
	ReportedBy   string
	Disposition  *string
	Valuation    model.Valuation
	CurrentPrice *float64
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	Status       string
	Category     string
	DepartmentID int64
	Disposition  string
	// ReportedFrom and ReportedTo bound reported_at inclusively when set.
	ReportedFrom *time.Time
	ReportedTo   *time.Time
}

// ItemPatch holds optional non-status item changes.
type ItemPatch struct {
	Description *string
	Category    *string
	Disposition *string
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateItem inserts a new item in the Reported state.
func CreateItem(ctx context.Context, db *sql.DB, in NewItem) (*model.Item, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	v := in.Valuation

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, description, category, department_id, reported_by, reported_at,
		                    disposition, status, brand, build_quality, user_lifespan, usage_pattern,
		                    condition, original_price, used_duration, current_price, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, nullString(in.Description), in.Category, in.DepartmentID, in.ReportedBy, now,
		in.Disposition, model.ItemStatusReported, nullString(v.Brand), v.BuildQuality, v.UserLifespan,
		nullString(v.UsagePattern), v.Condition, v.OriginalPrice, v.UsedDuration, in.CurrentPrice, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, most recently reported first.
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.DepartmentID > 0 {
		query += ` AND department_id = ?`
		args = append(args, f.DepartmentID)
	}
	if f.Disposition != "" {
		query += ` AND disposition = ?`
		args = append(args, f.Disposition)
	}

	if f.ReportedFrom != nil {
		query += ` AND reported_at >= ?`
		args = append(args, f.ReportedFrom.UTC())
	}
	if f.ReportedTo != nil {
		query += ` AND reported_at <= ?`
		args = append(args, f.ReportedTo.UTC())
	}

	query += ` ORDER BY reported_at DESC, rowid DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem applies a patch of non-status fields. Returns ErrNotFound if the
// item does not exist.
func UpdateItem(ctx context.Context, db *sql.DB, id string, p ItemPatch) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET
		     description = COALESCE(?, description),
		     category    = COALESCE(?, category),
		     disposition = COALESCE(?, disposition),
		     updated_at  = ?
		 WHERE id = ?`,
		p.Description, p.Category, p.Disposition, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetItemStatus moves an item to next if the lifecycle allows it and returns
// the previous status. Moves into Scheduled belong to CreatePickup and the
// Scheduled to Reported revert to pickup rejection, so both are refused here.
func SetItemStatus(ctx context.Context, db *sql.DB, id, next string) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	from, err := itemStatus(ctx, tx, id)
	if err != nil {
		return "", err
	}
	if next == model.ItemStatusScheduled && from != next {
		return from, fmt.Errorf("%w: items become %s only by joining a pickup",
			ErrInvalidTransition, model.ItemStatusScheduled)
	}
	if from == model.ItemStatusScheduled && next == model.ItemStatusReported {
		return from, fmt.Errorf("%w: scheduled items return to %s only when the vendor rejects the pickup",
			ErrInvalidTransition, model.ItemStatusReported)
	}
	if err := transitionItem(ctx, tx, id, from, next); err != nil {
		return from, err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing status change: %w", err)
	}
	return from, nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = ? WHERE id = ?`,
		image, mime, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// itemStatus reads an item's status inside a transaction.
func itemStatus(ctx context.Context, tx *sql.Tx, id string) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM items WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading item status: %w", err)
	}
	return status, nil
}

// transitionItem writes next after checking the transition table. The
// disposal date is stamped the first time an item reaches a terminal status.
func transitionItem(ctx context.Context, tx *sql.Tx, id, from, next string) error {
	if !model.CanTransition(from, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}
	if from == next {
		return nil
	}

	now := time.Now().UTC()
	var disposedAt *time.Time
	if model.IsTerminalStatus(next) {
		disposedAt = &now
	}

	_, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, disposed_at = COALESCE(disposed_at, ?), updated_at = ?
		 WHERE id = ?`,
		next, disposedAt, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}
	return nil
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	var description, brand, usagePattern, imageMime sql.NullString
	err := row.Scan(&item.ID, &item.Name, &description, &item.Category, &item.DepartmentID,
		&item.ReportedBy, &item.ReportedAt, &item.DisposedAt, &item.Disposition, &item.Status,
		&brand, &item.BuildQuality, &item.UserLifespan, &usagePattern, &item.Condition,
		&item.OriginalPrice, &item.UsedDuration, &item.CurrentPrice, &imageMime, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Brand = brand.String
	item.UsagePattern = usagePattern.String
	item.ImageMime = imageMime.String
	item.QRCodeURL = model.QRPath(item.ID)
	return &item, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
