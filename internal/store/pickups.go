package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/odpad/internal/model"
)

// CreatePickup schedules a pickup for the given items in a single transaction:
// the pickup row, one link row per item and the move of every item to
// Scheduled either all happen or none do.
func CreatePickup(ctx context.Context, db *sql.DB, vendorID string, adminID int64, date time.Time, itemIDs []string) (*model.Pickup, error) {
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("pickup needs at least one item")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM vendors WHERE id = ?`, vendorID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking vendor: %w", err)
	}

	for _, itemID := range itemIDs {
		status, err := itemStatus(ctx, tx, itemID)
		if err != nil {
			return nil, err
		}
		if status == model.ItemStatusScheduled || !model.CanTransition(status, model.ItemStatusScheduled) {
			return nil, fmt.Errorf("%w: item %s is %s", ErrInvalidTransition, itemID, status)
		}

		open, err := openPickupFor(ctx, tx, itemID)
		if err != nil {
			return nil, err
		}
		if open != "" {
			return nil, fmt.Errorf("%w: item %s in pickup %s", ErrItemInOpenPickup, itemID, open)
		}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO pickups (id, vendor_id, admin_id, scheduled_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, vendorID, adminID, date.UTC(), model.PickupStatusScheduled, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating pickup: %w", err)
	}

	for _, itemID := range itemIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pickup_items (pickup_id, item_id) VALUES (?, ?)`, id, itemID,
		); err != nil {
			return nil, fmt.Errorf("linking item %s: %w", itemID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`,
			model.ItemStatusScheduled, now, itemID,
		); err != nil {
			return nil, fmt.Errorf("scheduling item %s: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pickup: %w", err)
	}

	return GetPickup(ctx, db, id)
}

// GetPickup returns a pickup with its linked item IDs.
func GetPickup(ctx context.Context, db *sql.DB, id string) (*model.Pickup, error) {
	p := &model.Pickup{}
	var note sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, vendor_id, admin_id, scheduled_date, status, vendor_response,
		        vendor_response_date, vendor_response_note, created_at
		 FROM pickups WHERE id = ?`, id,
	).Scan(&p.ID, &p.VendorID, &p.AdminID, &p.ScheduledDate, &p.Status, &p.VendorResponse,
		&p.VendorResponseDate, &note, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pickup: %w", err)
	}
	p.VendorResponseNote = note.String

	rows, err := db.QueryContext(ctx,
		`SELECT item_id FROM pickup_items WHERE pickup_id = ? ORDER BY rowid`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting pickup items: %w", err)
	}
	defer rows.Close()

	p.ItemIDs = []string{}
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return nil, fmt.Errorf("scanning pickup item: %w", err)
		}
		p.ItemIDs = append(p.ItemIDs, itemID)
	}
	return p, rows.Err()
}

// RespondResult reports what a vendor response changed.
type RespondResult struct {
	Pickup *model.Pickup
	// Reverted lists items moved back to Reported by a rejection.
	Reverted []string
}

// RespondToPickup records a vendor's decision. A pickup that does not belong
// to vendorID is reported as ErrNotFound. On rejection every linked item that
// is still Scheduled returns to Reported in the same transaction.
func RespondToPickup(ctx context.Context, db *sql.DB, pickupID, vendorID, response, note string) (*RespondResult, error) {
	if response != model.ResponseAccepted && response != model.ResponseRejected {
		return nil, fmt.Errorf("invalid response %q", response)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var owner, status string
	err = tx.QueryRowContext(ctx,
		`SELECT vendor_id, status FROM pickups WHERE id = ?`, pickupID,
	).Scan(&owner, &status)
	if err == sql.ErrNoRows || (err == nil && owner != vendorID) {
		return nil, fmt.Errorf("pickup %s: %w", pickupID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading pickup: %w", err)
	}
	if status != model.PickupStatusScheduled {
		return nil, fmt.Errorf("%w: pickup is %s", ErrAlreadyResponded, status)
	}

	itemIDs, err := linkedItems(ctx, tx, pickupID)
	if err != nil {
		return nil, err
	}

	next := model.PickupStatusVendorAccepted
	if response == model.ResponseRejected {
		next = model.PickupStatusVendorRejected
	}

	var reverted []string
	switch response {
	case model.ResponseRejected:
		for _, itemID := range itemIDs {
			s, err := itemStatus(ctx, tx, itemID)
			if err != nil {
				return nil, err
			}
			if s != model.ItemStatusScheduled {
				continue
			}
			if err := transitionItem(ctx, tx, itemID, s, model.ItemStatusReported); err != nil {
				return nil, err
			}
			reverted = append(reverted, itemID)
		}
	case model.ResponseAccepted:
		// Items may already have been scanned before the vendor answered.
		done, err := allCollected(ctx, tx, pickupID)
		if err != nil {
			return nil, err
		}
		if done {
			next = model.PickupStatusCompleted
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE pickups SET status = ?, vendor_response = ?, vendor_response_date = ?,
		                    vendor_response_note = ?
		 WHERE id = ?`,
		next, response, time.Now().UTC(), nullString(note), pickupID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording vendor response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing vendor response: %w", err)
	}

	p, err := GetPickup(ctx, db, pickupID)
	if err != nil {
		return nil, err
	}
	return &RespondResult{Pickup: p, Reverted: reverted}, nil
}

// CollectResult reports what a collection scan changed.
type CollectResult struct {
	From string
	// PickupID is the open pickup the item belongs to, if any.
	PickupID string
	// Completed is set when this scan finished an accepted pickup.
	Completed bool
}

// CollectItem marks an item Collected. The enclosing pickup's acceptance is
// not required. When the last item of an accepted pickup is collected the
// pickup is marked Completed.
func CollectItem(ctx context.Context, db *sql.DB, itemID string) (*CollectResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	from, err := itemStatus(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := transitionItem(ctx, tx, itemID, from, model.ItemStatusCollected); err != nil {
		return nil, err
	}

	res := &CollectResult{From: from}
	res.PickupID, err = openPickupFor(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if res.PickupID != "" {
		var status string
		if err := tx.QueryRowContext(ctx,
			`SELECT status FROM pickups WHERE id = ?`, res.PickupID,
		).Scan(&status); err != nil {
			return nil, fmt.Errorf("reading pickup: %w", err)
		}
		if status == model.PickupStatusVendorAccepted {
			done, err := allCollected(ctx, tx, res.PickupID)
			if err != nil {
				return nil, err
			}
			if done {
				if _, err := tx.ExecContext(ctx,
					`UPDATE pickups SET status = ? WHERE id = ?`,
					model.PickupStatusCompleted, res.PickupID,
				); err != nil {
					return nil, fmt.Errorf("completing pickup: %w", err)
				}
				res.Completed = true
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing collection: %w", err)
	}
	return res, nil
}

// ListPickups returns pickup projections, newest scheduled date first. An
// empty vendorID lists every vendor's pickups.
func ListPickups(ctx context.Context, db *sql.DB, vendorID string) ([]model.PickupView, error) {
	query := `SELECT p.id, p.vendor_id, p.admin_id, p.scheduled_date, p.status, p.vendor_response,
	                 p.vendor_response_date, p.vendor_response_note, p.created_at,
	                 v.company_name, v.email, v.contact_person, COALESCE(u.email, '')
	          FROM pickups p
	          JOIN vendors v ON v.id = p.vendor_id
	          LEFT JOIN users u ON u.id = p.admin_id`
	var args []any
	if vendorID != "" {
		query += ` WHERE p.vendor_id = ?`
		args = append(args, vendorID)
	}
	query += ` ORDER BY p.scheduled_date DESC, p.created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pickups: %w", err)
	}
	defer rows.Close()

	var views []model.PickupView
	index := map[string]int{}
	for rows.Next() {
		var pv model.PickupView
		var note sql.NullString
		if err := rows.Scan(&pv.ID, &pv.VendorID, &pv.AdminID, &pv.ScheduledDate, &pv.Status,
			&pv.VendorResponse, &pv.VendorResponseDate, &note, &pv.CreatedAt,
			&pv.VendorName, &pv.VendorEmail, &pv.VendorPerson, &pv.AdminEmail); err != nil {
			return nil, fmt.Errorf("scanning pickup: %w", err)
		}
		pv.VendorResponseNote = note.String
		pv.ItemIDs = []string{}
		pv.Items = []model.PickupItem{}
		index[pv.ID] = len(views)
		views = append(views, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(views) == 0 {
		return views, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(views)), ",")
	ids := make([]any, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}

	itemRows, err := db.QueryContext(ctx,
		`SELECT pi.pickup_id, i.id, i.name, i.category, i.status, i.department_id,
		        COALESCE(d.name, ''), i.reported_by, COALESCE(NULLIF(u.name, ''), u.email), i.current_price
		 FROM pickup_items pi
		 JOIN items i ON i.id = pi.item_id
		 LEFT JOIN departments d ON d.id = i.department_id
		 LEFT JOIN users u ON u.email = i.reported_by AND u.deleted_at IS NULL
		 WHERE pi.pickup_id IN (`+placeholders+`)
		 ORDER BY pi.rowid`, ids...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pickup items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var pickupID string
		var reporter sql.NullString
		var it model.PickupItem
		if err := itemRows.Scan(&pickupID, &it.ItemID, &it.Name, &it.Category, &it.Status,
			&it.DepartmentID, &it.DepartmentName, &it.ReportedBy, &reporter, &it.CurrentPrice); err != nil {
			return nil, fmt.Errorf("scanning pickup item: %w", err)
		}
		it.ReporterName = reporter.String
		if !reporter.Valid {
			it.ReporterName = model.UnknownReporter
		}
		v := &views[index[pickupID]]
		v.ItemIDs = append(v.ItemIDs, it.ItemID)
		v.Items = append(v.Items, it)
	}
	return views, itemRows.Err()
}

// openPickupFor returns the ID of the unresolved pickup holding an item, or "".
func openPickupFor(ctx context.Context, tx *sql.Tx, itemID string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT p.id FROM pickup_items pi
		 JOIN pickups p ON p.id = pi.pickup_id
		 WHERE pi.item_id = ? AND p.status IN (?, ?)
		 ORDER BY p.created_at DESC LIMIT 1`,
		itemID, model.PickupStatusScheduled, model.PickupStatusVendorAccepted,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking open pickups: %w", err)
	}
	return id, nil
}

func linkedItems(ctx context.Context, tx *sql.Tx, pickupID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT item_id FROM pickup_items WHERE pickup_id = ? ORDER BY rowid`, pickupID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing linked items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning linked item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// allCollected reports whether every item of a pickup has been collected.
func allCollected(ctx context.Context, tx *sql.Tx, pickupID string) (bool, error) {
	var pending int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pickup_items pi
		 JOIN items i ON i.id = pi.item_id
		 WHERE pi.pickup_id = ? AND i.status NOT IN (?, ?, ?, ?)`,
		pickupID, model.ItemStatusCollected, model.ItemStatusRecycled,
		model.ItemStatusRefurbished, model.ItemStatusSafelyDisposed,
	).Scan(&pending)
	if err != nil {
		return false, fmt.Errorf("counting pending items: %w", err)
	}
	return pending == 0, nil
}
