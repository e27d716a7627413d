package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/odpad/internal/model"
)

// LogItemEvent appends an audit record for an item.
func LogItemEvent(ctx context.Context, db *sql.DB, itemID, eventType string, data map[string]any, actorID *int64) (*model.ItemEvent, error) {
	if data == nil {
		data = map[string]any{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding event data: %w", err)
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO item_events (item_id, type, data, actor_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		itemID, eventType, string(encoded), actorID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("logging item event: %w", err)
	}

	id, _ := result.LastInsertId()
	return &model.ItemEvent{
		ID:        id,
		ItemID:    itemID,
		Type:      eventType,
		Data:      data,
		ActorID:   actorID,
		CreatedAt: now,
	}, nil
}

// ListItemEvents returns an item's audit trail, oldest first.
func ListItemEvents(ctx context.Context, db *sql.DB, itemID string) ([]model.ItemEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, type, data, actor_id, created_at
		 FROM item_events WHERE item_id = ? ORDER BY id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item events: %w", err)
	}
	defer rows.Close()

	var events []model.ItemEvent
	for rows.Next() {
		var ev model.ItemEvent
		var data string
		if err := rows.Scan(&ev.ID, &ev.ItemID, &ev.Type, &data, &ev.ActorID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item event: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
			return nil, fmt.Errorf("decoding event data: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
