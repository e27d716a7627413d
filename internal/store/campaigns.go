package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/odpad/internal/model"
)

// CreateCampaign creates an awareness campaign.
func CreateCampaign(ctx context.Context, db *sql.DB, title string, date time.Time, description string) (*model.Campaign, error) {
	c := &model.Campaign{
		ID:          uuid.NewString(),
		Title:       title,
		Date:        date.UTC(),
		Description: description,
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO campaigns (id, title, date, description) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, c.Date, nullString(c.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("creating campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns campaigns, latest date first.
func ListCampaigns(ctx context.Context, db *sql.DB) ([]model.Campaign, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, title, date, description FROM campaigns ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Title, &c.Date, &description); err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		c.Description = description.String
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}
