package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/erazemk/odpad/internal/imaging"
	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/notify"
	"github.com/erazemk/odpad/internal/pricing"
	"github.com/erazemk/odpad/internal/store"
)

// ItemInput is the data a reporter submits for a new item.
type ItemInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	DepartmentID int64   `json:"department_id"`
	ReportedBy   string  `json:"reported_by"`
	Disposition  *string `json:"disposition"`
	model.Valuation
}

// ItemUpdate is a partial item change. Nil fields are left alone.
type ItemUpdate struct {
	Status      *string `json:"status"`
	Disposition *string `json:"disposition"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// ItemManager owns the status and disposition of single items.
type ItemManager struct {
	DB    *sql.DB
	Audit notify.Recorder
}

// Create reports a new item. Out-of-range valuation values are dropped, not
// rejected. The current price is estimated when an original price is given.
func (m *ItemManager) Create(ctx context.Context, actor Actor, in ItemInput) (*model.Item, error) {
	if !actor.Is(model.RoleStudent, model.RoleCoordinator, model.RoleAdmin) {
		return nil, forbidden("only reporters and admins can report items")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if !model.ValidCategory(in.Category) {
		return nil, invalid("unknown category %q", in.Category)
	}
	if in.DepartmentID <= 0 {
		return nil, invalid("department_id is required")
	}
	if in.Disposition != nil && !model.ValidDisposition(*in.Disposition) {
		return nil, invalid("unknown disposition %q", *in.Disposition)
	}
	dept, err := store.GetDepartment(ctx, m.DB, in.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("reporting item: %w", err)
	}
	if dept == nil {
		return nil, invalid("unknown department %d", in.DepartmentID)
	}

	reportedBy := strings.TrimSpace(in.ReportedBy)
	if reportedBy == "" {
		reportedBy = actor.Email
	}

	v := sanitizeValuation(in.Valuation)
	var price *float64
	if v.OriginalPrice != nil {
		p := pricing.Estimate(pricing.Input{
			Category:      in.Category,
			OriginalPrice: v.OriginalPrice,
			UsedDuration:  v.UsedDuration,
			UserLifespan:  v.UserLifespan,
			Condition:     v.Condition,
			BuildQuality:  v.BuildQuality,
		})
		price = &p
	}

	item, err := store.CreateItem(ctx, m.DB, store.NewItem{
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Category:     in.Category,
		DepartmentID: in.DepartmentID,
		ReportedBy:   reportedBy,
		Disposition:  in.Disposition,
		Valuation:    v,
		CurrentPrice: price,
	})
	if err != nil {
		return nil, classify("reporting item", err)
	}

	slog.InfoContext(ctx, "item reported", "item", item.ID, "category", item.Category, "by", reportedBy)
	record(ctx, m.Audit, actor, item.ID, model.EventCreated, map[string]any{
		"name": item.Name, "category": item.Category, "department_id": item.DepartmentID,
	})
	return item, nil
}

// sanitizeValuation drops negative numbers and 1-5 scores outside their range.
func sanitizeValuation(v model.Valuation) model.Valuation {
	out := model.Valuation{
		Brand:        strings.TrimSpace(v.Brand),
		UsagePattern: strings.TrimSpace(v.UsagePattern),
	}
	nonNegative := func(f *float64) *float64 {
		if f == nil || *f < 0 {
			return nil
		}
		c := *f
		return &c
	}
	score := func(i *int) *int {
		if i == nil || *i < 1 || *i > 5 {
			return nil
		}
		c := *i
		return &c
	}
	out.OriginalPrice = nonNegative(v.OriginalPrice)
	out.UsedDuration = nonNegative(v.UsedDuration)
	out.UserLifespan = nonNegative(v.UserLifespan)
	out.BuildQuality = score(v.BuildQuality)
	out.Condition = score(v.Condition)
	return out
}

// Get returns an item or ErrNotFound.
func (m *ItemManager) Get(ctx context.Context, id string) (*model.Item, error) {
	item, err := store.GetItem(ctx, m.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("item", id)
	}
	return item, nil
}

// List returns items matching the filter, newest first.
func (m *ItemManager) List(ctx context.Context, f store.ItemFilter) ([]model.Item, error) {
	if f.Status != "" && !model.ValidStatus(f.Status) {
		return nil, invalid("unknown status %q", f.Status)
	}
	if f.Disposition != "" && !model.ValidDisposition(f.Disposition) {
		return nil, invalid("unknown disposition %q", f.Disposition)
	}
	items, err := store.ListItems(ctx, m.DB, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// UpdateStatus moves an item along the lifecycle. Only admins may do so,
// except that a vendor may mark an item Collected. Items enter Scheduled
// only through PickupManager.Schedule. Collection goes through
// the pickup rollup so an accepted pickup completes with its last item.
func (m *ItemManager) UpdateStatus(ctx context.Context, actor Actor, id, next string) (*model.Item, error) {
	if !model.ValidStatus(next) {
		return nil, invalid("unknown status %q", next)
	}
	if !actor.Is(model.RoleAdmin) && !(next == model.ItemStatusCollected && actor.Is(model.RoleVendor)) {
		return nil, forbidden("status changes are reserved for admins")
	}

	var from string
	if next == model.ItemStatusCollected {
		res, err := store.CollectItem(ctx, m.DB, id)
		if err != nil {
			return nil, classify("collecting item", err)
		}
		from = res.From
		if from != next {
			record(ctx, m.Audit, actor, id, model.EventCollected, map[string]any{
				"pickup_id": res.PickupID, "pickup_completed": res.Completed,
			})
		}
	} else {
		var err error
		from, err = store.SetItemStatus(ctx, m.DB, id, next)
		if err != nil {
			return nil, classify("updating item status", err)
		}
	}

	if from != next {
		slog.InfoContext(ctx, "item status changed", "item", id, "from", from, "to", next)
		record(ctx, m.Audit, actor, id, model.EventStatusChanged, map[string]any{"from": from, "to": next})
	}
	return m.Get(ctx, id)
}

// UpdateDisposition sets an item's environmental handling class.
func (m *ItemManager) UpdateDisposition(ctx context.Context, actor Actor, id, next string) (*model.Item, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, forbidden("dispositions are set by admins")
	}
	if !model.ValidDisposition(next) {
		return nil, invalid("unknown disposition %q", next)
	}
	if err := store.UpdateItem(ctx, m.DB, id, store.ItemPatch{Disposition: &next}); err != nil {
		return nil, classify("setting disposition", err)
	}
	record(ctx, m.Audit, actor, id, model.EventDispositionSet, map[string]any{"disposition": next})
	return m.Get(ctx, id)
}

// Update applies a partial change. Every field is validated before anything
// is written. A vendor may only send a status of Collected.
func (m *ItemManager) Update(ctx context.Context, actor Actor, id string, u ItemUpdate) (*model.Item, error) {
	if u.Status == nil && u.Disposition == nil && u.Description == nil && u.Category == nil {
		return nil, invalid("no changes")
	}
	if actor.Is(model.RoleVendor) {
		if u.Disposition != nil || u.Description != nil || u.Category != nil ||
			u.Status == nil || *u.Status != model.ItemStatusCollected {
			return nil, forbidden("vendors may only mark items collected")
		}
	} else if !actor.Is(model.RoleAdmin) {
		return nil, forbidden("items are updated by admins")
	}

	if u.Status != nil && !model.ValidStatus(*u.Status) {
		return nil, invalid("unknown status %q", *u.Status)
	}
	if u.Disposition != nil && !model.ValidDisposition(*u.Disposition) {
		return nil, invalid("unknown disposition %q", *u.Disposition)
	}
	if u.Category != nil && !model.ValidCategory(*u.Category) {
		return nil, invalid("unknown category %q", *u.Category)
	}

	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Status != nil {
		if !model.CanTransition(current.Status, *u.Status) ||
			(*u.Status == model.ItemStatusScheduled && current.Status != model.ItemStatusScheduled) ||
			(current.Status == model.ItemStatusScheduled && *u.Status == model.ItemStatusReported) {
			return nil, invalid("cannot move item from %s to %s", current.Status, *u.Status)
		}
	}

	if u.Description != nil || u.Category != nil || u.Disposition != nil {
		patch := store.ItemPatch{Description: u.Description, Category: u.Category, Disposition: u.Disposition}
		if err := store.UpdateItem(ctx, m.DB, id, patch); err != nil {
			return nil, classify("updating item", err)
		}
		if u.Disposition != nil {
			record(ctx, m.Audit, actor, id, model.EventDispositionSet, map[string]any{"disposition": *u.Disposition})
		}
	}

	if u.Status != nil {
		return m.UpdateStatus(ctx, actor, id, *u.Status)
	}
	return m.Get(ctx, id)
}

// ListEvents returns an item's audit trail, oldest first.
func (m *ItemManager) ListEvents(ctx context.Context, id string) ([]model.ItemEvent, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	events, err := store.ListItemEvents(ctx, m.DB, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.ItemEvent{}
	}
	return events, nil
}

// RecordEvent stores a client-supplied event on an item's trail.
func (m *ItemManager) RecordEvent(ctx context.Context, actor Actor, id, eventType string, data map[string]any) (*model.ItemEvent, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return nil, invalid("event type is required")
	}
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	ev, err := store.LogItemEvent(ctx, m.DB, id, eventType, data, actor.id())
	if err != nil {
		return nil, fmt.Errorf("recording item event: %w", err)
	}
	return ev, nil
}

// SetPhoto normalizes and stores an item photo.
func (m *ItemManager) SetPhoto(ctx context.Context, actor Actor, id string, r io.Reader) error {
	if actor.Is(model.RoleVendor) {
		return forbidden("vendors cannot change item photos")
	}
	photo, err := imaging.Normalize(r)
	if err != nil {
		return classify("processing photo", err)
	}
	if err := store.SetItemImage(ctx, m.DB, id, photo.Data, photo.MIME); err != nil {
		return classify("storing photo", err)
	}
	return nil
}

// GetPhoto returns an item photo and its MIME type, or ErrNotFound.
func (m *ItemManager) GetPhoto(ctx context.Context, id string) ([]byte, string, error) {
	data, mime, err := store.GetItemImage(ctx, m.DB, id)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", notFound("photo for item", id)
	}
	return data, mime, nil
}
