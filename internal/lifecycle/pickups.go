package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/notify"
	"github.com/erazemk/odpad/internal/store"
)

// PickupManager owns pickup batches and the vendor's response to them.
type PickupManager struct {
	DB     *sql.DB
	Audit  notify.Recorder
	Notify notify.Notifier
}

// Collection is the outcome of a collection scan.
type Collection struct {
	Item            *model.Item `json:"item"`
	PickupID        string      `json:"pickup_id,omitempty"`
	PickupCompleted bool        `json:"pickup_completed"`
}

// Schedule books a vendor pickup for a set of items. The pickup, its item
// links and the move of every item to Scheduled are written together or
// not at all.
func (m *PickupManager) Schedule(ctx context.Context, actor Actor, vendorID string, date time.Time, itemIDs []string) (*model.Pickup, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, forbidden("pickups are scheduled by admins")
	}
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, invalid("vendor_id is required")
	}
	if date.IsZero() {
		return nil, invalid("scheduled_date is required")
	}
	if len(itemIDs) == 0 {
		return nil, invalid("item_ids must not be empty")
	}
	seen := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		if strings.TrimSpace(id) == "" {
			return nil, invalid("item_ids must not contain blanks")
		}
		if seen[id] {
			return nil, invalid("item %s listed twice", id)
		}
		seen[id] = true
	}

	p, err := store.CreatePickup(ctx, m.DB, vendorID, actor.UserID, date, itemIDs)
	if err != nil {
		return nil, classify("scheduling pickup", err)
	}

	slog.InfoContext(ctx, "pickup scheduled", "pickup", p.ID, "vendor", vendorID, "items", len(itemIDs),
		"date", p.ScheduledDate.Format(time.DateOnly))
	for _, id := range p.ItemIDs {
		record(ctx, m.Audit, actor, id, model.EventScheduled, map[string]any{
			"pickup_id": p.ID, "vendor_id": vendorID, "scheduled_date": p.ScheduledDate,
		})
	}
	send(ctx, m.Notify, notify.Notification{
		Target:   notify.TargetVendor,
		VendorID: vendorID,
		PickupID: p.ID,
		Message:  fmt.Sprintf("%d item(s) scheduled for pickup on %s", len(p.ItemIDs), p.ScheduledDate.Format(time.DateOnly)),
	})
	return p, nil
}

// ResolveVendor finds the vendor an actor signs in for: first by the user's
// email, then by the vendor linked on the user record.
func (m *PickupManager) ResolveVendor(ctx context.Context, actor Actor) (*model.Vendor, error) {
	if !actor.Is(model.RoleVendor) {
		return nil, forbidden("vendor account required")
	}
	user, err := store.GetUser(ctx, m.DB, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}

	v, err := store.GetVendorByEmail(ctx, m.DB, user.Email)
	if err != nil {
		return nil, err
	}
	if v == nil && user.VendorID != "" {
		if v, err = store.GetVendor(ctx, m.DB, user.VendorID); err != nil {
			return nil, err
		}
	}
	if v == nil {
		return nil, fmt.Errorf("%w: no vendor registered for %s", ErrUnauthorized, user.Email)
	}
	return v, nil
}

// Respond records the signed-in vendor's answer to a pickup. A pickup owned
// by another vendor is reported as not found. Rejection returns every item
// still Scheduled to Reported.
func (m *PickupManager) Respond(ctx context.Context, actor Actor, pickupID, response, note string) (*model.Pickup, error) {
	if response != model.ResponseAccepted && response != model.ResponseRejected {
		return nil, invalid("response must be %s or %s", model.ResponseAccepted, model.ResponseRejected)
	}
	if strings.TrimSpace(pickupID) == "" {
		return nil, invalid("pickup_id is required")
	}
	vendor, err := m.ResolveVendor(ctx, actor)
	if err != nil {
		return nil, err
	}

	res, err := store.RespondToPickup(ctx, m.DB, pickupID, vendor.ID, response, strings.TrimSpace(note))
	if err != nil {
		return nil, classify("responding to pickup", err)
	}
	p := res.Pickup

	slog.InfoContext(ctx, "vendor responded", "pickup", p.ID, "vendor", vendor.ID, "response", response,
		"status", p.Status, "reverted", len(res.Reverted))

	eventType := model.EventPickupAccepted
	if response == model.ResponseRejected {
		eventType = model.EventPickupRejected
	}
	for _, id := range p.ItemIDs {
		record(ctx, m.Audit, actor, id, eventType, map[string]any{
			"pickup_id": p.ID, "vendor_id": vendor.ID, "note": p.VendorResponseNote,
		})
	}
	for _, id := range res.Reverted {
		record(ctx, m.Audit, actor, id, model.EventStatusChanged, map[string]any{
			"from": model.ItemStatusScheduled, "to": model.ItemStatusReported,
		})
	}

	send(ctx, m.Notify, notify.Notification{
		Target:   notify.TargetAdmin,
		VendorID: vendor.ID,
		PickupID: p.ID,
		Message:  fmt.Sprintf("%s %s the pickup on %s", vendor.CompanyName, strings.ToLower(response), p.ScheduledDate.Format(time.DateOnly)),
	})
	return p, nil
}

// ConfirmCollection marks a scanned item Collected. The enclosing pickup
// need not be accepted; an accepted pickup completes with its last item.
func (m *PickupManager) ConfirmCollection(ctx context.Context, actor Actor, itemID string) (*Collection, error) {
	if !actor.Is(model.RoleVendor, model.RoleAdmin) {
		return nil, forbidden("collection is confirmed by vendors and admins")
	}

	res, err := store.CollectItem(ctx, m.DB, itemID)
	if err != nil {
		return nil, classify("confirming collection", err)
	}

	item, err := store.GetItem(ctx, m.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("item", itemID)
	}

	if res.From != model.ItemStatusCollected {
		slog.InfoContext(ctx, "item collected", "item", itemID, "pickup", res.PickupID, "completed", res.Completed)
		record(ctx, m.Audit, actor, itemID, model.EventCollected, map[string]any{
			"pickup_id": res.PickupID, "pickup_completed": res.Completed,
		})
		record(ctx, m.Audit, actor, itemID, model.EventStatusChanged, map[string]any{
			"from": res.From, "to": model.ItemStatusCollected,
		})
		send(ctx, m.Notify, notify.Notification{
			Target:       notify.TargetDepartment,
			DepartmentID: item.DepartmentID,
			PickupID:     res.PickupID,
			Message:      fmt.Sprintf("%s has been collected", item.Name),
		})
	}
	if res.Completed {
		send(ctx, m.Notify, notify.Notification{
			Target:   notify.TargetAdmin,
			PickupID: res.PickupID,
			Message:  "pickup completed",
		})
	}

	return &Collection{Item: item, PickupID: res.PickupID, PickupCompleted: res.Completed}, nil
}

// ListForVendor returns the signed-in vendor's pickups.
func (m *PickupManager) ListForVendor(ctx context.Context, actor Actor) ([]model.PickupView, error) {
	vendor, err := m.ResolveVendor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return m.list(ctx, vendor.ID)
}

// ListAll returns every pickup. Admins only.
func (m *PickupManager) ListAll(ctx context.Context, actor Actor) ([]model.PickupView, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, forbidden("pickup overview is for admins")
	}
	return m.list(ctx, "")
}

func (m *PickupManager) list(ctx context.Context, vendorID string) ([]model.PickupView, error) {
	views, err := store.ListPickups(ctx, m.DB, vendorID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []model.PickupView{}
	}
	return views, nil
}
