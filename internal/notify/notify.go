// Package notify carries item audit events and user-facing notifications out
// of the lifecycle managers. Sinks are best-effort: callers log failures and
// carry on.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/erazemk/odpad/internal/store"
)

// Event is an audit record about one item.
type Event struct {
	ItemID  string         `json:"item_id"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
	ActorID *int64         `json:"actor_id,omitempty"`
}

// Notification targets.
const (
	TargetVendor     = "vendor"
	TargetDepartment = "department"
	TargetAdmin      = "admin"
)

// Notification is a message for a vendor, a department or the admins.
type Notification struct {
	Target       string `json:"target"`
	VendorID     string `json:"vendor_id,omitempty"`
	DepartmentID int64  `json:"department_id,omitempty"`
	PickupID     string `json:"pickup_id,omitempty"`
	Message      string `json:"message"`
}

// Recorder persists or forwards audit events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// StoreRecorder appends events to the item_events table.
type StoreRecorder struct {
	DB *sql.DB
}

// Record implements Recorder.
func (s StoreRecorder) Record(ctx context.Context, ev Event) error {
	_, err := store.LogItemEvent(ctx, s.DB, ev.ItemID, ev.Type, ev.Data, ev.ActorID)
	return err
}

// LogNotifier writes notifications to a structured logger. A nil Logger
// uses slog.Default.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"target", n.Target}
	if n.VendorID != "" {
		attrs = append(attrs, "vendor", n.VendorID)
	}
	if n.DepartmentID > 0 {
		attrs = append(attrs, "department", n.DepartmentID)
	}
	if n.PickupID != "" {
		attrs = append(attrs, "pickup", n.PickupID)
	}
	logger.InfoContext(ctx, n.Message, attrs...)
	return nil
}

// Recorders sends every event to each recorder in turn.
type Recorders []Recorder

// Record implements Recorder. All recorders run even when one fails.
func (rs Recorders) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range rs {
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notifiers sends every notification to each notifier in turn.
type Notifiers []Notifier

// Notify implements Notifier. All notifiers run even when one fails.
func (ns Notifiers) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range ns {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
