// Package lifecycle holds the item lifecycle and pickup workflow rules. Every
// operation takes the acting user explicitly; nothing reads request state.
package lifecycle

import (
	"context"
	"log/slog"

	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/notify"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID int64
	Email  string
	Role   string
}

// Is reports whether the actor holds one of the given roles.
func (a Actor) Is(roles ...string) bool {
	return model.RoleIn(a.Role, roles...)
}

func (a Actor) id() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

// record sends an audit event. Failures are logged and never returned.
func record(ctx context.Context, rec notify.Recorder, actor Actor, itemID, eventType string, data map[string]any) {
	if rec == nil {
		return
	}
	err := rec.Record(ctx, notify.Event{ItemID: itemID, Type: eventType, Data: data, ActorID: actor.id()})
	if err != nil {
		slog.WarnContext(ctx, "audit event not recorded", "item", itemID, "type", eventType, "error", err)
	}
}

// send delivers a notification. Failures are logged and never returned.
func send(ctx context.Context, n notify.Notifier, msg notify.Notification) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		slog.WarnContext(ctx, "notification not delivered", "target", msg.Target, "error", err)
	}
}
