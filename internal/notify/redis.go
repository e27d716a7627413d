package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Default pub/sub channels.
const (
	EventsChannel        = "odpad:events"
	NotificationsChannel = "odpad:notifications"
)

// NewRedisClient connects to addr, adding the default port when missing.
// The returned func closes the client.
func NewRedisClient(addr, user, password string) (*redis.Client, func() error) {
	if !strings.Contains(addr, ":") {
		addr = addr + ":6379"
	}
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: user,
		Password: password,
	})
	return c, c.Close
}

// Redis publishes events and notifications as JSON on pub/sub channels so
// dashboards and mailers can follow the workflow without polling.
type Redis struct {
	Client *redis.Client
	// Prefix replaces the "odpad" part of the channel names when set.
	Prefix string
}

func (r *Redis) channel(name string) string {
	if r.Prefix == "" {
		return name
	}
	return r.Prefix + strings.TrimPrefix(name, "odpad")
}

func (r *Redis) publish(ctx context.Context, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", channel, err)
	}
	if err := r.Client.Publish(ctx, r.channel(channel), payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", r.channel(channel), err)
	}
	return nil
}

// Record implements Recorder.
func (r *Redis) Record(ctx context.Context, ev Event) error {
	return r.publish(ctx, EventsChannel, ev)
}

// Notify implements Notifier.
func (r *Redis) Notify(ctx context.Context, n Notification) error {
	return r.publish(ctx, NotificationsChannel, n)
}
