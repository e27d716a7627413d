package model

import "time"

// Department is an organisational unit that reports items.
type Department struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Vendor is a registered e-waste recycler that collects pickups.
type Vendor struct {
	ID                 string    `json:"id"`
	CompanyName        string    `json:"company_name"`
	ContactPerson      string    `json:"contact_person"`
	Email              string    `json:"email"`
	CPCBRegistrationNo string    `json:"cpcb_registration_no"`
	Availability       []string  `json:"availability"`
	CreatedAt          time.Time `json:"created_at"`
}

// Campaign is an awareness drive announced to reporters.
type Campaign struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
}

// ItemEvent is an append-only audit record for an item.
type ItemEvent struct {
	ID        int64          `json:"id"`
	ItemID    string         `json:"item_id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	ActorID   *int64         `json:"actor_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Item event types.
const (
	EventCreated        = "created"
	EventStatusChanged  = "status_changed"
	EventDispositionSet = "disposition_set"
	EventScheduled      = "scheduled"
	EventPickupAccepted = "pickup_accepted"
	EventPickupRejected = "pickup_rejected"
	EventCollected      = "collected"
)
