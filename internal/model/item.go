package model

import "time"

// Item is a single reported piece of e-waste tracked through disposal.
type Item struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category"`
	DepartmentID int64      `json:"department_id"`
	ReportedBy   string     `json:"reported_by"`
	ReportedAt   time.Time  `json:"reported_date"`
	DisposedAt   *time.Time `json:"disposed_date,omitempty"`
	Disposition  *string    `json:"disposition"`
	Status       string     `json:"status"`
	QRCodeURL    string     `json:"qr_code_url"`
	ImageMime    string     `json:"image_mime,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Valuation
	CurrentPrice *float64 `json:"current_price,omitempty"`
}

// Valuation holds the optional attributes used to estimate an item's value.
// A nil field means the reporter did not provide it.
type Valuation struct {
	Brand         string   `json:"brand,omitempty"`
	BuildQuality  *int     `json:"build_quality,omitempty"`
	UserLifespan  *float64 `json:"user_lifespan,omitempty"`
	UsagePattern  string   `json:"usage_pattern,omitempty"`
	Condition     *int     `json:"condition,omitempty"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	UsedDuration  *float64 `json:"used_duration,omitempty"`
}

// QRPath returns the path encoded in an item's QR label.
func QRPath(id string) string {
	return "/item/" + id
}

// Item statuses.
const (
	ItemStatusReported       = "Reported"
	ItemStatusAwaitingPickup = "Awaiting Pickup"
	ItemStatusScheduled      = "Scheduled"
	ItemStatusCollected      = "Collected"
	ItemStatusRecycled       = "Recycled"
	ItemStatusRefurbished    = "Refurbished"
	ItemStatusSafelyDisposed = "Safely Disposed"
)

// ItemStatuses lists every status in lifecycle order.
var ItemStatuses = []string{
	ItemStatusReported,
	ItemStatusAwaitingPickup,
	ItemStatusScheduled,
	ItemStatusCollected,
	ItemStatusRecycled,
	ItemStatusRefurbished,
	ItemStatusSafelyDisposed,
}

// Dispositions.
const (
	DispositionRecyclable = "Recyclable"
	DispositionReusable   = "Reusable"
	DispositionHazardous  = "Hazardous"
)

// Dispositions lists the accepted disposition values.
var Dispositions = []string{DispositionRecyclable, DispositionReusable, DispositionHazardous}

// Categories lists the accepted item categories.
var Categories = []string{
	"Laptop",
	"Smartphone",
	"Tablet",
	"TV",
	"Refrigerator",
	"Washing Machine",
	"Air Conditioner",
	"Microwave",
	"Monitor",
	"Battery",
	"Other",
}

var itemTransitions = map[string]map[string]struct{}{
	ItemStatusReported: {
		ItemStatusScheduled:      {},
		ItemStatusAwaitingPickup: {},
	},
	ItemStatusAwaitingPickup: {
		ItemStatusScheduled: {},
		ItemStatusReported:  {},
	},
	ItemStatusScheduled: {
		ItemStatusCollected: {},
		ItemStatusReported:  {},
	},
	ItemStatusCollected: {
		ItemStatusRecycled:       {},
		ItemStatusRefurbished:    {},
		ItemStatusSafelyDisposed: {},
	},
}

// CanTransition reports whether an item may move from current to next.
// Staying in the same known status is always allowed.
func CanTransition(current, next string) bool {
	if !ValidStatus(next) {
		return false
	}
	if current == next {
		return true
	}
	allowed, ok := itemTransitions[current]
	if !ok {
		return false
	}
	_, ok = allowed[next]
	return ok
}

// IsTerminalStatus reports whether an item has left the collection workflow.
func IsTerminalStatus(status string) bool {
	switch status {
	case ItemStatusRecycled, ItemStatusRefurbished, ItemStatusSafelyDisposed:
		return true
	}
	return false
}

// IsCollectedOrBeyond reports whether the vendor already holds the item.
func IsCollectedOrBeyond(status string) bool {
	return status == ItemStatusCollected || IsTerminalStatus(status)
}

// ValidStatus reports whether s is a known item status.
func ValidStatus(s string) bool {
	return contains(ItemStatuses, s)
}

// ValidDisposition reports whether s is a known disposition.
func ValidDisposition(s string) bool {
	return contains(Dispositions, s)
}

// ValidCategory reports whether s is a known category.
func ValidCategory(s string) bool {
	return contains(Categories, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
