package model

import "time"

// Pickup is a vendor collection batch covering one or more items.
type Pickup struct {
	ID                 string     `json:"id"`
	VendorID           string     `json:"vendor_id"`
	AdminID            int64      `json:"admin_id"`
	ScheduledDate      time.Time  `json:"scheduled_date"`
	Status             string     `json:"status"`
	VendorResponse     *string    `json:"vendor_response"`
	VendorResponseDate *time.Time `json:"vendor_response_date,omitempty"`
	VendorResponseNote string     `json:"vendor_response_note,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	ItemIDs            []string   `json:"item_ids"`
}

// Pickup statuses.
const (
	PickupStatusScheduled      = "Scheduled"
	PickupStatusVendorAccepted = "Vendor_Accepted"
	PickupStatusVendorRejected = "Vendor_Rejected"
	PickupStatusCompleted      = "Completed"
)

// Vendor responses.
const (
	ResponseAccepted = "Accepted"
	ResponseRejected = "Rejected"
)

// IsOpenPickup reports whether a pickup still claims its items.
func IsOpenPickup(status string) bool {
	return status == PickupStatusScheduled || status == PickupStatusVendorAccepted
}

// PickupView is a pickup joined with its vendor and item details.
type PickupView struct {
	Pickup
	VendorName   string       `json:"vendor_name"`
	VendorEmail  string       `json:"vendor_email"`
	VendorPerson string       `json:"vendor_contact_person"`
	AdminEmail   string       `json:"admin_email"`
	Items        []PickupItem `json:"items"`
}

// PickupItem is one item line in a pickup projection.
type PickupItem struct {
	ItemID         string   `json:"item_id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Status         string   `json:"status"`
	DepartmentID   int64    `json:"department_id"`
	DepartmentName string   `json:"department_name"`
	ReportedBy     string   `json:"reported_by"`
	ReporterName   string   `json:"reporter_name"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`
}

// UnknownReporter is shown when an item's reporter matches no user.
const UnknownReporter = "Unknown"
