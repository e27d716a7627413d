package api

import (
	"net/http"

	"github.com/erazemk/odpad/internal/lifecycle"
)

// PickupsHandler handles pickup scheduling and vendor responses.
type PickupsHandler struct {
	Pickups *lifecycle.PickupManager
}

type scheduleRequest struct {
	VendorID      string   `json:"vendor_id"`
	ScheduledDate string   `json:"scheduled_date"`
	ItemIDs       []string `json:"item_ids"`
}

type respondRequest struct {
	PickupID string `json:"pickup_id"`
	Response string `json:"response"`
	Note     string `json:"note"`
}

// Schedule handles POST /api/pickups. The scheduling admin is the caller.
func (h *PickupsHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ScheduledDate == "" {
		jsonError(w, http.StatusBadRequest, "scheduled_date is required")
		return
	}
	date, err := parseDate(req.ScheduledDate, false)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid scheduled_date")
		return
	}

	p, err := h.Pickups.Schedule(r.Context(), actorFrom(r), req.VendorID, date, req.ItemIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, p)
}

// Respond handles POST /api/vendor/pickup-response.
func (h *PickupsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Pickups.Respond(r.Context(), actorFrom(r), req.PickupID, req.Response, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// ListForVendor handles GET /api/vendor/pickups.
func (h *PickupsHandler) ListForVendor(w http.ResponseWriter, r *http.Request) {
	views, err := h.Pickups.ListForVendor(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, views)
}

// ListAll handles GET /api/admin/pickups.
func (h *PickupsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.Pickups.ListAll(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, views)
}
