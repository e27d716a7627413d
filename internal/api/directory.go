package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/odpad/internal/lifecycle"
	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/store"
)

// DirectoryHandler serves departments, vendors and campaigns.
type DirectoryHandler struct {
	DB      *sql.DB
	Pickups *lifecycle.PickupManager
}

type createDepartmentRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type createCampaignRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type availabilityRequest struct {
	Availability []string `json:"availability"`
}

// ListDepartments handles GET /api/departments.
func (h *DirectoryHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := store.ListDepartments(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if departments == nil {
		departments = []model.Department{}
	}
	jsonResponse(w, http.StatusOK, departments)
}

// CreateDepartment handles POST /api/departments.
func (h *DirectoryHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req createDepartmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	d, err := store.CreateDepartment(r.Context(), h.DB, name, strings.TrimSpace(req.Location))
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("department created", "user", GetClaims(r.Context()).Email, "department", d.Name)
	jsonResponse(w, http.StatusCreated, d)
}

// ListCampaigns handles GET /api/campaigns.
func (h *DirectoryHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := store.ListCampaigns(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	jsonResponse(w, http.StatusOK, campaigns)
}

// CreateCampaign handles POST /api/campaigns.
func (h *DirectoryHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" || req.Date == "" {
		jsonError(w, http.StatusBadRequest, "title and date required")
		return
	}
	date, err := parseDate(req.Date, false)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date")
		return
	}

	c, err := store.CreateCampaign(r.Context(), h.DB, title, date, strings.TrimSpace(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

// ListVendors handles GET /api/vendors.
func (h *DirectoryHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := store.ListVendors(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if vendors == nil {
		vendors = []model.Vendor{}
	}
	jsonResponse(w, http.StatusOK, vendors)
}

// CreateVendor handles POST /api/vendors.
func (h *DirectoryHandler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req model.Vendor
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = ""
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Email = normalizeEmail(req.Email)
	if req.CompanyName == "" || req.Email == "" {
		jsonError(w, http.StatusBadRequest, "company_name and email required")
		return
	}

	v, err := store.CreateVendor(r.Context(), h.DB, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("vendor registered", "user", GetClaims(r.Context()).Email, "vendor", v.ID, "company", v.CompanyName)
	jsonResponse(w, http.StatusCreated, v)
}

// SetAvailability handles PUT /api/vendors/{id}/availability. Vendors may
// only change their own slots.
func (h *DirectoryHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	actor := actorFrom(r)
	if actor.Is(model.RoleVendor) {
		own, err := h.Pickups.ResolveVendor(r.Context(), actor)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if own.ID != id {
			jsonError(w, http.StatusForbidden, "vendors may only change their own availability")
			return
		}
	}

	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	slots := make([]string, 0, len(req.Availability))
	for _, s := range req.Availability {
		if s = strings.TrimSpace(s); s != "" {
			slots = append(slots, s)
		}
	}

	if err := store.SetVendorAvailability(r.Context(), h.DB, id, slots); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "vendor not found")
			return
		}
		writeError(w, r, err)
		return
	}

	v, err := store.GetVendor(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}
