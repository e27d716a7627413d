package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/odpad/internal/imaging"
	"github.com/erazemk/odpad/internal/lifecycle"
	"github.com/erazemk/odpad/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Items   *lifecycle.ItemManager
	Pickups *lifecycle.PickupManager
}

type recordEventRequest struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ItemFilter{
		Status:      q.Get("status"),
		Category:    q.Get("category"),
		Disposition: q.Get("disposition"),
	}
	if s := q.Get("department_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid department_id")
			return
		}
		f.DepartmentID = id
	}
	var ok bool
	if f.ReportedFrom, f.ReportedTo, ok = dateRange(w, r); !ok {
		return
	}

	items, err := h.Items.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Items.Create(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.ItemUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Items.Update(r.Context(), actorFrom(r), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Collect handles POST /api/items/{id}/collect, sent when a vendor scans an
// item's QR label.
func (h *ItemsHandler) Collect(w http.ResponseWriter, r *http.Request) {
	c, err := h.Pickups.ConfirmCollection(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// ListEvents handles GET /api/items/{id}/events.
func (h *ItemsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Items.ListEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

// RecordEvent handles POST /api/items/{id}/events.
func (h *ItemsHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := h.Items.RecordEvent(r.Context(), actorFrom(r), r.PathValue("id"), req.Type, req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, ev)
}

// UploadImage handles PUT /api/items/{id}/image. The photo arrives as the
// "image" field of a multipart form and is stored re-encoded as JPEG.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	if err := h.Items.SetPhoto(r.Context(), actorFrom(r), r.PathValue("id"), file); err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := h.Items.GetPhoto(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
