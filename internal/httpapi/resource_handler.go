package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/persistence"
)

var errInvalidOperatingHours = errors.New("open_hour must be before close_hour within 0 and 24")

// ResourceHandler serves the resource catalog endpoints. Listing and reading
// are open to any caller; mutations require an administrator.
type ResourceHandler struct {
	repository  persistence.ResourceRepository
	idGenerator func() string
	now         func() time.Time
	responder   responder
}

// NewResourceHandler wires the handler dependencies.
func NewResourceHandler(repository persistence.ResourceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceHandler {
	if now == nil {
		now = time.Now
	}
	return &ResourceHandler{
		repository:  repository,
		idGenerator: idGenerator,
		now:         now,
		responder:   newResponder(logger),
	}
}

type resourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	OpenHour    int    `json:"open_hour"`
	CloseHour   int    `json:"close_hour"`
	Open24Hours bool   `json:"open_24_hours"`
	Restricted  bool   `json:"restricted"`
}

func (req resourceRequest) validate() error {
	if strings.TrimSpace(req.Title) == "" {
		return errors.New("title is required")
	}
	if req.Open24Hours {
		return nil
	}
	if req.OpenHour < 0 || req.OpenHour > 23 || req.CloseHour < 1 || req.CloseHour > 24 || req.OpenHour >= req.CloseHour {
		return errInvalidOperatingHours
	}
	return nil
}

// Create handles POST /resources.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.repository == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if !principal.IsAdmin {
		h.responder.handleServiceError(r.Context(), w, booking.ErrUnauthorized)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := req.validate(); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusUnprocessableEntity, err)
		return
	}

	now := h.now().UTC()
	resource := persistence.Resource{
		ID:          h.idGenerator(),
		Title:       strings.TrimSpace(req.Title),
		OpenHour:    req.OpenHour,
		CloseHour:   req.CloseHour,
		Open24Hours: req.Open24Hours,
		Restricted:  req.Restricted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if description := strings.TrimSpace(req.Description); description != "" {
		resource.Description = &description
	}
	if location := strings.TrimSpace(req.Location); location != "" {
		resource.Location = &location
	}

	if err := h.repository.CreateResource(r.Context(), resource); err != nil {
		h.handleRepositoryError(w, r, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toResourceDTO(resource))
}

// Update handles PUT /resources/{id}.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.repository == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if !principal.IsAdmin {
		h.responder.handleServiceError(r.Context(), w, booking.ErrUnauthorized)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := req.validate(); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusUnprocessableEntity, err)
		return
	}

	resource, err := h.repository.GetResource(r.Context(), resourceID)
	if err != nil {
		h.handleRepositoryError(w, r, err)
		return
	}

	resource.Title = strings.TrimSpace(req.Title)
	resource.OpenHour = req.OpenHour
	resource.CloseHour = req.CloseHour
	resource.Open24Hours = req.Open24Hours
	resource.Restricted = req.Restricted
	resource.UpdatedAt = h.now().UTC()
	resource.Description = nil
	if description := strings.TrimSpace(req.Description); description != "" {
		resource.Description = &description
	}
	resource.Location = nil
	if location := strings.TrimSpace(req.Location); location != "" {
		resource.Location = &location
	}

	if err := h.repository.UpdateResource(r.Context(), resource); err != nil {
		h.handleRepositoryError(w, r, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

// Get handles GET /resources/{id}.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.repository == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	resource, err := h.repository.GetResource(r.Context(), resourceID)
	if err != nil {
		h.handleRepositoryError(w, r, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

// List handles GET /resources.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.repository == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resources, err := h.repository.ListResources(r.Context())
	if err != nil {
		h.handleRepositoryError(w, r, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{
		Resources: toResourceDTOs(resources),
	})
}

// Delete handles DELETE /resources/{id}.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.repository == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if !principal.IsAdmin {
		h.responder.handleServiceError(r.Context(), w, booking.ErrUnauthorized)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	if err := h.repository.DeleteResource(r.Context(), resourceID); err != nil {
		h.handleRepositoryError(w, r, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ResourceHandler) handleRepositoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		h.responder.handleServiceError(r.Context(), w, booking.ErrResourceNotFound)
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		h.responder.writeJSON(r.Context(), w, http.StatusConflict, errorResponse{
			ErrorCode: "RESOURCE_IN_USE",
			Message:   "The resource has reservations and cannot be deleted.",
		})
	case errors.Is(err, persistence.ErrDuplicate):
		h.responder.writeJSON(r.Context(), w, http.StatusConflict, errorResponse{
			ErrorCode: "RESOURCE_EXISTS",
			Message:   "A resource with this id already exists.",
		})
	default:
		h.responder.handleServiceError(r.Context(), w, err)
	}
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}
