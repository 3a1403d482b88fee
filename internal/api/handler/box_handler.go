package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/service"
)

// BoxHandler handles box creation and lookup endpoints.
type BoxHandler struct {
	boxes    *service.BoxRegistry
	validate *validator.Validate
	logger   *zap.Logger
}

func NewBoxHandler(boxes *service.BoxRegistry, validate *validator.Validate, logger *zap.Logger) *BoxHandler {
	return &BoxHandler{boxes: boxes, validate: validate, logger: logger}
}

// CreateOrRetrieve handles PUT /box — creates a new box or returns the
// existing one for the same (boxName, clientId) pair.
func (h *BoxHandler) CreateOrRetrieve(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBoxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result := h.boxes.CreateBox(r.Context(), req)
	switch result.Outcome {
	case domain.BoxCreated:
		respondJSON(w, http.StatusCreated, result.Box)
	case domain.BoxRetrieved:
		respondJSON(w, http.StatusOK, result.Box)
	default:
		respondError(w, http.StatusServiceUnavailable, result.Reason)
	}
}

// Get handles GET /box/{boxId}.
func (h *BoxHandler) Get(w http.ResponseWriter, r *http.Request) {
	boxID := chi.URLParam(r, "boxId")
	box, err := h.boxes.GetBox(r.Context(), boxID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, box)
}

// GetByNameAndClient handles GET /box?boxName&clientId — getBoxByNameAndClientId
// (spec.md §4.1, §6).
func (h *BoxHandler) GetByNameAndClient(w http.ResponseWriter, r *http.Request) {
	boxName := r.URL.Query().Get("boxName")
	clientID := r.URL.Query().Get("clientId")
	if boxName == "" || clientID == "" {
		respondError(w, http.StatusBadRequest, "boxName and clientId query parameters are required")
		return
	}

	box, err := h.boxes.GetBoxByNameAndClientID(r.Context(), boxName, clientID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, box)
}

// ListByClient handles GET /client/{clientId}/boxes.
func (h *BoxHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")
	boxes, err := h.boxes.ListBoxesByClientID(r.Context(), clientID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list boxes")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": boxes})
}
