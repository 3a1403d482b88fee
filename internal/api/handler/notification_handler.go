package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
)

// NotificationHandler handles publish, list, and acknowledge endpoints
// scoped to a single box.
type NotificationHandler struct {
	delivery        *service.DeliveryCoordinator
	store           repository.NotificationStore
	validate        *validator.Validate
	defaultPageSize int
	logger          *zap.Logger
}

func NewNotificationHandler(
	delivery *service.DeliveryCoordinator,
	store repository.NotificationStore,
	validate *validator.Validate,
	defaultPageSize int,
	logger *zap.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		delivery:        delivery,
		store:           store,
		validate:        validate,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// Publish handles POST /box/{boxId}/notifications.
func (h *NotificationHandler) Publish(w http.ResponseWriter, r *http.Request) {
	boxID := chi.URLParam(r, "boxId")

	var req domain.PublishNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !req.MessageContentType.IsValid() {
		respondError(w, http.StatusUnprocessableEntity, domain.ErrInvalidContentType.Error())
		return
	}

	result, err := h.delivery.SaveAndMaybePush(r.Context(), boxID, req)
	if err != nil {
		h.logger.Error("save and maybe push failed", zap.String("box_id", boxID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch result.Outcome {
	case domain.DeliverySuccess:
		respondJSON(w, http.StatusCreated, result.Notification)
	case domain.DeliveryDuplicateSuppressed:
		respondJSON(w, http.StatusOK, result.Notification)
	case domain.DeliveryBoxNotFound:
		respondError(w, http.StatusNotFound, result.Reason)
	}
}

// List handles GET /box/{boxId}/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	boxID := chi.URLParam(r, "boxId")
	filter := h.parseListFilter(r)

	notifications, err := h.store.ListByBoxID(r.Context(), boxID, filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": notifications})
}

// Acknowledge handles PUT /box/{boxId}/notifications/acknowledge.
func (h *NotificationHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	boxID := chi.URLParam(r, "boxId")

	var req domain.AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Acknowledge reports success as soon as the write itself did not error;
	// a requested id that is missing or already terminal is not a failure
	// (spec.md §4.3, §8) — per-id matching detail is logged by the store.
	if _, err := h.store.Acknowledge(r.Context(), boxID, req.NotificationIDs); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to acknowledge notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}

func (h *NotificationHandler) parseListFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	filter := domain.ListFilter{Limit: h.defaultPageSize}

	if s := q.Get("status"); s != "" {
		st := domain.Status(s)
		filter.Status = &st
	}
	if f := q.Get("from"); f != "" {
		if t, err := time.Parse(time.RFC3339, f); err == nil {
			filter.From = &t
		}
	}
	if t := q.Get("to"); t != "" {
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			filter.To = &parsed
		}
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		filter.Limit = l
	}
	return filter
}
