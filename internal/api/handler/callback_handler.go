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

// CallbackHandler handles the box subscriber binding endpoint.
type CallbackHandler struct {
	validator *service.CallbackValidator
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewCallbackHandler(v *service.CallbackValidator, validate *validator.Validate, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{validator: v, validate: validate, logger: logger}
}

// Update handles PUT /box/{boxId}/callback.
func (h *CallbackHandler) Update(w http.ResponseWriter, r *http.Request) {
	boxID := chi.URLParam(r, "boxId")

	var req domain.UpdateCallbackUrlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := h.validator.ValidateCallbackURL(r.Context(), boxID, req)
	if err != nil {
		h.logger.Error("validate callback url failed", zap.String("box_id", boxID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch result.Outcome {
	case domain.CallbackUpdated:
		respondJSON(w, http.StatusOK, result.Box)
	case domain.CallbackBoxNotFound:
		respondError(w, http.StatusNotFound, result.Reason)
	case domain.CallbackUnauthorized:
		respondError(w, http.StatusForbidden, result.Reason)
	case domain.CallbackValidationFailed:
		respondError(w, http.StatusUnprocessableEntity, result.Reason)
	case domain.CallbackUnableToUpdate:
		respondError(w, http.StatusServiceUnavailable, result.Reason)
	}
}
