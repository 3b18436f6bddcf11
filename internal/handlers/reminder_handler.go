package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/hisabkitab/backend/internal/services"
)

type ReminderHandler struct {
	service   *services.ReminderService
	validator *services.ValidationHelper
}

func NewReminderHandler(service *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GenerateQR creates a payment reminder QR for a customer with dues
// @Summary Generate reminder QR
// @Description Generate a shareable QR encoding the customer's outstanding due
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{customerId=string} true "Reminder request"
// @Success 200 {object} object{code=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /reminders/qr [post]
func (h *ReminderHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		CustomerID string `json:"customerId" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	code, qrImage, err := h.service.GenerateReminderQR(r.Context(), userID, req.CustomerID)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"code":    code,
		"qrImage": qrImage,
	})
}

// ScanQR resolves a scanned reminder code
// @Summary Resolve reminder QR
// @Description Resolve and consume a scanned reminder code
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{code=string} true "Scanned code"
// @Success 200 {object} services.ReminderPayload
// @Failure 404 {object} services.ErrorResponse
// @Router /reminders/qr/scan [post]
func (h *ReminderHandler) ScanQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Code string `json:"code" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payload, err := h.service.ResolveReminderQR(r.Context(), req.Code)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
