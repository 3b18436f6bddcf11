package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hisabkitab/backend/internal/services"
)

type TimelineHandler struct {
	service *services.TimelineService
}

func NewTimelineHandler(service *services.TimelineService) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// GetTimeline returns the merged entry/message feed for one customer
// @Summary Customer timeline
// @Description Ledger entries and messages merged into one chronological feed
// @Tags timeline
// @Produce json
// @Security BearerAuth
// @Param customerId path string true "Customer ID"
// @Success 200 {object} object{timeline=[]models.TimelineItem,balance=string}
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{customerId}/timeline [get]
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	customerID := chi.URLParam(r, "customerId")

	timeline, balance, err := h.service.GetTimeline(userID, customerID)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"timeline": timeline,
		"balance":  balance,
	})
}
