package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hisabkitab/backend/internal/ledger"
	"github.com/hisabkitab/backend/internal/models"
	"github.com/shopspring/decimal"
)

// EntryService owns ledger entry CRUD. Entries are the correctable side of
// the khata: mutable only inside the edit window, read-only forever after.
type EntryService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// EntryRequest is the create-entry payload.
type EntryRequest struct {
	CustomerID  string          `json:"customerId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind" validate:"required"`
	Description string          `json:"description" validate:"max=500"`
}

// EntryUpdateRequest carries partial field changes for an entry. Omitted
// fields keep their stored value.
type EntryUpdateRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Kind        *string          `json:"kind,omitempty"`
	Description *string          `json:"description,omitempty"`
}

func NewEntryService(db *sql.DB) *EntryService {
	return &EntryService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// CreateEntry records a credit or debit against a customer
// @Summary Create a ledger entry
// @Description Record a CREDIT (money received) or DEBIT (money given) for a customer
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EntryRequest true "Entry data"
// @Success 201 {object} models.LedgerEntry
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /entries [post]
func (s *EntryService) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req EntryRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !req.Amount.IsPositive() {
		SendLedgerError(w, ledger.NewValidationError("Amount must be a positive number"))
		return
	}
	kind := models.EntryKind(req.Kind)
	if !kind.Valid() {
		SendLedgerError(w, ledger.NewValidationError("Kind must be CREDIT or DEBIT"))
		return
	}

	if _, err := resolveCustomer(s.db, req.CustomerID, userID); err != nil {
		SendLedgerError(w, err)
		return
	}

	entry := models.LedgerEntry{
		ID:          uuid.NewString(),
		CustomerID:  req.CustomerID,
		Amount:      req.Amount,
		Kind:        kind,
		Description: req.Description,
		OccurredAt:  time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO ledger_entries (id, customer_id, amount, kind, description, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.CustomerID, entry.Amount, entry.Kind, entry.Description, entry.OccurredAt)
	if err != nil {
		SendLedgerError(w, ledger.NewStorageError("insert entry", err))
		return
	}

	log.Printf("[ENTRY] Created %s entry %s for customer %s", entry.Kind, entry.ID, entry.CustomerID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

// ListEntries returns a customer's entries with the running balance
// @Summary List ledger entries
// @Description List a customer's entries, most recent first, with the current balance
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param customerId path string true "Customer ID"
// @Success 200 {object} object{entries=[]models.LedgerEntry,balance=string}
// @Failure 404 {object} ErrorResponse
// @Router /customers/{customerId}/entries [get]
func (s *EntryService) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	customerID := chi.URLParam(r, "customerId")
	if _, err := resolveCustomer(s.db, customerID, userID); err != nil {
		SendLedgerError(w, err)
		return
	}

	entries, err := listEntries(s.db, customerID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
		"balance": ledger.ComputeBalance(entries),
	})
}

// UpdateEntry applies partial changes to an entry inside the edit window
// @Summary Update a ledger entry
// @Description Correct amount, kind or description of an entry created less than an hour ago
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entryId path string true "Entry ID"
// @Param request body EntryUpdateRequest true "Fields to change"
// @Success 200 {object} models.LedgerEntry
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /entries/{entryId} [put]
func (s *EntryService) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req EntryUpdateRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if req.Amount != nil && !req.Amount.IsPositive() {
		SendLedgerError(w, ledger.NewValidationError("Amount must be a positive number"))
		return
	}
	if req.Kind != nil && !models.EntryKind(*req.Kind).Valid() {
		SendLedgerError(w, ledger.NewValidationError("Kind must be CREDIT or DEBIT"))
		return
	}

	entryID := chi.URLParam(r, "entryId")
	now := time.Now()

	entry, err := s.loadOwnedEntry(entryID, userID, now)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	if req.Amount != nil {
		entry.Amount = *req.Amount
	}
	if req.Kind != nil {
		entry.Kind = models.EntryKind(*req.Kind)
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}

	// The cutoff guard makes window check and mutation atomic against the
	// same wall clock reading: a concurrent expiry cannot slip through
	// between the pre-check and the UPDATE.
	result, err := s.db.Exec(`
		UPDATE ledger_entries
		SET amount = $1, kind = $2, description = $3
		WHERE id = $4 AND occurred_at > $5`,
		entry.Amount, entry.Kind, entry.Description, entryID, now.Add(-ledger.EditWindow))
	if err != nil {
		SendLedgerError(w, ledger.NewStorageError("update entry", err))
		return
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		SendLedgerError(w, ledger.NewEditWindowExpiredError("Cannot update entry older than 1 hour"))
		return
	}

	log.Printf("[ENTRY] Updated entry %s", entryID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// DeleteEntry removes an entry inside the edit window
// @Summary Delete a ledger entry
// @Description Delete an entry created less than an hour ago
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param entryId path string true "Entry ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /entries/{entryId} [delete]
func (s *EntryService) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	entryID := chi.URLParam(r, "entryId")
	now := time.Now()

	if _, err := s.loadOwnedEntry(entryID, userID, now); err != nil {
		SendLedgerError(w, err)
		return
	}

	result, err := s.db.Exec(`
		DELETE FROM ledger_entries
		WHERE id = $1 AND occurred_at > $2`,
		entryID, now.Add(-ledger.EditWindow))
	if err != nil {
		SendLedgerError(w, ledger.NewStorageError("delete entry", err))
		return
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		SendLedgerError(w, ledger.NewEditWindowExpiredError("Cannot delete entry older than 1 hour"))
		return
	}

	log.Printf("[ENTRY] Deleted entry %s", entryID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Entry deleted"})
}

// DashboardStats aggregates receivables and payables across all customers
// @Summary Dashboard totals
// @Description Total to collect (dues) and total to pay (advances) across the user's customers
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardStats
// @Failure 401 {object} ErrorResponse
// @Router /dashboard/stats [get]
func (s *EntryService) DashboardStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	// LEFT JOIN so customers with no entries still land in a bucket
	// (zero balance counts as payable).
	rows, err := s.db.Query(`
		SELECT c.id, e.amount, e.kind
		FROM customers c
		LEFT JOIN ledger_entries e ON e.customer_id = c.id
		WHERE c.user_id = $1`, userID)
	if err != nil {
		SendLedgerError(w, ledger.NewStorageError("query dashboard rows", err))
		return
	}
	defer rows.Close()

	byCustomer := map[string][]models.LedgerEntry{}
	for rows.Next() {
		var customerID string
		var amount sql.NullString
		var kind sql.NullString
		if err := rows.Scan(&customerID, &amount, &kind); err != nil {
			SendLedgerError(w, ledger.NewStorageError("scan dashboard row", err))
			return
		}
		if _, seen := byCustomer[customerID]; !seen {
			byCustomer[customerID] = nil
		}
		if amount.Valid && kind.Valid {
			value, err := decimal.NewFromString(amount.String)
			if err != nil {
				SendLedgerError(w, ledger.NewStorageError("parse amount", err))
				return
			}
			byCustomer[customerID] = append(byCustomer[customerID], models.LedgerEntry{
				Amount: value,
				Kind:   models.EntryKind(kind.String),
			})
		}
	}
	if err := rows.Err(); err != nil {
		// Fail the whole aggregate rather than return partially summed,
		// misleading totals.
		SendLedgerError(w, ledger.NewStorageError("iterate dashboard rows", err))
		return
	}

	balances := make([]decimal.Decimal, 0, len(byCustomer))
	for _, entries := range byCustomer {
		balances = append(balances, ledger.ComputeBalance(entries))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ledger.ComputeDashboardTotals(balances))
}

// loadOwnedEntry looks the entry up globally, then checks ownership and the
// edit window, so an entry owned by someone else reads as 403 and an
// expired one as its own failure rather than a generic 404.
func (s *EntryService) loadOwnedEntry(entryID, userID string, now time.Time) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var ownerID string
	err := s.db.QueryRow(`
		SELECT e.id, e.customer_id, e.amount, e.kind, e.description, e.occurred_at, c.user_id
		FROM ledger_entries e
		JOIN customers c ON c.id = e.customer_id
		WHERE e.id = $1`, entryID).
		Scan(&entry.ID, &entry.CustomerID, &entry.Amount, &entry.Kind, &entry.Description, &entry.OccurredAt, &ownerID)
	if err == sql.ErrNoRows {
		return nil, ledger.NewNotFoundError("Entry not found")
	}
	if err != nil {
		return nil, ledger.NewStorageError("load entry", err)
	}

	if ownerID != userID {
		return nil, ledger.NewAuthorizationError("Not authorized")
	}

	if !ledger.IsEditable(entry.OccurredAt, now) {
		return nil, ledger.NewEditWindowExpiredError("Entry is no longer editable")
	}

	return &entry, nil
}

// listEntries returns a customer's entries most-recent-first (storage
// order; the timeline re-sorts ascending for display).
func listEntries(db *sql.DB, customerID string) ([]models.LedgerEntry, error) {
	rows, err := db.Query(`
		SELECT id, customer_id, amount, kind, description, occurred_at
		FROM ledger_entries
		WHERE customer_id = $1
		ORDER BY occurred_at DESC`, customerID)
	if err != nil {
		return nil, ledger.NewStorageError("query entries", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Amount, &e.Kind, &e.Description, &e.OccurredAt); err != nil {
			return nil, ledger.NewStorageError("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.NewStorageError("iterate entries", err)
	}
	return entries, nil
}
