package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hisabkitab/backend/internal/ledger"
	"github.com/hisabkitab/backend/internal/models"
	"github.com/shopspring/decimal"
)

type CustomerService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// CustomerRequest is the create-customer payload.
type CustomerRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100" example:"Ramesh Kumar"` // Customer name
	Phone string `json:"phone" validate:"required,min=4,max=20" example:"+919812345678"` // Customer phone number
}

func NewCustomerService(db *sql.DB) *CustomerService {
	return &CustomerService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// resolveCustomer loads a customer scoped by the acting user. A customer
// that is absent and one owned by another user are indistinguishable here:
// both come back as NotFound so responses never leak other users' books.
func resolveCustomer(db *sql.DB, customerID, userID string) (*models.Customer, error) {
	var c models.Customer
	err := db.QueryRow(`
		SELECT id, user_id, name, phone, created_at
		FROM customers
		WHERE id = $1 AND user_id = $2`, customerID, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.NewNotFoundError("Customer not found")
	}
	if err != nil {
		return nil, ledger.NewStorageError("resolve customer", err)
	}
	return &c, nil
}

// CreateCustomer adds a customer to the acting user's khata book
// @Summary Create a customer
// @Description Add a customer to the user's book
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CustomerRequest true "Customer data"
// @Success 201 {object} models.Customer
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /customers [post]
func (s *CustomerService) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CustomerRequest
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

	customer := models.Customer{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO customers (id, user_id, name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		customer.ID, customer.UserID, customer.Name, customer.Phone, customer.CreatedAt)
	if err != nil {
		SendLedgerError(w, ledger.NewStorageError("insert customer", err))
		return
	}

	log.Printf("[CUSTOMER] Created customer %s for user %s", customer.ID, userID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(customer)
}

// ListCustomers returns the user's customers, newest first, each with its
// current running balance recomputed from the ledger
// @Summary List customers
// @Description List the user's customers with live balances
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CustomerWithBalance
// @Failure 401 {object} ErrorResponse
// @Router /customers [get]
func (s *CustomerService) ListCustomers(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, name, phone, created_at
		FROM customers
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		SendLedgerError(w, ledger.NewStorageError("query customers", err))
		return
	}
	defer rows.Close()

	customers := []models.CustomerWithBalance{}
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			SendLedgerError(w, ledger.NewStorageError("scan customer", err))
			return
		}
		customers = append(customers, models.CustomerWithBalance{Customer: c, Balance: decimal.Zero})
	}
	if err := rows.Err(); err != nil {
		SendLedgerError(w, ledger.NewStorageError("iterate customers", err))
		return
	}

	balances, err := balancesByCustomer(s.db, userID)
	if err != nil {
		// A partial listing with misleading balances is worse than a
		// failed request.
		SendLedgerError(w, err)
		return
	}
	for i := range customers {
		if b, found := balances[customers[i].ID]; found {
			customers[i].Balance = b
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(customers)
}

// balancesByCustomer folds every ledger entry of the user's customers into
// per-customer balances in a single query.
func balancesByCustomer(db *sql.DB, userID string) (map[string]decimal.Decimal, error) {
	rows, err := db.Query(`
		SELECT e.customer_id, e.amount, e.kind
		FROM ledger_entries e
		JOIN customers c ON c.id = e.customer_id
		WHERE c.user_id = $1`, userID)
	if err != nil {
		return nil, ledger.NewStorageError("query balances", err)
	}
	defer rows.Close()

	byCustomer := map[string][]models.LedgerEntry{}
	for rows.Next() {
		var customerID string
		var e models.LedgerEntry
		if err := rows.Scan(&customerID, &e.Amount, &e.Kind); err != nil {
			return nil, ledger.NewStorageError("scan balance row", err)
		}
		byCustomer[customerID] = append(byCustomer[customerID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.NewStorageError("iterate balance rows", err)
	}

	balances := make(map[string]decimal.Decimal, len(byCustomer))
	for id, entries := range byCustomer {
		balances[id] = ledger.ComputeBalance(entries)
	}
	return balances, nil
}
