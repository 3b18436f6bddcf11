package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCustomerService_CreateCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCustomerService(db)

	t.Run("successful create", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO customers").
			WithArgs(sqlmock.AnyArg(), "user1", "Ramesh Kumar", "+919812345678", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		body := jsonBody(t, map[string]any{
			"name":  "Ramesh Kumar",
			"phone": "+919812345678",
		})
		w := httptest.NewRecorder()

		service.CreateCustomer(w, authedRequest("POST", "/customers", body, "user1"))

		assert.Equal(t, http.StatusCreated, w.Code)
		var customer map[string]any
		json.Unmarshal(w.Body.Bytes(), &customer)
		assert.Equal(t, "Ramesh Kumar", customer["name"])
		assert.NotEmpty(t, customer["id"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing phone fails validation", func(t *testing.T) {
		body := jsonBody(t, map[string]any{"name": "Ramesh"})
		w := httptest.NewRecorder()

		service.CreateCustomer(w, authedRequest("POST", "/customers", body, "user1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Validation failed")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		body := jsonBody(t, map[string]any{"name": "Ramesh", "phone": "123456"})
		w := httptest.NewRecorder()
		service.CreateCustomer(w, httptest.NewRequest("POST", "/customers", body))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCustomerService_ListCustomers(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCustomerService(db)

	t.Run("customers come back with live balances", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("FROM customers").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "phone", "created_at"}).
				AddRow("cust2", "user1", "Sita", "+911111111111", now).
				AddRow("cust1", "user1", "Ramesh", "+912222222222", now.Add(-time.Hour)))
		mock.ExpectQuery("FROM ledger_entries e").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"customer_id", "amount", "kind"}).
				AddRow("cust1", "1000", "DEBIT").
				AddRow("cust1", "300", "CREDIT"))

		w := httptest.NewRecorder()
		service.ListCustomers(w, authedRequest("GET", "/customers", nil, "user1"))

		assert.Equal(t, http.StatusOK, w.Code)
		var customers []struct {
			ID      string `json:"id"`
			Balance string `json:"balance"`
		}
		json.Unmarshal(w.Body.Bytes(), &customers)
		assert.Len(t, customers, 2)
		assert.Equal(t, "cust2", customers[0].ID) // newest first
		assert.Equal(t, "0", customers[0].Balance)
		assert.Equal(t, "-700", customers[1].Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("balance query failure fails the listing", func(t *testing.T) {
		mock.ExpectQuery("FROM customers").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "phone", "created_at"}).
				AddRow("cust1", "user1", "Ramesh", "+912222222222", time.Now()))
		mock.ExpectQuery("FROM ledger_entries e").
			WithArgs("user1").
			WillReturnError(assert.AnError)

		w := httptest.NewRecorder()
		service.ListCustomers(w, authedRequest("GET", "/customers", nil, "user1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
