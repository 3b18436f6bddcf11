package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/hisabkitab/backend/internal/ledger"
	"github.com/stretchr/testify/assert"
)

func TestReminderService_GenerateReminderQR(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewReminderService(db, redisClient)

	t.Run("generates QR for customer with dues", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, name, phone, created_at").
			WithArgs("cust1", "user1").
			WillReturnRows(customerRow("cust1", "user1"))
		mock.ExpectQuery("SELECT id, customer_id, amount, kind, description, occurred_at").
			WithArgs("cust1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "amount", "kind", "description", "occurred_at"}).
				AddRow("e1", "cust1", "1000", "DEBIT", "", time.Now()).
				AddRow("e2", "cust1", "300", "CREDIT", "", time.Now()))

		redisMock.Regexp().ExpectSet(`reminder:.+`, `.+`, 24*time.Hour).SetVal("OK")

		code, qrImage, err := service.GenerateReminderQR(context.Background(), "user1", "cust1")
		assert.NoError(t, err)
		assert.NotEmpty(t, code)
		assert.NotEmpty(t, qrImage)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("no due means no reminder", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, name, phone, created_at").
			WithArgs("cust1", "user1").
			WillReturnRows(customerRow("cust1", "user1"))
		mock.ExpectQuery("SELECT id, customer_id, amount, kind, description, occurred_at").
			WithArgs("cust1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "amount", "kind", "description", "occurred_at"}).
				AddRow("e1", "cust1", "500", "CREDIT", "", time.Now()))

		_, _, err := service.GenerateReminderQR(context.Background(), "user1", "cust1")
		assert.Error(t, err)
		assert.Equal(t, ledger.KindValidation, ledger.KindOf(err))
	})

	t.Run("unknown customer", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, name, phone, created_at").
			WithArgs("ghost", "user1").
			WillReturnError(sql.ErrNoRows)

		_, _, err := service.GenerateReminderQR(context.Background(), "user1", "ghost")
		assert.Error(t, err)
		assert.Equal(t, ledger.KindNotFound, ledger.KindOf(err))
	})

	t.Run("without redis the feature is unavailable", func(t *testing.T) {
		unavailable := NewReminderService(db, nil)
		_, _, err := unavailable.GenerateReminderQR(context.Background(), "user1", "cust1")
		assert.Error(t, err)
		assert.Equal(t, ledger.KindStorage, ledger.KindOf(err))
	})
}

func TestReminderService_ResolveReminderQR(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewReminderService(db, redisClient)

	t.Run("resolves and consumes a stored reminder", func(t *testing.T) {
		payload := ReminderPayload{
			CustomerID:   "cust1",
			CustomerName: "Ramesh",
			Due:          "700",
			Timestamp:    time.Now().Unix(),
			Nonce:        "abc",
		}
		data, _ := json.Marshal(payload)

		redisMock.ExpectGet("reminder:code123").SetVal(string(data))
		redisMock.ExpectDel("reminder:code123").SetVal(1)

		got, err := service.ResolveReminderQR(context.Background(), "code123")
		assert.NoError(t, err)
		assert.Equal(t, "cust1", got.CustomerID)
		assert.Equal(t, "700", got.Due)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("expired or unknown code", func(t *testing.T) {
		redisMock.ExpectGet("reminder:stale").RedisNil()

		_, err := service.ResolveReminderQR(context.Background(), "stale")
		assert.Error(t, err)
		assert.Equal(t, ledger.KindNotFound, ledger.KindOf(err))
	})
}

func TestReminderService_DueAmount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewReminderService(db, nil)

	t.Run("due equals absolute negative balance", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, name, phone, created_at").
			WithArgs("cust1", "user1").
			WillReturnRows(customerRow("cust1", "user1"))
		mock.ExpectQuery("SELECT id, customer_id, amount, kind, description, occurred_at").
			WithArgs("cust1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "amount", "kind", "description", "occurred_at"}).
				AddRow("e1", "cust1", "1000", "DEBIT", "", time.Now()).
				AddRow("e2", "cust1", "300", "CREDIT", "", time.Now()))

		due, err := service.DueAmount("user1", "cust1")
		assert.NoError(t, err)
		assert.Equal(t, "700", due.String())
	})

	t.Run("advance means zero due", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, name, phone, created_at").
			WithArgs("cust1", "user1").
			WillReturnRows(customerRow("cust1", "user1"))
		mock.ExpectQuery("SELECT id, customer_id, amount, kind, description, occurred_at").
			WithArgs("cust1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "amount", "kind", "description", "occurred_at"}).
				AddRow("e1", "cust1", "500", "CREDIT", "", time.Now()))

		due, err := service.DueAmount("user1", "cust1")
		assert.NoError(t, err)
		assert.True(t, due.IsZero())
	})
}
