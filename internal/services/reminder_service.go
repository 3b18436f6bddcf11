package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hisabkitab/backend/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// ReminderService generates shareable payment reminder QR codes for
// customers with an outstanding due. The payload lives in Redis with a TTL
// and is consumed on scan, so a reminder cannot be replayed.
type ReminderService struct {
	db    *sql.DB
	redis *redis.Client
	ttl   time.Duration
}

// ReminderPayload is what a scanned reminder resolves to.
type ReminderPayload struct {
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
	Due          string `json:"due"`
	Timestamp    int64  `json:"timestamp"`
	Nonce        string `json:"nonce"`
}

func NewReminderService(db *sql.DB, redisClient *redis.Client) *ReminderService {
	return &ReminderService{
		db:    db,
		redis: redisClient,
		ttl:   24 * time.Hour,
	}
}

// GenerateReminderQR computes the customer's current due and encodes it
// into a QR image (base64 PNG). Fails if the customer holds no due.
func (s *ReminderService) GenerateReminderQR(ctx context.Context, userID, customerID string) (string, string, error) {
	if s.redis == nil {
		return "", "", ledger.NewStorageError("reminder QR unavailable", errors.New("redis not configured"))
	}

	customer, err := resolveCustomer(s.db, customerID, userID)
	if err != nil {
		return "", "", err
	}

	entries, err := listEntries(s.db, customerID)
	if err != nil {
		return "", "", err
	}

	balance := ledger.ComputeBalance(entries)
	if !balance.IsNegative() {
		return "", "", ledger.NewValidationError("Customer has no outstanding due")
	}
	due := balance.Abs()

	payload := ReminderPayload{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Due:          due.String(),
		Timestamp:    time.Now().Unix(),
		Nonce:        s.generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", ledger.NewStorageError("marshal reminder", err)
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("reminder:%s", code)
	if err := s.redis.Set(ctx, key, jsonData, s.ttl).Err(); err != nil {
		return "", "", ledger.NewStorageError("store reminder", err)
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", ledger.NewStorageError("encode reminder QR", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", ledger.NewStorageError("render reminder QR", err)
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return code, qrImage, nil
}

// ResolveReminderQR consumes a scanned reminder code and returns its
// payload. A code is single-use; resolving it deletes it.
func (s *ReminderService) ResolveReminderQR(ctx context.Context, code string) (*ReminderPayload, error) {
	if s.redis == nil {
		return nil, ledger.NewStorageError("reminder QR unavailable", errors.New("redis not configured"))
	}

	key := fmt.Sprintf("reminder:%s", code)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ledger.NewNotFoundError("Invalid or expired reminder")
	}
	if err != nil {
		return nil, ledger.NewStorageError("load reminder", err)
	}

	var payload ReminderPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, ledger.NewStorageError("decode reminder", err)
	}

	s.redis.Del(ctx, key)

	return &payload, nil
}

// DueAmount reports how much the customer owes right now, zero when the
// balance is non-negative.
func (s *ReminderService) DueAmount(userID, customerID string) (decimal.Decimal, error) {
	if _, err := resolveCustomer(s.db, customerID, userID); err != nil {
		return decimal.Zero, err
	}
	entries, err := listEntries(s.db, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := ledger.ComputeBalance(entries)
	if balance.IsNegative() {
		return balance.Abs(), nil
	}
	return decimal.Zero, nil
}

func (s *ReminderService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
