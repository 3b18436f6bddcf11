package services

import (
	"database/sql"

	"github.com/hisabkitab/backend/internal/ledger"
	"github.com/hisabkitab/backend/internal/models"
	"github.com/shopspring/decimal"
)

// TimelineService builds the unified per-customer interaction feed. The
// feed is a read-time projection over the entry and message stores; nothing
// here is persisted.
type TimelineService struct {
	db *sql.DB
}

func NewTimelineService(db *sql.DB) *TimelineService {
	return &TimelineService{db: db}
}

// GetTimeline merges a customer's ledger entries and messages into one
// chronologically ascending feed and returns it with the current balance.
func (s *TimelineService) GetTimeline(userID, customerID string) ([]models.TimelineItem, decimal.Decimal, error) {
	if _, err := resolveCustomer(s.db, customerID, userID); err != nil {
		return nil, decimal.Zero, err
	}

	entries, err := listEntries(s.db, customerID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	messages, err := listMessages(s.db, customerID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return ledger.MergeTimeline(entries, messages), ledger.ComputeBalance(entries), nil
}
