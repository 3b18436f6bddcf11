package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryCredit EntryKind = "CREDIT" // money received from the customer
	EntryDebit  EntryKind = "DEBIT"  // money/goods given to the customer on credit
)

// Valid reports whether k is one of the two defined kinds.
func (k EntryKind) Valid() bool {
	return k == EntryCredit || k == EntryDebit
}

// LedgerEntry is a single signed monetary movement against a customer's
// account. Amount is always positive; the sign comes from Kind.
type LedgerEntry struct {
	ID          string          `json:"id" db:"id"`
	CustomerID  string          `json:"customerId" db:"customer_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Kind        EntryKind       `json:"kind" db:"kind"`
	Description string          `json:"description,omitempty" db:"description"`
	OccurredAt  time.Time       `json:"occurredAt" db:"occurred_at"`
}

// Signed returns the entry amount with its sign applied: positive for
// CREDIT, negative for DEBIT.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Kind == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Customer is one account in a user's khata book.
type Customer struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type MessageDirection string

const (
	DirectionIncoming MessageDirection = "INCOMING"
	DirectionOutgoing MessageDirection = "OUTGOING"
)

type MessageKind string

const (
	MessageText  MessageKind = "TEXT"
	MessageImage MessageKind = "IMAGE"
)

// Message is one item of the communication log with a customer. Messages
// are immutable once created.
type Message struct {
	ID         string           `json:"id" db:"id"`
	CustomerID string           `json:"customerId" db:"customer_id"`
	Content    string           `json:"content,omitempty" db:"content"`
	MediaURL   string           `json:"mediaUrl,omitempty" db:"media_url"`
	Direction  MessageDirection `json:"direction" db:"direction"`
	Kind       MessageKind      `json:"kind" db:"kind"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
}

// TimelineItemType tags the variants of a timeline item.
type TimelineItemType string

const (
	TimelineEntry   TimelineItemType = "ENTRY"
	TimelineMessage TimelineItemType = "MESSAGE"
)

// TimelineItem is a view-time union of a ledger entry and a message,
// ordered by Timestamp. It is never persisted.
type TimelineItem struct {
	Type      TimelineItemType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Entry     *LedgerEntry     `json:"entry,omitempty"`
	Message   *Message         `json:"message,omitempty"`
}

// DashboardStats aggregates receivables and payables across all customers
// of a user. Both totals are non-negative.
type DashboardStats struct {
	TotalToCollect decimal.Decimal `json:"totalToCollect"` // sum of |balance| over customers with negative balance
	TotalToPay     decimal.Decimal `json:"totalToPay"`     // sum of balance over customers with balance >= 0
}

// CustomerWithBalance is the list-view shape: a customer plus its current
// running balance, recomputed on every read.
type CustomerWithBalance struct {
	Customer
	Balance decimal.Decimal `json:"balance"`
}
