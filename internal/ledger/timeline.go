package ledger

import (
	"sort"

	"github.com/hisabkitab/backend/internal/models"
)

// MergeTimeline combines a customer's ledger entries and messages into one
// chronologically ascending feed. Entries are tagged with occurredAt,
// messages with createdAt. The sort is stable and entries are concatenated
// before messages, so items with equal timestamps keep a deterministic
// order regardless of how the inputs were fetched.
func MergeTimeline(entries []models.LedgerEntry, messages []models.Message) []models.TimelineItem {
	items := make([]models.TimelineItem, 0, len(entries)+len(messages))

	for i := range entries {
		items = append(items, models.TimelineItem{
			Type:      models.TimelineEntry,
			Timestamp: entries[i].OccurredAt,
			Entry:     &entries[i],
		})
	}
	for i := range messages {
		items = append(items, models.TimelineItem{
			Type:      models.TimelineMessage,
			Timestamp: messages[i].CreatedAt,
			Message:   &messages[i],
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.Before(items[j].Timestamp)
	})

	return items
}
