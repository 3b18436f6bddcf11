package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEditable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fresh entry is editable", func(t *testing.T) {
		assert.True(t, IsEditable(now, now))
		assert.True(t, IsEditable(now.Add(-time.Minute), now))
		assert.True(t, IsEditable(now.Add(-59*time.Minute), now))
	})

	t.Run("window boundary", func(t *testing.T) {
		assert.True(t, IsEditable(now.Add(-3599*time.Second), now))
		assert.False(t, IsEditable(now.Add(-3600*time.Second), now))
		assert.False(t, IsEditable(now.Add(-3601*time.Second), now))
	})

	t.Run("old entries stay locked", func(t *testing.T) {
		assert.False(t, IsEditable(now.Add(-24*time.Hour), now))
	})
}
