package ledger

import "time"

// EditWindow is how long a ledger entry stays mutable after it occurred.
// Past the window an entry is settled financial history and can never be
// updated or deleted again.
const EditWindow = time.Hour

// IsEditable reports whether an entry that occurred at occurredAt may still
// be modified at now. The window is half-open: an entry aged exactly
// EditWindow is no longer editable. This check is authoritative on the
// server; client-side enablement is advisory only.
func IsEditable(occurredAt, now time.Time) bool {
	return now.Sub(occurredAt) < EditWindow
}
