package imports

import (
	"github.com/tapestry-tools/tapestry/internal/models"
)

// CountOutliers finds messages whose timestamps run backwards relative to
// their conversation's export order. Editing or regenerating a message in a
// vendor UI rewrites its timestamp, so a backwards jump marks a record that
// no longer sits where the conversation actually happened. The counts feed
// the per-conversation annotation table.
func CountOutliers(msgs []models.Message) map[string]int {
	lastSeen := make(map[string]int64)
	counts := make(map[string]int)

	for _, m := range msgs {
		if !models.ValidTimestamp(m.CreatedAt) {
			continue
		}
		if last, ok := lastSeen[m.ConversationID]; ok && m.CreatedAt < last {
			counts[m.ConversationID]++
			continue
		}
		lastSeen[m.ConversationID] = m.CreatedAt
	}

	return counts
}
