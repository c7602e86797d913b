// Package turns collapses consecutive same-role messages into display
// turns using a time-gap heuristic. Turns are ephemeral: recomputed on
// every render, never persisted.
package turns

import (
	"fmt"
	"time"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// DefaultGap is the threshold past which consecutive same-role messages
// start a new turn.
const DefaultGap = 7 * time.Minute

// Group iterates messages in ascending timestamp order and starts a new
// turn when the role changes or the gap since the turn's last message
// exceeds the threshold. Messages with unavailable timestamps never force a
// time split; only a role change can separate them. Empty input yields an
// empty result.
func Group(msgs []models.Message, gap time.Duration) []models.Turn {
	if gap <= 0 {
		gap = DefaultGap
	}
	gapSecs := int64(gap / time.Second)

	var out []models.Turn
	for _, m := range msgs {
		if len(out) > 0 && fits(&out[len(out)-1], m, gapSecs) {
			t := &out[len(out)-1]
			t.Items = append(t.Items, m)
			if models.ValidTimestamp(m.CreatedAt) {
				if t.TsStart == 0 || m.CreatedAt < t.TsStart {
					t.TsStart = m.CreatedAt
				}
				if m.CreatedAt > t.TsEnd {
					t.TsEnd = m.CreatedAt
				}
			}
			continue
		}

		turn := models.Turn{
			ID:     fmt.Sprintf("turn-%d", len(out)),
			Role:   m.Role,
			Vendor: m.Vendor,
			Items:  []models.Message{m},
		}
		if models.ValidTimestamp(m.CreatedAt) {
			turn.TsStart = m.CreatedAt
			turn.TsEnd = m.CreatedAt
		}
		out = append(out, turn)
	}

	return out
}

// fits reports whether m belongs to the current turn: same role, and within
// the gap threshold when both sides carry usable timestamps.
func fits(t *models.Turn, m models.Message, gapSecs int64) bool {
	if m.Role != t.Role {
		return false
	}
	last := t.Items[len(t.Items)-1]
	if !models.ValidTimestamp(m.CreatedAt) || !models.ValidTimestamp(last.CreatedAt) {
		return true
	}
	delta := m.CreatedAt - last.CreatedAt
	if delta < 0 {
		delta = -delta
	}
	return delta <= gapSecs
}
