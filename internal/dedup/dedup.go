// Package dedup collapses a raw message stream to one record per unique
// message identity. The uid is the sole deduplication key: two messages
// sharing a uid are the same logical message no matter how their other
// fields differ.
package dedup

import (
	"github.com/tapestry-tools/tapestry/internal/models"
)

// Messages returns the input reduced to one entry per uid.
//
// Policy: last occurrence wins. When duplicates differ, the later entry in
// input order overwrites the earlier one, because later passes of an
// incremental sync are assumed to carry corrected data. The retained record
// keeps the position of the uid's first occurrence, so the output order is
// stable across re-imports. This is an order-dependent policy and is pinned
// by tests.
func Messages(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	index := make(map[string]int, len(msgs))

	for _, m := range msgs {
		if at, seen := index[m.UID]; seen {
			out[at] = m
			continue
		}
		index[m.UID] = len(out)
		out = append(out, m)
	}

	return out
}
