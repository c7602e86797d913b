// Package convindex groups deduplicated messages into conversation
// summaries: one row per conversation id, ordered by recency, with resolved
// titles, sentinel-aware time ranges and derived tags.
package convindex

import (
	"fmt"
	"sort"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// Options carries the optional side inputs of the indexer.
type Options struct {
	// SourceLabels maps a source id to a human label for the batch tag.
	// A source id with no label tags with the raw id.
	SourceLabels map[string]string

	// Annotations is an external side-table keyed by conversation id.
	// A positive outlier count adds an outlier:<n> tag.
	Annotations map[string]models.Annotation
}

// Build produces one ConversationSummary per distinct conversation id,
// ordered most-recent first. Input must already be deduplicated; msgCount
// is simply the group size.
func Build(msgs []models.Message, opts Options) []models.ConversationSummary {
	groups := make(map[string][]models.Message)
	order := make([]string, 0)
	for _, m := range msgs {
		if _, seen := groups[m.ConversationID]; !seen {
			order = append(order, m.ConversationID)
		}
		groups[m.ConversationID] = append(groups[m.ConversationID], m)
	}

	summaries := make([]models.ConversationSummary, 0, len(groups))
	for _, convID := range order {
		group := groups[convID]
		summaries = append(summaries, summarize(convID, group, opts))
	}

	// Most recent first. Conversations with no usable timestamps sink to
	// the end; conversation id breaks ties so the order is total.
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.LastTs != b.LastTs {
			return a.LastTs > b.LastTs
		}
		return a.ConvID < b.ConvID
	})

	return summaries
}

func summarize(convID string, group []models.Message, opts Options) models.ConversationSummary {
	first, last := timeRange(group)
	earliest := earliestMessage(group)

	s := models.ConversationSummary{
		ConvID:   convID,
		Title:    resolveTitle(group, earliest),
		Vendor:   group[0].Vendor,
		MsgCount: len(group),
		FirstTs:  first,
		LastTs:   last,
	}

	if earliest.SourceID != "" {
		label := earliest.SourceID
		if l, ok := opts.SourceLabels[earliest.SourceID]; ok && l != "" {
			label = l
		}
		s.Tags = append(s.Tags, "batch:"+label)
	}
	if ann, ok := opts.Annotations[convID]; ok && ann.OutlierCount > 0 {
		s.Tags = append(s.Tags, fmt.Sprintf("outlier:%d", ann.OutlierCount))
	}

	return s
}

// resolveTitle picks a display title in priority order: the first message
// whose title differs from its own vendor string (a vendor name is a
// placeholder, not a title), then the chronologically first message's
// title, then "(untitled)".
func resolveTitle(group []models.Message, earliest models.Message) string {
	for _, m := range group {
		if m.Title != "" && m.Title != string(m.Vendor) {
			return m.Title
		}
	}
	if earliest.Title != "" {
		return earliest.Title
	}
	return "(untitled)"
}

// timeRange returns the min/max timestamps over the group, ignoring
// unavailable values. A group with no valid timestamp yields 0,0; callers
// sort such rows last rather than failing.
func timeRange(group []models.Message) (first, last int64) {
	for _, m := range group {
		if !models.ValidTimestamp(m.CreatedAt) {
			continue
		}
		if first == 0 || m.CreatedAt < first {
			first = m.CreatedAt
		}
		if m.CreatedAt > last {
			last = m.CreatedAt
		}
	}
	return first, last
}

// earliestMessage returns the chronologically first message of the group,
// falling back to input order when no timestamps are usable.
func earliestMessage(group []models.Message) models.Message {
	best := group[0]
	bestTs := int64(0)
	for _, m := range group {
		if !models.ValidTimestamp(m.CreatedAt) {
			continue
		}
		if bestTs == 0 || m.CreatedAt < bestTs {
			best = m
			bestTs = m.CreatedAt
		}
	}
	return best
}
