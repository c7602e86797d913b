package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Vendor identifies which assistant produced a message.
type Vendor string

const (
	VendorClaude  Vendor = "claude"
	VendorChatGPT Vendor = "chatgpt"
	VendorGemini  Vendor = "gemini"
	VendorCopilot Vendor = "copilot"
)

// Vendors lists the supported vendors in a fixed order.
var Vendors = []Vendor{VendorClaude, VendorChatGPT, VendorGemini, VendorCopilot}

// KnownVendor reports whether v is one of the supported vendors.
func KnownVendor(v Vendor) bool {
	for _, known := range Vendors {
		if v == known {
			return true
		}
	}
	return false
}

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Roles lists the supported roles in a fixed order.
var Roles = []Role{RoleUser, RoleAssistant, RoleTool, RoleSystem}

// KnownRole reports whether r is one of the supported roles.
func KnownRole(r Role) bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Timestamp handling. Export producers disagree on units (seconds vs
// milliseconds) and use zero as a "no date recorded" marker, so both are
// normalized once, at the ingestion boundary.
const (
	// TimestampSentinel is the cutoff at or below which a timestamp is
	// treated as unavailable rather than as a real date.
	TimestampSentinel int64 = 0

	// millisThreshold: any unix value past this is assumed to be in
	// milliseconds. 1e12 as seconds is the year 33658; as ms it is 2001.
	millisThreshold int64 = 1_000_000_000_000
)

// NormalizeTimestamp converts a raw export timestamp to unix seconds.
// Millisecond values are scaled down; sentinel values collapse to 0.
func NormalizeTimestamp(ts int64) int64 {
	if ts > millisThreshold {
		ts /= 1000
	}
	if ts <= TimestampSentinel {
		return 0
	}
	return ts
}

// ValidTimestamp reports whether ts carries a usable date.
func ValidTimestamp(ts int64) bool {
	return ts > TimestampSentinel
}

// Message is one chat turn fragment as returned by the backing store.
type Message struct {
	UID            string         `json:"uid"`
	ConversationID string         `json:"conversationId"`
	MessageID      string         `json:"messageId"`
	SourceID       string         `json:"sourceId"`
	Vendor         Vendor         `json:"vendor"`
	Role           Role           `json:"role"`
	CreatedAt      int64          `json:"createdAt"` // unix seconds, 0 = unavailable
	Text           string         `json:"text"`
	Title          string         `json:"title"`
	FolderPath     string         `json:"folderPath,omitempty"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// Valid reports whether the record carries the fields every downstream
// component depends on. Invalid records are dropped at the boundary, never
// surfaced as errors.
func (m Message) Valid() bool {
	return m.UID != "" && m.ConversationID != "" && m.Vendor != "" && m.Text != ""
}

// Time returns the message timestamp as a time.Time, or the zero value when
// the timestamp is unavailable.
func (m Message) Time() time.Time {
	if !ValidTimestamp(m.CreatedAt) {
		return time.Time{}
	}
	return time.Unix(m.CreatedAt, 0).UTC()
}

// Sanitize validates and normalizes a raw message batch: records missing
// required fields are dropped, timestamps are normalized to unix seconds,
// and an empty role defaults to user. Every component past this point may
// assume fully populated records.
func Sanitize(raw []Message) []Message {
	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		if !m.Valid() {
			continue
		}
		m.CreatedAt = NormalizeTimestamp(m.CreatedAt)
		if m.Role == "" {
			m.Role = RoleUser
		}
		m.Title = strings.TrimSpace(m.Title)
		out = append(out, m)
	}
	return out
}

// ConversationSummary is one row per unique conversation id.
type ConversationSummary struct {
	ConvID   string   `json:"convId"`
	Title    string   `json:"title"`
	Vendor   Vendor   `json:"vendor"`
	MsgCount int      `json:"msgCount"`
	FirstTs  int64    `json:"firstTs"`
	LastTs   int64    `json:"lastTs"`
	Tags     []string `json:"tags,omitempty"`
}

// IDList is an ordered list of node ids that may arrive either as a JSON
// array or as a JSON-encoded string containing an array. Parse failure
// yields an empty list rather than an error.
type IDList []string

// UnmarshalJSON accepts ["a","b"], "[\"a\",\"b\"]", or null.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		*l = ids
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		var inner []string
		if err := json.Unmarshal([]byte(encoded), &inner); err == nil {
			*l = inner
			return nil
		}
	}
	*l = nil
	return nil
}

// TreeNode is one fork-structure node, present only for conversations whose
// backing store recorded branching.
type TreeNode struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	ParentID       string `json:"parent_id"`
	ChildrenIDs    IDList `json:"children_ids"`
	Depth          int    `json:"depth"`
	IsRoot         bool   `json:"is_root"`
	IsBranchPoint  bool   `json:"is_branch_point"`
}

// Turn is an ephemeral display grouping of consecutive same-role messages.
// Never persisted.
type Turn struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Vendor  Vendor    `json:"vendor"`
	TsStart int64     `json:"tsStart"`
	TsEnd   int64     `json:"tsEnd"`
	Items   []Message `json:"items"`
}

// SearchFacets is the active filter/ordering request.
type SearchFacets struct {
	Query     string     `json:"query"`
	Vendor    Vendor     `json:"vendor"` // empty or "all" = any vendor
	Role      Role       `json:"role"`   // empty or "any" = any role
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"` // inclusive of the whole end day
	SourceIDs []string   `json:"sourceIds,omitempty"`
	Regex     bool       `json:"regex"`
	TitleBody bool       `json:"titleBody"`
}

// Fingerprint derives a stable string from the active query and facets. The
// paginator compares fingerprints across calls to decide when to reset to
// the first page.
func (f SearchFacets) Fingerprint() string {
	sources := append([]string(nil), f.SourceIDs...)
	sort.Strings(sources)
	from, to := "", ""
	if f.From != nil {
		from = f.From.UTC().Format("2006-01-02")
	}
	if f.To != nil {
		to = f.To.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("q=%s|v=%s|r=%s|from=%s|to=%s|src=%s|re=%t|tb=%t",
		f.Query, f.Vendor, f.Role, from, to, strings.Join(sources, ","), f.Regex, f.TitleBody)
}

// Annotation is an optional external side-table row keyed by conversation id.
type Annotation struct {
	ConvID       string `json:"convId"`
	OutlierCount int    `json:"outlierCount"`
}

// StorePayload is the JSON-shaped result of one backing-store query. The
// conversation listing is not part of the payload; it is derived from the
// messages by the conversation indexer.
type StorePayload struct {
	Messages []Message  `json:"messages"`
	HasTree  bool       `json:"hasTree"`
	Schema   string     `json:"schema"`
	Nodes    []TreeNode `json:"nodes,omitempty"`
	// Ranks carries the externally computed relevance score per message
	// uid when the query text was matched by the store itself.
	Ranks map[string]float64 `json:"ranks,omitempty"`
}

// ImportStats tracks import statistics.
type ImportStats struct {
	ConversationsImported int
	MessagesImported      int
	NodesImported         int
	SkippedRecords        int
	Duration              time.Duration
	Errors                []error
}
