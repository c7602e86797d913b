package search

import (
	"fmt"
	"time"

	"github.com/tapestry-tools/tapestry/internal/branchtree"
	"github.com/tapestry-tools/tapestry/internal/convindex"
	"github.com/tapestry-tools/tapestry/internal/dedup"
	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/turns"
)

// Store is the external backing store the engine consumes from. It returns
// JSON-shaped payloads and, for an active text query, a precomputed
// relevance rank per message. The engine itself persists nothing.
type Store interface {
	// Query returns the message payload for the given query string. An
	// empty query returns all messages with no ranks; a non-empty query
	// returns the store's text matches with ranks when the store supports
	// ranked matching, or all messages with no ranks when it does not.
	Query(query string) (*models.StorePayload, error)

	// ConversationPayload returns one conversation's messages plus any
	// recorded tree nodes.
	ConversationPayload(convID string) (*models.StorePayload, error)

	// SourceLabels maps source ids to batch labels.
	SourceLabels() (map[string]string, error)

	// Annotations returns the optional per-conversation annotation rows.
	Annotations() (map[string]models.Annotation, error)
}

// Engine is the conversation reconstruction and ranked-search core. All of
// its operations are pure, synchronous transformations over the payloads
// the store hands back; they are cheap enough to re-run in full on every
// input change.
type Engine struct {
	store        Store
	relaxSources bool
	maxResults   int
}

// Option adjusts engine behavior at construction time.
type Option func(*Engine)

// WithSourceRelax controls whether a source-id restriction that matches
// nothing is widened to the unrestricted set. Enabled by default.
func WithSourceRelax(enabled bool) Option {
	return func(e *Engine) { e.relaxSources = enabled }
}

// WithMaxResults caps how many messages a single search returns. Zero or
// negative means no cap.
func WithMaxResults(n int) Option {
	return func(e *Engine) { e.maxResults = n }
}

// NewEngine creates a new search engine over the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, relaxSources: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is one ranked, facet-filtered search pass.
type Result struct {
	Messages            []models.Message
	Total               int
	SourceFilterRelaxed bool
	// Ranked reports whether an external relevance rank ordered the
	// result; false means the chronological fallback applied.
	Ranked bool
}

// Search runs the full pipeline: store query, sanitize, dedup, facet
// filter, ranked order. When the store matched the query text itself the
// local pass applies only the remaining facets.
func (e *Engine) Search(f models.SearchFacets) (*Result, error) {
	payload, err := e.store.Query(f.Query)
	if err != nil {
		return nil, fmt.Errorf("store query failed: %w", err)
	}

	msgs := dedup.Messages(models.Sanitize(payload.Messages))

	delegated := f.Query != "" && len(payload.Ranks) > 0
	filtered := Filter(msgs, f, !delegated, e.relaxSources)

	ordered := Order(filtered.Messages, payload.Ranks)
	if e.maxResults > 0 && len(ordered) > e.maxResults {
		ordered = ordered[:e.maxResults]
	}

	return &Result{
		Messages:            ordered,
		Total:               len(ordered),
		SourceFilterRelaxed: filtered.SourceFilterRelaxed,
		Ranked:              len(payload.Ranks) > 0,
	}, nil
}

// Conversations rebuilds the canonical conversation listing, ordered by
// recency.
func (e *Engine) Conversations() ([]models.ConversationSummary, error) {
	payload, err := e.store.Query("")
	if err != nil {
		return nil, fmt.Errorf("store query failed: %w", err)
	}

	labels, err := e.store.SourceLabels()
	if err != nil {
		return nil, fmt.Errorf("source labels: %w", err)
	}
	annotations, err := e.store.Annotations()
	if err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}

	msgs := dedup.Messages(models.Sanitize(payload.Messages))
	return convindex.Build(msgs, convindex.Options{
		SourceLabels: labels,
		Annotations:  annotations,
	}), nil
}

// Conversation loads one conversation's deduplicated messages in
// chronological order plus a branch navigator over its recorded tree. A
// conversation with no tree nodes yields a navigator that never restricts
// anything.
func (e *Engine) Conversation(convID string) ([]models.Message, *branchtree.Navigator, error) {
	payload, err := e.store.ConversationPayload(convID)
	if err != nil {
		return nil, nil, fmt.Errorf("conversation %s: %w", convID, err)
	}

	msgs := dedup.Messages(models.Sanitize(payload.Messages))
	msgs = Order(msgs, nil)

	return msgs, branchtree.NewNavigator(payload.Nodes), nil
}

// Turns loads one conversation, optionally restricts it to the branch
// containing target (by node or message id), and groups the result into
// display turns. An unresolvable target falls back to the full, linear
// view.
func (e *Engine) Turns(convID, target string, gap time.Duration) ([]models.Turn, error) {
	msgs, nav, err := e.Conversation(convID)
	if err != nil {
		return nil, err
	}

	if target != "" && nav.Select(target) {
		members := nav.MessageIDs()
		kept := make([]models.Message, 0, len(msgs))
		for _, m := range msgs {
			if members[m.MessageID] {
				kept = append(kept, m)
			}
		}
		msgs = kept
	}

	return turns.Group(msgs, gap), nil
}
