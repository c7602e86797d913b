package search

import (
	"strings"
	"testing"
	"time"

	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/turns"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	messages    []models.Message
	nodes       map[string][]models.TreeNode
	labels      map[string]string
	annotations map[string]models.Annotation
	ranked      bool
}

func (s *fakeStore) Query(query string) (*models.StorePayload, error) {
	payload := &models.StorePayload{Schema: "v1"}
	if query == "" || !s.ranked {
		payload.Messages = s.messages
		return payload, nil
	}
	// Simulate a store-side text match with a rank proportional to hit
	// position, the way an FTS backend would.
	needle := strings.ToLower(query)
	payload.Ranks = map[string]float64{}
	for _, m := range s.messages {
		if strings.Contains(strings.ToLower(m.Text), needle) {
			payload.Messages = append(payload.Messages, m)
			payload.Ranks[m.UID] = 1.0 / float64(len(payload.Messages))
		}
	}
	return payload, nil
}

func (s *fakeStore) ConversationPayload(convID string) (*models.StorePayload, error) {
	payload := &models.StorePayload{Schema: "v1"}
	for _, m := range s.messages {
		if m.ConversationID == convID {
			payload.Messages = append(payload.Messages, m)
		}
	}
	payload.Nodes = s.nodes[convID]
	payload.HasTree = len(payload.Nodes) > 0
	return payload, nil
}

func (s *fakeStore) SourceLabels() (map[string]string, error) {
	return s.labels, nil
}

func (s *fakeStore) Annotations() (map[string]models.Annotation, error) {
	return s.annotations, nil
}

func seededStore() *fakeStore {
	mk := func(uid, conv string, role models.Role, ts int64, text string) models.Message {
		return models.Message{
			UID: uid, ConversationID: conv, MessageID: "m-" + uid,
			Vendor: models.VendorClaude, Role: role, CreatedAt: ts,
			Text: text, Title: "Test thread",
		}
	}
	return &fakeStore{
		messages: []models.Message{
			mk("1", "c1", models.RoleUser, 1000, "how do goroutines work"),
			mk("2", "c1", models.RoleAssistant, 1060, "goroutines are lightweight threads"),
			mk("2", "c1", models.RoleAssistant, 1060, "goroutines are green threads"), // duplicate uid, later wins
			mk("3", "c2", models.RoleUser, 2000, "unrelated python question"),
		},
		ranked: true,
	}
}

func TestSearchDeduplicatesBeforeFiltering(t *testing.T) {
	engine := NewEngine(seededStore())
	res, err := engine.Search(models.SearchFacets{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 {
		t.Fatalf("expected 3 deduplicated messages, got %d", res.Total)
	}
	for _, m := range res.Messages {
		if m.UID == "2" && m.Text != "goroutines are green threads" {
			t.Errorf("last-occurrence duplicate should win, got %q", m.Text)
		}
	}
}

func TestSearchDelegatedRanking(t *testing.T) {
	engine := NewEngine(seededStore())
	res, err := engine.Search(models.SearchFacets{Query: "goroutines"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Ranked {
		t.Error("store supplied ranks, result should be marked ranked")
	}
	if res.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", res.Total)
	}
}

func TestSearchLocalFallbackIsChronological(t *testing.T) {
	store := seededStore()
	store.ranked = false
	engine := NewEngine(store)

	res, err := engine.Search(models.SearchFacets{Query: "goroutines"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Ranked {
		t.Error("no ranks supplied, result must not be marked ranked")
	}
	if res.Total != 2 {
		t.Fatalf("expected 2 local matches, got %d", res.Total)
	}
	if res.Messages[0].CreatedAt > res.Messages[1].CreatedAt {
		t.Error("fallback ordering must be chronological ascending")
	}
}

func TestSearchMaxResultsCap(t *testing.T) {
	engine := NewEngine(seededStore(), WithMaxResults(2))
	res, err := engine.Search(models.SearchFacets{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Messages) != 2 || res.Total != 2 {
		t.Errorf("capped result: len=%d total=%d, want 2", len(res.Messages), res.Total)
	}

	uncapped := NewEngine(seededStore())
	res, err = uncapped.Search(models.SearchFacets{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 {
		t.Errorf("default engine must not cap, got %d", res.Total)
	}
}

func TestSearchSourceRelaxDisabled(t *testing.T) {
	store := seededStore()
	for i := range store.messages {
		store.messages[i].SourceID = "s1"
	}
	facets := models.SearchFacets{SourceIDs: []string{"gone"}}

	strict := NewEngine(store, WithSourceRelax(false))
	res, err := strict.Search(facets)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 || res.SourceFilterRelaxed {
		t.Errorf("strict engine: total=%d relaxed=%t, want empty and unrelaxed", res.Total, res.SourceFilterRelaxed)
	}

	relaxed := NewEngine(store)
	res, err = relaxed.Search(facets)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total == 0 || !res.SourceFilterRelaxed {
		t.Errorf("default engine: total=%d relaxed=%t, want widened result", res.Total, res.SourceFilterRelaxed)
	}
}

func TestConversationsIndex(t *testing.T) {
	engine := NewEngine(seededStore())
	convs, err := engine.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].ConvID != "c2" {
		t.Errorf("most recent conversation first, got %s", convs[0].ConvID)
	}
	if convs[1].MsgCount != 2 {
		t.Errorf("c1 msgCount = %d, want 2 after dedup", convs[1].MsgCount)
	}
}

func TestTurnsWithBranchRestriction(t *testing.T) {
	store := seededStore()
	store.nodes = map[string][]models.TreeNode{
		"c1": {
			{ID: "A", ConversationID: "c1", MessageID: "m-1", ChildrenIDs: models.IDList{"B", "C"}, IsRoot: true, IsBranchPoint: true},
			{ID: "B", ConversationID: "c1", MessageID: "m-2", ParentID: "A", Depth: 1},
			{ID: "C", ConversationID: "c1", MessageID: "m-x", ParentID: "A", Depth: 1},
		},
	}
	engine := NewEngine(store)

	got, err := engine.Turns("c1", "B", turns.DefaultGap)
	if err != nil {
		t.Fatal(err)
	}
	// Branch through B keeps m-1 and m-2: a user turn and an assistant turn.
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
}

func TestTurnsUnresolvableTargetFallsBackToLinear(t *testing.T) {
	engine := NewEngine(seededStore())
	got, err := engine.Turns("c1", "no-such-node", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, turn := range got {
		total += len(turn.Items)
	}
	if total != 2 {
		t.Errorf("expected full linear view of 2 messages, got %d", total)
	}
}
