package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/search"
)

type memStore struct {
	messages []models.Message
	nodes    []models.TreeNode
	ranks    map[string]float64
}

func (s *memStore) Query(query string) (*models.StorePayload, error) {
	if query == "" {
		return &models.StorePayload{Messages: s.messages}, nil
	}
	return &models.StorePayload{Messages: s.messages, Ranks: s.ranks}, nil
}

func (s *memStore) ConversationPayload(convID string) (*models.StorePayload, error) {
	var msgs []models.Message
	for _, m := range s.messages {
		if m.ConversationID == convID {
			msgs = append(msgs, m)
		}
	}
	return &models.StorePayload{
		Messages: msgs,
		Nodes:    s.nodes,
		HasTree:  len(s.nodes) > 0,
	}, nil
}

func (s *memStore) SourceLabels() (map[string]string, error) {
	return map[string]string{}, nil
}

func (s *memStore) Annotations() (map[string]models.Annotation, error) {
	return map[string]models.Annotation{}, nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := &memStore{
		messages: []models.Message{
			{UID: "u1", ConversationID: "c1", MessageID: "m1", Vendor: models.VendorClaude, Role: models.RoleUser, CreatedAt: 1000, Text: "how do goroutines work", Title: "Concurrency"},
			{UID: "u2", ConversationID: "c1", MessageID: "m2", Vendor: models.VendorClaude, Role: models.RoleAssistant, CreatedAt: 1060, Text: "they are lightweight threads", Title: "Concurrency"},
			{UID: "u3", ConversationID: "c2", MessageID: "m3", Vendor: models.VendorChatGPT, Role: models.RoleUser, CreatedAt: 2000, Text: "sort a slice", Title: "Sorting"},
		},
		ranks: map[string]float64{"u1": 2.5},
	}

	server := NewServer(search.NewEngine(store), zap.NewNop(), 7*time.Minute)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := testServer(t)
	var body map[string]string
	if status := getJSON(t, ts.URL+"/health", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestConversationsEndpoint(t *testing.T) {
	ts := testServer(t)
	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
		Total         int                          `json:"total"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/conversations", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.Total != 2 {
		t.Errorf("total = %d, want 2", body.Total)
	}
	// Recency order: c2 is newer.
	if len(body.Conversations) > 0 && body.Conversations[0].ConvID != "c2" {
		t.Errorf("first conversation = %+v", body.Conversations[0])
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := testServer(t)
	var body struct {
		Messages []models.Message `json:"messages"`
		Total    int              `json:"total"`
		Ranked   bool             `json:"ranked"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/search?q=goroutines", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !body.Ranked {
		t.Error("text query with store ranks must be ranked")
	}
	if body.Total == 0 || body.Messages[0].UID != "u1" {
		t.Errorf("messages = %+v", body.Messages)
	}
}

func TestSearchEndpointVendorFacet(t *testing.T) {
	ts := testServer(t)
	var body struct {
		Messages []models.Message `json:"messages"`
		Total    int              `json:"total"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/search?vendor=chatgpt", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.Total != 1 || body.Messages[0].Vendor != models.VendorChatGPT {
		t.Errorf("messages = %+v", body.Messages)
	}
}

func TestSearchEndpointBadDate(t *testing.T) {
	ts := testServer(t)
	var body map[string]string
	if status := getJSON(t, ts.URL+"/api/v1/search?from=March+1st", &body); status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestTurnsEndpoint(t *testing.T) {
	ts := testServer(t)
	var body struct {
		Turns []models.Turn `json:"turns"`
		Total int           `json:"total"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/conversations/c1/turns", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	// user then assistant: two turns.
	if body.Total != 2 {
		t.Errorf("turns = %+v", body.Turns)
	}
}

func TestBranchesEndpointLinearConversation(t *testing.T) {
	ts := testServer(t)
	var body struct {
		HasTree      bool              `json:"hasTree"`
		BranchPoints []models.TreeNode `json:"branchPoints"`
		MaxDepth     int               `json:"maxDepth"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/conversations/c2/branches", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.HasTree {
		t.Error("linear conversation must report no tree")
	}
}
