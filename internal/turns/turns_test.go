package turns

import (
	"testing"
	"time"

	"github.com/tapestry-tools/tapestry/internal/models"
)

func msg(uid string, role models.Role, ts int64) models.Message {
	return models.Message{
		UID:            uid,
		ConversationID: "c1",
		Vendor:         models.VendorClaude,
		Role:           role,
		Text:           "body",
		CreatedAt:      ts,
	}
}

func TestGroupingByRoleAndGap(t *testing.T) {
	// user@0, user@60 stay together (60s < 7m); assistant@65 splits on
	// role; user@500000 splits on the large gap.
	msgs := []models.Message{
		msg("a", models.RoleUser, 1000),
		msg("b", models.RoleUser, 1060),
		msg("c", models.RoleAssistant, 1065),
		msg("d", models.RoleUser, 501000),
	}

	got := Group(msgs, DefaultGap)
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}

	if got[0].Role != models.RoleUser || len(got[0].Items) != 2 {
		t.Errorf("turn 0 = %s x%d, want user x2", got[0].Role, len(got[0].Items))
	}
	if got[1].Role != models.RoleAssistant || len(got[1].Items) != 1 {
		t.Errorf("turn 1 = %s x%d, want assistant x1", got[1].Role, len(got[1].Items))
	}
	if got[2].Role != models.RoleUser || len(got[2].Items) != 1 {
		t.Errorf("turn 2 = %s x%d, want user x1", got[2].Role, len(got[2].Items))
	}
}

func TestTurnTimeRange(t *testing.T) {
	msgs := []models.Message{
		msg("a", models.RoleUser, 1000),
		msg("b", models.RoleUser, 1060),
	}
	got := Group(msgs, DefaultGap)
	if len(got) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(got))
	}
	if got[0].TsStart != 1000 || got[0].TsEnd != 1060 {
		t.Errorf("range = [%d,%d], want [1000,1060]", got[0].TsStart, got[0].TsEnd)
	}
}

func TestGapExactlyAtThresholdStaysTogether(t *testing.T) {
	msgs := []models.Message{
		msg("a", models.RoleUser, 1000),
		msg("b", models.RoleUser, 1000+420),
	}
	if got := Group(msgs, 7*time.Minute); len(got) != 1 {
		t.Errorf("gap equal to threshold should not split, got %d turns", len(got))
	}
}

func TestUnavailableTimestampNeverSplits(t *testing.T) {
	msgs := []models.Message{
		msg("a", models.RoleAssistant, 1000),
		msg("b", models.RoleAssistant, 0), // unknown date
		msg("c", models.RoleAssistant, 999000),
	}
	got := Group(msgs, DefaultGap)
	// b cannot be compared, so it joins; c compares against b (also
	// unknown), so it joins too.
	if len(got) != 1 {
		t.Errorf("expected 1 turn, got %d", len(got))
	}
}

func TestEmptyInput(t *testing.T) {
	if got := Group(nil, DefaultGap); len(got) != 0 {
		t.Errorf("empty input must yield empty output, got %d", len(got))
	}
}

func TestAllItemsShareRole(t *testing.T) {
	msgs := []models.Message{
		msg("a", models.RoleUser, 1000),
		msg("b", models.RoleTool, 1001),
		msg("c", models.RoleTool, 1002),
		msg("d", models.RoleSystem, 1003),
	}
	for _, turn := range Group(msgs, DefaultGap) {
		for _, item := range turn.Items {
			if item.Role != turn.Role {
				t.Fatalf("turn %s contains role %s", turn.Role, item.Role)
			}
		}
	}
}
