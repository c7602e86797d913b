package imports

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tapestry-tools/tapestry/internal/models"
)

const (
	senderHuman     = "human"
	senderAssistant = "assistant"
)

type claudeConversation struct {
	UUID         string              `json:"uuid"`
	Name         string              `json:"name"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
	ChatMessages []claudeChatMessage `json:"chat_messages"`
}

type claudeChatMessage struct {
	UUID       string          `json:"uuid"`
	Sender     string          `json:"sender"`
	Text       string          `json:"text"`
	Content    []claudeContent `json:"content"`
	CreatedAt  string          `json:"created_at"`
	ParentUUID string          `json:"parent_message_uuid"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// parseClaude decodes a Claude export stream. Conversations whose messages
// carry parent uuids that fork yield tree nodes alongside the messages.
func parseClaude(r io.Reader) (*ParsedExport, error) {
	result := &ParsedExport{}
	decoder := json.NewDecoder(r)

	err := decodeArray(decoder, func(conv claudeConversation) error {
		if conv.UUID == "" {
			result.Skipped++
			return nil
		}
		result.Conversations++
		convertClaudeConversation(conv, result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return result, nil
}

func convertClaudeConversation(conv claudeConversation, result *ParsedExport) {
	conversationID := convUID(models.VendorClaude, conv.UUID)
	children := make(map[string][]string)
	known := make(map[string]bool, len(conv.ChatMessages))

	for _, msg := range conv.ChatMessages {
		if msg.UUID == "" {
			result.Skipped++
			continue
		}

		text := claudeText(msg)
		if text == "" {
			result.Skipped++
			continue
		}

		result.Messages = append(result.Messages, models.Message{
			UID:            uid(models.VendorClaude, msg.UUID),
			ConversationID: conversationID,
			MessageID:      msg.UUID,
			Vendor:         models.VendorClaude,
			Role:           claudeRole(msg.Sender),
			CreatedAt:      parseRFC3339(msg.CreatedAt),
			Text:           text,
			Title:          conv.Name,
		})

		known[msg.UUID] = true
		if msg.ParentUUID != "" {
			children[msg.ParentUUID] = append(children[msg.ParentUUID], msg.UUID)
		}
	}

	// Record the tree only when the parent links actually fork; a plain
	// linear conversation stays linear in the store.
	if !hasFork(children) {
		return
	}

	var nodes []models.TreeNode
	for _, msg := range conv.ChatMessages {
		if !known[msg.UUID] {
			continue
		}
		parent := msg.ParentUUID
		if !known[parent] {
			parent = ""
		}
		nodes = append(nodes, models.TreeNode{
			ID:             msg.UUID,
			ConversationID: conversationID,
			MessageID:      msg.UUID,
			ParentID:       parent,
			ChildrenIDs:    models.IDList(children[msg.UUID]),
			IsRoot:         parent == "",
			IsBranchPoint:  len(children[msg.UUID]) > 1,
		})
	}
	fillDepths(nodes)
	result.Nodes = append(result.Nodes, nodes...)
}

func claudeText(msg claudeChatMessage) string {
	if msg.Text != "" {
		return msg.Text
	}
	for _, content := range msg.Content {
		if content.Type == "text" && content.Text != "" {
			return content.Text
		}
	}
	return ""
}

func claudeRole(sender string) models.Role {
	switch sender {
	case senderHuman:
		return models.RoleUser
	case senderAssistant:
		return models.RoleAssistant
	default:
		return models.RoleUser
	}
}

// parseRFC3339 converts Claude's ISO 8601 timestamps to unix seconds.
// Unparseable values become the unavailable sentinel.
func parseRFC3339(timestamp string) int64 {
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return models.TimestampSentinel
	}
	return t.Unix()
}

func hasFork(children map[string][]string) bool {
	for _, kids := range children {
		if len(kids) > 1 {
			return true
		}
	}
	return false
}

// fillDepths assigns root-relative depths by walking parent links.
func fillDepths(nodes []models.TreeNode) {
	byID := make(map[string]*models.TreeNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	var depth func(n *models.TreeNode, seen map[string]bool) int
	depth = func(n *models.TreeNode, seen map[string]bool) int {
		if n.ParentID == "" || seen[n.ID] {
			return 0
		}
		seen[n.ID] = true
		parent, ok := byID[n.ParentID]
		if !ok {
			return 0
		}
		return depth(parent, seen) + 1
	}

	for i := range nodes {
		nodes[i].Depth = depth(&nodes[i], make(map[string]bool))
	}
}
