package imports

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tapestry-tools/tapestry/internal/models"
)

type chatgptConversation struct {
	ID             string                 `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	Title          string                 `json:"title"`
	CreateTime     *float64               `json:"create_time"`
	Mapping        map[string]chatgptNode `json:"mapping"`
}

type chatgptNode struct {
	ID       string          `json:"id"`
	Parent   string          `json:"parent"`
	Children []string        `json:"children"`
	Message  *chatgptMessage `json:"message"`
}

type chatgptMessage struct {
	ID         string         `json:"id"`
	Author     chatgptAuthor  `json:"author"`
	CreateTime *float64       `json:"create_time"`
	Content    chatgptContent `json:"content"`
}

type chatgptAuthor struct {
	Role string `json:"role"`
}

type chatgptContent struct {
	ContentType string            `json:"content_type"`
	Parts       []json.RawMessage `json:"parts"`
}

// parseChatGPT decodes a ChatGPT export stream. The mapping object is the
// conversation's node graph; it is the source of tree-node records.
func parseChatGPT(r io.Reader) (*ParsedExport, error) {
	result := &ParsedExport{}
	decoder := json.NewDecoder(r)

	err := decodeArray(decoder, func(conv chatgptConversation) error {
		convID := strings.TrimSpace(conv.ConversationID)
		if convID == "" {
			convID = strings.TrimSpace(conv.ID)
		}
		if convID == "" || len(conv.Mapping) == 0 {
			result.Skipped++
			return nil
		}
		result.Conversations++
		convertChatGPTConversation(convUID(models.VendorChatGPT, convID), conv, result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return result, nil
}

func convertChatGPTConversation(convID string, conv chatgptConversation, result *ParsedExport) {
	// Messages come from mapping nodes with textual content; the node
	// graph itself becomes tree nodes when it forks. Node ids are walked
	// in sorted order so output does not depend on map iteration.
	nodeIDs := make([]string, 0, len(conv.Mapping))
	for nodeID := range conv.Mapping {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)

	for _, nodeID := range nodeIDs {
		node := conv.Mapping[nodeID]
		if node.Message == nil {
			continue
		}
		text := chatgptText(node.Message.Content)
		if text == "" {
			result.Skipped++
			continue
		}

		messageID := node.Message.ID
		if messageID == "" {
			messageID = nodeID
		}

		result.Messages = append(result.Messages, models.Message{
			UID:            uid(models.VendorChatGPT, messageID),
			ConversationID: convID,
			MessageID:      messageID,
			Vendor:         models.VendorChatGPT,
			Role:           chatgptRole(node.Message.Author.Role),
			CreatedAt:      unixFromFloat(node.Message.CreateTime),
			Text:           text,
			Title:          strings.TrimSpace(conv.Title),
		})
	}

	if !mappingForks(conv.Mapping) {
		return
	}

	var nodes []models.TreeNode
	for _, nodeID := range nodeIDs {
		node := conv.Mapping[nodeID]
		messageID := nodeID
		if node.Message != nil && node.Message.ID != "" {
			messageID = node.Message.ID
		}
		parent := node.Parent
		if _, ok := conv.Mapping[parent]; !ok {
			parent = ""
		}
		nodes = append(nodes, models.TreeNode{
			ID:             nodeID,
			ConversationID: convID,
			MessageID:      messageID,
			ParentID:       parent,
			ChildrenIDs:    models.IDList(node.Children),
			IsRoot:         parent == "",
			IsBranchPoint:  len(node.Children) > 1,
		})
	}
	fillDepths(nodes)
	result.Nodes = append(result.Nodes, nodes...)
}

func mappingForks(mapping map[string]chatgptNode) bool {
	for _, node := range mapping {
		if len(node.Children) > 1 {
			return true
		}
	}
	return false
}

func chatgptRole(role string) models.Role {
	switch strings.ToLower(role) {
	case "user":
		return models.RoleUser
	case "assistant":
		return models.RoleAssistant
	case "tool":
		return models.RoleTool
	case "system":
		return models.RoleSystem
	default:
		return models.RoleUser
	}
}

// chatgptText joins the string parts of a node's content. Non-string parts
// (image pointers and the like) are skipped.
func chatgptText(content chatgptContent) string {
	switch content.ContentType {
	case "text", "multimodal_text":
	default:
		return ""
	}

	var builder strings.Builder
	for _, part := range content.Parts {
		var text string
		if err := json.Unmarshal(part, &text); err != nil {
			continue
		}
		cleaned := strings.TrimSpace(text)
		if cleaned == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(cleaned)
	}
	return strings.TrimSpace(builder.String())
}

func unixFromFloat(value *float64) int64 {
	if value == nil || *value <= 0 {
		return models.TimestampSentinel
	}
	return int64(*value)
}
