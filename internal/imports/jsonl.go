package imports

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// jsonlRecord is the flat, vendor-tagged line format the gemini and copilot
// exporters produce. Timestamps may be unix seconds or milliseconds.
type jsonlRecord struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Vendor         string `json:"vendor"`
	Role           string `json:"role"`
	CreatedAt      int64  `json:"created_at"`
	Text           string `json:"text"`
	Title          string `json:"title"`
	FolderPath     string `json:"folder_path"`
}

// parseJSONL decodes one message record per line. Lines that fail to decode
// or lack required fields are skipped, not fatal; exporters for these
// vendors are third-party scripts and partial files are common.
func parseJSONL(r io.Reader) (*ParsedExport, error) {
	result := &ParsedExport{}
	conversations := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record jsonlRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			result.Skipped++
			continue
		}

		vendor := models.Vendor(strings.ToLower(strings.TrimSpace(record.Vendor)))
		if !models.KnownVendor(vendor) || record.ID == "" || record.ConversationID == "" || record.Text == "" {
			result.Skipped++
			continue
		}

		conversationID := convUID(vendor, record.ConversationID)
		result.Messages = append(result.Messages, models.Message{
			UID:            uid(vendor, record.ID),
			ConversationID: conversationID,
			MessageID:      record.ID,
			Vendor:         vendor,
			Role:           jsonlRole(record.Role),
			CreatedAt:      models.NormalizeTimestamp(record.CreatedAt),
			Text:           record.Text,
			Title:          strings.TrimSpace(record.Title),
			FolderPath:     record.FolderPath,
		})
		conversations[conversationID] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result.Conversations = len(conversations)
	return result, nil
}

func jsonlRole(role string) models.Role {
	r := models.Role(strings.ToLower(strings.TrimSpace(role)))
	if models.KnownRole(r) {
		return r
	}
	return models.RoleUser
}
