// Package imports parses vendor chat-export files into the canonical
// message and tree-node records, and loads them into the store.
package imports

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// Format identifies a recognized export file layout.
type Format string

const (
	// FormatClaude is the Claude export: a JSON array of conversations,
	// each with a chat_messages list carrying parent uuids.
	FormatClaude Format = "claude"
	// FormatChatGPT is the ChatGPT export: a JSON array of conversations,
	// each with a mapping object of parent/children nodes.
	FormatChatGPT Format = "chatgpt"
	// FormatJSONL is the generic flat format: one vendor-tagged message
	// record per line, used by the gemini and copilot exporters.
	FormatJSONL Format = "jsonl"
)

// ParsedExport is the vendor-neutral result of parsing one export file.
type ParsedExport struct {
	Messages      []models.Message
	Nodes         []models.TreeNode
	Conversations int
	Skipped       int
}

// maxExportSize bounds how much of an export we load into memory at once.
const maxExportSize = 1 << 30 // 1GB

// DetectFormat sniffs the export layout from the start of the file.
func DetectFormat(filePath string) (Format, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	head, err := reader.Peek(1 << 16)
	if err != nil && len(head) == 0 {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty export file")
	}

	switch trimmed[0] {
	case '[':
		// Both array formats start with '['; the ChatGPT export is the
		// one whose conversations carry a mapping object.
		if bytes.Contains(head, []byte(`"mapping"`)) {
			return FormatChatGPT, nil
		}
		if bytes.Contains(head, []byte(`"chat_messages"`)) {
			return FormatClaude, nil
		}
		return "", fmt.Errorf("unrecognized JSON array export")
	case '{':
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unrecognized export format")
	}
}

// Parse reads an export file, auto-detecting its format.
func Parse(filePath string) (*ParsedExport, error) {
	format, err := DetectFormat(filePath)
	if err != nil {
		return nil, err
	}
	return ParseAs(filePath, format)
}

// ParseAs reads an export file in a known format.
func ParseAs(filePath string, format Format) (*ParsedExport, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() > maxExportSize {
		return nil, fmt.Errorf("file too large (%d bytes)", stat.Size())
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatClaude:
		return parseClaude(file)
	case FormatChatGPT:
		return parseChatGPT(file)
	case FormatJSONL:
		return parseJSONL(file)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// uid builds the globally unique message id from vendor and message id.
func uid(vendor models.Vendor, messageID string) string {
	return string(vendor) + ":" + messageID
}

// convUID builds the vendor-scoped conversation id. Exports from different
// vendors can reuse raw conversation ids; qualifying keeps them distinct.
func convUID(vendor models.Vendor, conversationID string) string {
	return string(vendor) + ":" + conversationID
}

// decodeArray streams a top-level JSON array, invoking fn per element.
func decodeArray[T any](decoder *json.Decoder, fn func(T) error) error {
	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("failed to read opening token: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected array, got %v", token)
	}

	for decoder.More() {
		var item T
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("failed to decode element: %w", err)
		}
		if err := fn(item); err != nil {
			return err
		}
	}

	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("failed to read closing token: %w", err)
	}
	return nil
}
