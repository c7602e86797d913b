// Package rendering formats message bodies for terminal output.
package rendering

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// Renderer renders message markdown for the terminal.
type Renderer struct {
	term  *glamour.TermRenderer
	width int
}

var (
	shared     *Renderer
	sharedOnce sync.Once
	themeName  = "dark"
)

// SetTheme selects the glamour style the shared renderer is built with
// (dark, light, notty, ...). It must be called before the first Shared()
// use; later calls have no effect on the already built renderer.
func SetTheme(name string) {
	if name != "" {
		themeName = name
	}
}

// newTermRenderer builds a glamour renderer, or nil when setup fails; nil
// degrades RenderMessage to plain text passthrough.
func newTermRenderer(style string, wrap int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

// Shared returns the singleton renderer. Glamour setup is expensive, so one
// fixed-width renderer serves all callers.
func Shared() *Renderer {
	sharedOnce.Do(func() {
		shared = &Renderer{term: newTermRenderer(themeName, 76), width: 80}
	})
	return shared
}

// RenderMessage renders one message body with markdown formatting. When
// glamour is unavailable the text passes through with light cleanup.
func (r *Renderer) RenderMessage(text string) string {
	if IsHyperlinksSupported() {
		text = EnhanceTextWithLinks(text)
	}

	if r.term == nil {
		return strings.TrimSpace(text)
	}

	rendered, err := r.term.Render(text)
	if err != nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(rendered)
}

var roleColors = map[models.Role]lipgloss.Color{
	models.RoleUser:      lipgloss.Color("#00D4AA"),
	models.RoleAssistant: lipgloss.Color("#7D56F4"),
	models.RoleTool:      lipgloss.Color("#F4A656"),
	models.RoleSystem:    lipgloss.Color("#999999"),
}

// RoleHeader renders the styled role banner shown above a message or turn.
func RoleHeader(role models.Role) string {
	color, ok := roleColors[role]
	if !ok {
		color = roleColors[models.RoleUser]
	}
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	return style.Render(strings.ToUpper(string(role)))
}

// RenderTurns renders turn-grouped messages for the view command. Each turn
// gets one role banner; its messages follow in order.
func RenderTurns(turnList []models.Turn, width int) string {
	r := Shared()
	var result strings.Builder

	for i, turn := range turnList {
		if i > 0 {
			result.WriteString("\n" + strings.Repeat("─", max(width-4, 8)) + "\n\n")
		}

		result.WriteString(RoleHeader(turn.Role))
		result.WriteString("\n\n")

		for j, msg := range turn.Items {
			if j > 0 {
				result.WriteString("\n")
			}
			result.WriteString(r.RenderMessage(msg.Text))
			result.WriteString("\n")
		}
	}

	return result.String()
}
