package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/rendering"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/turns"
)

// conversationModel shows one conversation as rendered turns, with branch
// walking and clipboard copy.
type conversationModel struct {
	engine   *search.Engine
	convID   string
	title    string
	turns    []models.Turn
	targets  []string // branch children, cycled with "b"
	selected int      // index into targets; -1 = full linear view
	viewport viewport.Model
	status   string
	width    int
	height   int
}

var titleCaser = cases.Title(language.English)

func newConversationModel(engine *search.Engine, convID, title string, width, height int) conversationModel {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	m := conversationModel{
		engine:   engine,
		convID:   convID,
		title:    title,
		selected: -1,
		viewport: viewport.New(width, height-4),
		width:    width,
		height:   height,
	}

	m.targets = branchTargets(engine, convID)
	m.load("")
	return m
}

// branchTargets flattens the conversation's branch points into the list of
// selectable branch children.
func branchTargets(engine *search.Engine, convID string) []string {
	_, nav, err := engine.Conversation(convID)
	if err != nil || !nav.HasTree() {
		return nil
	}
	var targets []string
	for _, point := range nav.BranchPoints() {
		targets = append(targets, point.ChildrenIDs...)
	}
	return targets
}

// load fetches and renders the turns for the given branch target ("" = full
// linear view).
func (m *conversationModel) load(target string) {
	turnList, err := m.engine.Turns(m.convID, target, turns.DefaultGap)
	if err != nil {
		m.status = "failed to load conversation: " + err.Error()
		return
	}
	m.turns = turnList
	m.viewport.SetContent(rendering.RenderTurns(turnList, m.viewport.Width))
	m.viewport.GotoTop()
}

// rawText returns the unstyled conversation text for clipboard copy.
func (m conversationModel) rawText() string {
	var b strings.Builder
	for _, turn := range m.turns {
		b.WriteString(titleCaser.String(string(turn.Role)) + ":\n")
		for _, msg := range turn.Items {
			b.WriteString(msg.Text + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (m conversationModel) Init() tea.Cmd {
	return nil
}

func (m conversationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		m.load(m.currentTarget())

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToBrowseMsg{} }
		case "b":
			if len(m.targets) > 0 {
				m.selected = (m.selected + 1) % len(m.targets)
				m.load(m.targets[m.selected])
				m.status = fmt.Sprintf("branch %d/%d (%s)", m.selected+1, len(m.targets), m.targets[m.selected])
			}
		case "B":
			if m.selected >= 0 {
				m.selected = -1
				m.load("")
				m.status = "full conversation"
			}
		case "c":
			if err := clipboard.WriteAll(m.rawText()); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "copied to clipboard"
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m conversationModel) currentTarget() string {
	if m.selected >= 0 && m.selected < len(m.targets) {
		return m.targets[m.selected]
	}
	return ""
}

func (m conversationModel) View() string {
	var b strings.Builder

	header := m.title
	if header == "" {
		header = m.convID
	}
	b.WriteString(HeaderStyle.Render(header) + "\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	help := "esc back • c copy • j/k scroll"
	if len(m.targets) > 0 {
		help = "esc back • b next branch • B full view • c copy • j/k scroll"
	}
	b.WriteString(HelpStyle.Render(help))

	if m.status != "" {
		b.WriteString("\n" + StatusStyle.Render(m.status))
	}

	return b.String()
}
