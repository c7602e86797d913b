package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/rendering"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

// openConversationMsg asks the main model to open one conversation.
type openConversationMsg struct {
	convID string
	title  string
}

// backToBrowseMsg asks the main model to return to the browse view.
type backToBrowseMsg struct{}

// mainModel is the root model; it routes between the browse view and the
// conversation view.
type mainModel struct {
	engine  *search.Engine
	current tea.Model
	browse  browseModel
	width   int
	height  int
}

func newMainModel(engine *search.Engine, prefs prefStore, initialQuery string) mainModel {
	browse := newBrowseModel(engine, prefs, initialQuery)
	return mainModel{
		engine:  engine,
		current: browse,
		browse:  browse,
	}
}

func (m mainModel) Init() tea.Cmd {
	return m.current.Init()
}

func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case openConversationMsg:
		conv := newConversationModel(m.engine, msg.convID, msg.title, m.width, m.height)
		m.current = conv
		return m, conv.Init()

	case backToBrowseMsg:
		m.current = m.browse
		// Re-send the window size so the browse view re-lays itself out.
		var cmd tea.Cmd
		m.current, cmd = m.current.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		return m, cmd
	}

	var cmd tea.Cmd
	m.current, cmd = m.current.Update(msg)
	if b, ok := m.current.(browseModel); ok {
		m.browse = b
	}
	return m, cmd
}

func (m mainModel) View() string {
	return m.current.View()
}

var initialQuery string

// TuiCmd represents the tui command
var TuiCmd = &cobra.Command{
	Use:   "tui [query]",
	Short: "Launch interactive TUI interface",
	Long: `Launch the interactive terminal user interface.

Browse the conversation index, search with facets, read conversations turn
by turn, and walk edit/regenerate branches.

Examples:
  # Launch TUI and search immediately
  tapestry tui "machine learning"

  # Launch TUI in browse mode
  tapestry tui`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		initialQuery = strings.Join(args, " ")
	}

	cfg := config.Get()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	prefs, err := config.Prefs()
	if err != nil {
		return fmt.Errorf("failed to open preferences: %w", err)
	}

	rendering.SetTheme(cfg.UI.Theme)

	engine := search.NewEngine(db,
		search.WithSourceRelax(cfg.Search.RelaxSources),
		search.WithMaxResults(cfg.Search.MaxResults))
	model := newMainModel(engine, prefs, initialQuery)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
