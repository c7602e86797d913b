package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/paginate"
	"github.com/tapestry-tools/tapestry/internal/rendering"
	"github.com/tapestry-tools/tapestry/internal/search"
)

// prefStore is the injected preference store for persisted page sizes.
type prefStore = paginate.PrefStore

// conversationItem implements list.Item for conversation summaries.
type conversationItem struct {
	conv models.ConversationSummary
}

func (i conversationItem) Title() string {
	return i.conv.Title
}

func (i conversationItem) Description() string {
	when := "no date"
	if models.ValidTimestamp(i.conv.LastTs) {
		when = humanize.Time(time.Unix(i.conv.LastTs, 0))
	}
	desc := fmt.Sprintf("%s • %d messages • %s", i.conv.Vendor, i.conv.MsgCount, when)
	if len(i.conv.Tags) > 0 {
		desc += " • " + strings.Join(i.conv.Tags, " ")
	}
	return desc
}

func (i conversationItem) FilterValue() string {
	return i.conv.Title
}

// messageItem implements list.Item for search results.
type messageItem struct {
	msg models.Message
}

func (i messageItem) Title() string {
	return rendering.Snippet(i.msg.Text, 80)
}

func (i messageItem) Description() string {
	when := "no date"
	if models.ValidTimestamp(i.msg.CreatedAt) {
		when = time.Unix(i.msg.CreatedAt, 0).Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%s • %s • %s", i.msg.Vendor, i.msg.Role, when)
}

func (i messageItem) FilterValue() string {
	return i.msg.Text
}

// browseModel lists conversations, or ranked search results when a query is
// active. Pages are stable: the page resets only when the filter changes.
type browseModel struct {
	engine    *search.Engine
	paginator *paginate.Paginator
	summaries []models.ConversationSummary
	results   *search.Result
	facets    models.SearchFacets
	page      paginate.Page
	list      list.Model
	input     textinput.Model
	searching bool
	status    string
	width     int
	height    int
}

func newBrowseModel(engine *search.Engine, prefs prefStore, initialQuery string) browseModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = SelectedStyle
	delegate.Styles.SelectedDesc = SelectedStyle

	l := list.New(nil, delegate, 80, 20)
	l.Title = "Conversations"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 200
	ti.Width = 50

	m := browseModel{
		engine:    engine,
		paginator: paginate.New(prefs, "browse", paginate.DefaultPageSize),
		list:      l,
		input:     ti,
	}

	m.summaries, _ = engine.Conversations()
	if initialQuery != "" {
		m.runSearch(initialQuery)
	}
	m.refresh()

	return m
}

// runSearch executes the query and switches the listing to result mode. A
// failed search keeps the conversation listing.
func (m *browseModel) runSearch(query string) {
	m.facets = models.SearchFacets{Query: query}
	result, err := m.engine.Search(m.facets)
	if err != nil {
		m.status = "search failed: " + err.Error()
		m.results = nil
		m.facets = models.SearchFacets{}
		return
	}
	m.results = result
	if result.SourceFilterRelaxed {
		m.status = "source filter relaxed"
	}
}

// refresh recomputes the current page and feeds it to the list.
func (m *browseModel) refresh() {
	var fingerprint string
	var total int
	if m.results != nil {
		fingerprint = m.facets.Fingerprint()
		total = m.results.Total
	} else {
		fingerprint = "browse"
		total = len(m.summaries)
	}

	m.page = m.paginator.Update(total, fingerprint)

	var items []list.Item
	if m.results != nil {
		for _, msg := range paginate.Slice(m.results.Messages, m.page) {
			items = append(items, messageItem{msg: msg})
		}
		m.list.Title = fmt.Sprintf("Results for %q", m.facets.Query)
	} else {
		for _, conv := range paginate.Slice(m.summaries, m.page) {
			items = append(items, conversationItem{conv: conv})
		}
		m.list.Title = "Conversations"
	}
	m.list.SetItems(items)
	m.list.ResetSelected()
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-5)

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				query := strings.TrimSpace(m.input.Value())
				m.searching = false
				m.input.Blur()
				if query != "" {
					m.runSearch(query)
					m.refresh()
				}
			case "esc":
				m.searching = false
				m.input.SetValue("")
				m.input.Blur()
			default:
				ti, cmd := m.input.Update(msg)
				m.input = ti
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.searching = true
			m.status = ""
			m.input.Focus()
			cmds = append(cmds, textinput.Blink)
		case "esc":
			if m.results != nil {
				m.results = nil
				m.facets = models.SearchFacets{}
				m.input.SetValue("")
				m.status = ""
				m.refresh()
			}
		case "n", "right":
			m.page = m.paginator.Next()
			m.refresh()
		case "p", "left":
			m.page = m.paginator.Prev()
			m.refresh()
		case "+":
			m.page = m.paginator.SetPageSize(m.page.PageSize + 5)
			m.refresh()
		case "-":
			m.page = m.paginator.SetPageSize(m.page.PageSize - 5)
			m.refresh()
		case "enter":
			switch item := m.list.SelectedItem().(type) {
			case conversationItem:
				return m, openConversation(item.conv.ConvID, item.conv.Title)
			case messageItem:
				return m, openConversation(item.msg.ConversationID, item.msg.Title)
			}
		}
	}

	l, cmd := m.list.Update(msg)
	m.list = l
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func openConversation(convID, title string) tea.Cmd {
	return func() tea.Msg {
		return openConversationMsg{convID: convID, title: title}
	}
}

func (m browseModel) View() string {
	var b strings.Builder

	if m.searching {
		b.WriteString(TitleStyle.Render("Search") + "\n")
		b.WriteString(m.input.View() + "\n\n")
	}

	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(fmt.Sprintf(
		"page %d/%d (%d items) • / search • enter open • n/p page • +/- size • q quit",
		m.page.Page, m.page.PageCount, m.page.Total)))

	if m.status != "" {
		b.WriteString("\n" + StatusStyle.Render(m.status))
	}

	return b.String()
}
