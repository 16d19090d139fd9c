package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/litfav/internal/formatter"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
	DetailView
)

// Catalog is the read-only author source browsed by the TUI.
type Catalog interface {
	SearchAuthors(ctx context.Context, query string, page int) (*models.AuthorSearchResult, error)
	Author(ctx context.Context, id string) (*models.Author, error)
	SearchLimit() int
}

// Favorites is the favorites state the TUI reads and toggles.
type Favorites interface {
	Toggle(ctx context.Context, key string) (bool, error)
	IsFavorite(key string) bool
	IsPending(key string) bool
	Len() int
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	catalog   Catalog
	favorites Favorites
	notices   <-chan Notice

	width   int
	height  int
	input   textinput.Model
	results list.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	query    string
	page     int
	numFound int
	authors  []models.Author
	author   *models.Author
	inflight map[string]bool
	loading  bool
	status   *Notice
}

// NewModel creates a new TUI model with the provided dependencies.
//
// notices may be nil; otherwise each received [Notice] replaces the status line.
func NewModel(ctx context.Context, catalog Catalog, favorites Favorites, notices <-chan Notice) *Model {
	input := textinput.New()
	input.Placeholder = "Author name"
	input.Prompt = "› "
	input.CharLimit = 120
	input.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Authors"
	results.SetFilteringEnabled(false)
	results.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      SearchView,
		catalog:   catalog,
		favorites: favorites,
		notices:   notices,
		input:     input,
		results:   results,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      newKeyMap(),
		inflight:  map[string]bool{},
	}
}

// Init starts the cursor blink and the notice listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForNotice())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-8)
		m.input.Width = max(msg.Width-10, 20)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchCompleted:
		data := msg.data.(searchData)
		m.loading = false
		if data.err != nil {
			m.setStatus(LevelError, fmt.Sprintf("Search failed: %v", data.err))
			return m, nil
		}
		m.query = data.query
		m.page = data.page
		m.numFound = data.result.NumFound
		m.authors = data.result.Authors
		m.refreshItems()
		m.results.ResetSelected()
		m.results.Title = fmt.Sprintf("Authors matching %q", data.query)
		m.input.Blur()
		m.view = ResultsView
		if len(m.authors) == 0 {
			m.setStatus(LevelInfo, "No authors found")
		} else {
			m.status = nil
		}
		return m, nil

	case MsgAuthorFetched:
		data := msg.data.(authorData)
		m.loading = false
		if data.err != nil {
			m.setStatus(LevelError, fmt.Sprintf("Could not load author: %v", data.err))
			return m, nil
		}
		m.author = data.author
		m.status = nil
		m.view = DetailView
		return m, nil

	case MsgToggleCompleted:
		data := msg.data.(toggleData)
		delete(m.inflight, data.author.ID)
		m.refreshItems()
		switch {
		case errors.Is(data.err, shared.ErrToggleInFlight):
			m.setStatus(LevelInfo, fmt.Sprintf("Already updating %s", data.author.Name))
		case data.err != nil:
			m.setStatus(LevelError, fmt.Sprintf("Could not update %s: %v", data.author.Name, data.err))
		case data.present:
			m.setStatus(LevelSuccess, fmt.Sprintf("Added %s to favorites", data.author.Name))
		default:
			m.setStatus(LevelSuccess, fmt.Sprintf("Removed %s from favorites", data.author.Name))
		}
		return m, nil

	case MsgNotice:
		n := msg.data.(Notice)
		m.status = &n
		return m, m.waitForNotice()
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if len(m.authors) == 0 {
			return m, tea.Quit
		}
		m.input.Blur()
		m.view = ResultsView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			m.setStatus(LevelInfo, "Enter an author name to search")
			return m, nil
		}
		return m, m.startLoading(m.fetchSearch(query, 1))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.next):
		if m.page < m.pages() {
			return m, m.startLoading(m.fetchSearch(m.query, m.page+1))
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if m.page > 1 {
			return m, m.startLoading(m.fetchSearch(m.query, m.page-1))
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if a, ok := m.selected(); ok {
			return m, m.toggle(a)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if a, ok := m.selected(); ok {
			return m, m.startLoading(m.fetchAuthor(a.ID))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ResultsView
		m.author = nil
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if m.author != nil {
			return m, m.toggle(*m.author)
		}
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) setStatus(level Level, message string) {
	m.status = &Notice{Level: level, Message: message}
}

func (m *Model) startLoading(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) selected() (models.Author, bool) {
	if item, ok := m.results.SelectedItem().(authorItem); ok {
		return item.author, true
	}
	return models.Author{}, false
}

func (m *Model) pages() int {
	limit := m.catalog.SearchLimit()
	if limit <= 0 {
		limit = 8
	}
	return (m.numFound + limit - 1) / limit
}

func (m *Model) isPending(id string) bool {
	return m.inflight[id] || m.favorites.IsPending(id)
}

// refreshItems rebuilds the list so favorite marks follow the cache.
func (m *Model) refreshItems() {
	items := make([]list.Item, len(m.authors))
	for i, a := range m.authors {
		items[i] = authorItem{author: a, favorite: m.favorites.IsFavorite(a.ID), pending: m.isPending(a.ID)}
	}
	m.results.SetItems(items)
}

func (m *Model) fetchSearch(query string, page int) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		result, err := catalog.SearchAuthors(ctx, query, page)
		return searchCompletedMsg(query, page, result, err)
	}
}

func (m *Model) fetchAuthor(id string) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		author, err := catalog.Author(ctx, id)
		return authorFetchedMsg(author, err)
	}
}

// toggle marks a as in flight and returns the command that settles it.
// A second toggle for the same author is refused until the first completes.
func (m *Model) toggle(a models.Author) tea.Cmd {
	if m.isPending(a.ID) {
		m.setStatus(LevelInfo, fmt.Sprintf("Already updating %s", a.Name))
		return nil
	}
	m.inflight[a.ID] = true
	m.refreshItems()

	ctx, favorites := m.ctx, m.favorites
	return func() tea.Msg {
		present, err := favorites.Toggle(ctx, a.ID)
		return toggleCompletedMsg(a, present, err)
	}
}

func (m *Model) waitForNotice() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	notices := m.notices
	return func() tea.Msg {
		n, ok := <-notices
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case ResultsView:
		body = m.renderResults()
	case DetailView:
		body = m.renderDetail()
	}
	return body + m.renderFooter()
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search Open Library authors")
	line := m.input.View()
	if m.loading {
		line += " " + m.spinner.View()
	}
	return fmt.Sprintf("%s\n%s\n", title, line)
}

func (m *Model) renderResults() string {
	info := fmt.Sprintf("Page %d of %d • %d authors • %d favorites", m.page, max(m.pages(), 1), m.numFound, m.favorites.Len())
	if m.loading {
		info += " " + m.spinner.View()
	}
	return fmt.Sprintf("%s\n%s\n", m.results.View(), styles.help.Render(info))
}

func (m *Model) renderDetail() string {
	if m.author == nil {
		return ""
	}
	a := m.author

	var b strings.Builder
	mark := favoriteMark(m.favorites.IsFavorite(a.ID), m.isPending(a.ID))
	b.WriteString(styles.title.Render(fmt.Sprintf("%s %s", mark, a.Name)))
	b.WriteString("\n")
	if span := formatter.Lifespan(a.BirthDate, a.DeathDate); span != "" {
		b.WriteString(fmt.Sprintf("Lived: %s\n", span))
	}
	if a.TopWork != "" {
		b.WriteString(fmt.Sprintf("Top work: %s\n", a.TopWork))
	}
	if a.WorkCount > 0 {
		b.WriteString(fmt.Sprintf("Works: %d\n", a.WorkCount))
	}
	b.WriteString(fmt.Sprintf("Key: /authors/%s\n", a.ID))
	if a.Bio != "" {
		width := 80
		if m.width > 0 {
			width = min(m.width-4, 100)
		}
		b.WriteString("\n" + lipgloss.NewStyle().Width(width).Render(a.Bio) + "\n")
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var bindings []key.Binding
	switch m.view {
	case SearchView:
		searchKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search"))
		bindings = []key.Binding{searchKey, m.keys.back}
	case ResultsView:
		bindings = []key.Binding{m.keys.enter, m.keys.toggle, m.keys.search, m.keys.next, m.keys.prev, m.keys.quit}
	case DetailView:
		bindings = []key.Binding{m.keys.toggle, m.keys.back, m.keys.quit}
	}

	status := ""
	if m.status != nil {
		status = "\n" + m.status.Render()
	}
	return fmt.Sprintf("%s\n\n%s", status, m.help.ShortHelpView(bindings))
}
