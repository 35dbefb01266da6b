package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/optimistic"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/repositories"
	"github.com/desertthunder/vkx/internal/search"
	"github.com/desertthunder/vkx/internal/services"
	"github.com/desertthunder/vkx/internal/shared"
	"github.com/desertthunder/vkx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CollectionsView ViewState = iota
	DetailView
	PlacesView
	AddView
)

const maxNotices = 3

// Deps are the services the TUI drives. History and User may be nil.
type Deps struct {
	Catalog services.Catalog
	Likes   *tasks.LikeEngine
	Content *tasks.ContentEngine
	Cache   *query.Client
	History *repositories.SearchHistoryRepository
	User    *models.User
	UI      shared.UIConfig
	Clock   clockwork.Clock
	Logger  *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	view   ViewState
	width  int
	height int

	public      bool
	sortBy      models.PublicSort
	page        int
	totalPages  int
	collections list.Model
	rowCells    map[int64]*optimistic.LikeCell

	detail      *models.CollectionDetail
	detailCell  *optimistic.LikeCell
	albums      list.Model
	albumPage   int
	pager       paginator.Model
	input       textinput.Model
	finder      *search.Controller
	found       *models.CollectionSearch
	finding     bool
	recall      *search.Recall
	recallScope string

	places     list.Model
	placeCells map[int64]*optimistic.LikeCell

	addTarget   int64
	addInput    textinput.Model
	proxy       *search.Controller
	artists     bool
	hits        list.Model
	hitCount    int
	hitsLoading bool
	adding      map[string]bool

	notices []tasks.Notice
	loading bool
	spinner spinner.Model
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	pager := paginator.New()
	pager.Type = paginator.Dots

	input := newInput("Search this collection")
	addInput := newInput("Search albums")

	return &Model{
		ctx:         ctx,
		deps:        deps,
		view:        CollectionsView,
		sortBy:      models.SortUpdated,
		page:        1,
		collections: newList("My Collections"),
		rowCells:    map[int64]*optimistic.LikeCell{},
		albums:      newList("Albums"),
		pager:       pager,
		input:       input,
		finder:      newController(deps.UI),
		places:      newList("Places"),
		placeCells:  map[int64]*optimistic.LikeCell{},
		addInput:    addInput,
		proxy:       newController(deps.UI),
		hits:        newList("Results"),
		adding:      map[string]bool{},
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 100
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func newController(cfg shared.UIConfig) *search.Controller {
	var opts []search.Option
	if cfg.SearchDebounce.Duration > 0 {
		opts = append(opts, search.WithWindow(cfg.SearchDebounce.Duration))
	}
	if cfg.SearchMinLength > 0 {
		opts = append(opts, search.WithMinLength(cfg.SearchMinLength))
	}
	return search.NewController(opts...)
}

func (m *Model) pageSize() int {
	if m.deps.UI.PageSize > 0 {
		return m.deps.UI.PageSize
	}
	return services.DefaultPageSize
}

func (m *Model) now() time.Time {
	return m.deps.Clock.Now()
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init fetches the first page of the user's collections.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.fetchCollections(false, 1))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.collections, &m.albums, &m.places, &m.hits} {
			l.SetSize(msg.Width-4, msg.Height-10)
		}
		m.input.Width = msg.Width - 8
		m.addInput.Width = msg.Width - 8
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case CollectionsView:
			return m.handleCollectionsKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case PlacesView:
			return m.handlePlacesKeys(msg)
		case AddView:
			return m.handleAddKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	switch {
	case m.view == DetailView && m.input.Focused():
		m.input, cmd = m.input.Update(msg)
	case m.view == AddView && m.addInput.Focused():
		m.addInput, cmd = m.addInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCollectionsFetched:
		return m.onCollections(msg.data.(collectionsData))
	case MsgDetailFetched:
		return m.onDetail(msg.data.(detailData))
	case MsgAlbumsFetched:
		return m.onAlbums(msg.data.(albumsData))
	case MsgSearchTick:
		return m.onTick(msg.data.(tickData))
	case MsgSearchResults:
		return m.onSearchResults(msg.data.(searchData))
	case MsgPlacesFetched:
		return m.onPlaces(msg.data.(placesData))
	case MsgHitsFetched:
		return m.onHits(msg.data.(hitsData))
	case MsgLikeSettled:
		d := msg.data.(likeData)
		m.deps.Logger.Debug("like settled", "target", d.target, "id", d.id, "outcome", d.outcome)
		return m, nil
	case MsgNotice:
		d := msg.data.(noticeData)
		if d.key != "" {
			delete(m.adding, d.key)
			m.refreshHits()
		}
		m.pushNotice(d.notice)
		return m, m.afterMutation()
	case MsgRecallLoaded:
		d := msg.data.(recallData)
		if d.scope == m.recallScope {
			m.recall = search.NewRecall(d.entries)
		}
		return m, nil
	}
	return m, nil
}

// afterMutation refetches whatever the current view shows that a mutation may have invalidated.
// Shown search results count as part of the view.
func (m *Model) afterMutation() tea.Cmd {
	if m.view != DetailView || m.detail == nil {
		return nil
	}
	id := m.detail.ID
	var cmds []tea.Cmd
	if m.deps.Cache.Stale(query.CollectionAlbumsKey(id, m.albumPage, m.pageSize())) ||
		m.deps.Cache.Stale(query.CollectionDetailKey(id)) {
		cmds = append(cmds, m.fetchDetail(id), m.fetchAlbums(id, m.albumPage))
	}
	if q, ok := m.finder.Committed(); ok && m.found != nil &&
		m.deps.Cache.Stale(query.CollectionSearchKey(id, q, string(models.SearchBoth))) {
		m.finding = true
		cmds = append(cmds, m.searchCollection(id, q))
	}
	return tea.Batch(cmds...)
}

func (m *Model) pushNotice(n tasks.Notice) {
	if n.Message == "" {
		return
	}
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m *Model) dismissNotice() {
	if len(m.notices) > 0 {
		m.notices = m.notices[1:]
	}
}

// toggleLike applies a toggle locally and returns the command that runs it.
// Refused toggles (cooldown, closed cell) do nothing.
func (m *Model) toggleLike(target tasks.Target, cell *optimistic.LikeCell) tea.Cmd {
	if cell == nil {
		return nil
	}
	call, err := cell.Toggle()
	if err != nil {
		m.deps.Logger.Debug("like refused", "target", target, "id", cell.ID(), "error", err)
		return nil
	}
	return m.runLike(target, call)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case CollectionsView:
		body = m.renderCollections()
	case DetailView:
		body = m.renderDetail()
	case PlacesView:
		body = m.renderPlaces()
	case AddView:
		body = m.renderAdd()
	}

	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Failed to load: %v", m.err)))
		b.WriteString("\n\n")
	}
	b.WriteString(body)
	if n := m.renderNotices(); n != "" {
		b.WriteString("\n\n")
		b.WriteString(n)
	}
	return b.String()
}

func (m *Model) renderNotices() string {
	lines := make([]string, 0, len(m.notices))
	for _, n := range m.notices {
		switch n.Severity {
		case tasks.Error:
			lines = append(lines, styles.err.Render("✗ "+n.Message))
		case tasks.Success:
			lines = append(lines, styles.ok.Render("✓ "+n.Message))
		default:
			lines = append(lines, styles.warn.Render("• "+n.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) loadingLine() string {
	if !m.loading {
		return ""
	}
	return m.spinner.View() + " Loading…"
}
