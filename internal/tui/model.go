// Package tui is the interactive terminal directory. It renders the
// filtered, paginated list and applies mutations optimistically.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/listing"
	"github.com/odyssey-erp/companydir/internal/optimistic"
)

// refreshDelay coalesces bursts of invalidations into one reload.
const refreshDelay = 200 * time.Millisecond

const maxNotices = 3

// Config wires a Model.
type Config struct {
	Backend optimistic.Backend
	// Events streams invalidated tags until ctx is done. Optional.
	Events      func(ctx context.Context, fn func(tag string)) error
	Initial     listing.State
	SearchDelay time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeAdd
	modeRename
)

type (
	wakeMsg     struct{}
	reloadedMsg struct{ err error }
	streamMsg   struct{ err error }
)

// inbox collects updates produced off the UI goroutine.
type inbox struct {
	mu        sync.Mutex
	companies []company.Company
	notices   []optimistic.Notice
	err       error
	wake      chan struct{}
}

func (b *inbox) poke() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Model is the bubbletea model of the directory.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	coord   *optimistic.Coordinator
	ctrl    *listing.Controller
	refresh *listing.Debouncer
	events  func(ctx context.Context, fn func(tag string)) error
	box     *inbox
	logger  *slog.Logger
	now     func() time.Time
	styles  Styles

	search textinput.Model
	editor textinput.Model
	mode   mode
	editID string
	cursor int
	width  int

	companies []company.Company
	notices   []optimistic.Notice
	err       error
}

// New builds a Model. Call Close when the program exits.
func New(cfg Config) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	box := &inbox{wake: make(chan struct{}, 1)}
	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		refresh: listing.NewDebouncer(refreshDelay),
		events:  cfg.Events,
		box:     box,
		logger:  cfg.Logger,
		now:     cfg.Now,
		styles:  DefaultStyles(),
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	delay := cfg.SearchDelay
	if delay <= 0 {
		delay = listing.SearchDelay
	}
	initial := cfg.Initial
	if initial == (listing.State{}) {
		initial = listing.DefaultState()
	}

	m.coord = optimistic.New(cfg.Backend, optimistic.Config{
		Logger: m.logger,
		Notifier: optimistic.NotifierFunc(func(n optimistic.Notice) {
			box.mu.Lock()
			box.notices = append(box.notices, n)
			if len(box.notices) > maxNotices {
				box.notices = box.notices[len(box.notices)-maxNotices:]
			}
			box.mu.Unlock()
			box.poke()
		}),
		OnChange: func(list []company.Company) {
			box.mu.Lock()
			box.companies = list
			box.mu.Unlock()
			box.poke()
		},
	})
	m.ctrl = listing.NewController(initial, delay, func(listing.State) { box.poke() })

	m.search = textinput.New()
	m.search.Placeholder = "Search by name or description"
	m.search.CharLimit = 100
	m.search.Width = 40
	m.search.SetValue(initial.Search)

	m.editor = textinput.New()
	m.editor.CharLimit = 100
	m.editor.Width = 40
	return m
}

// Init loads the directory and subscribes to live updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.reload(), m.waitForWake(), m.stream())
}

// Close stops background work and waits for in-flight mutations.
func (m *Model) Close() {
	m.cancel()
	m.refresh.Cancel()
	m.ctrl.Close()
	m.coord.Wait()
}

// State returns the committed view state, e.g. to print a shareable query.
func (m *Model) State() listing.State { return m.ctrl.State() }

func (m *Model) reload() tea.Cmd {
	return func() tea.Msg {
		err := m.coord.Reload(m.ctx)
		if errors.Is(err, optimistic.ErrStaleReload) {
			err = nil
		}
		return reloadedMsg{err: err}
	}
}

func (m *Model) waitForWake() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.box.wake:
			return wakeMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) stream() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		err := m.events(m.ctx, func(tag string) {
			if tag != company.TagCompanies {
				return
			}
			m.refresh.Debounce(func() {
				err := m.coord.Reload(m.ctx)
				if err != nil && !errors.Is(err, optimistic.ErrStaleReload) && m.ctx.Err() == nil {
					m.box.mu.Lock()
					m.box.err = err
					m.box.mu.Unlock()
					m.box.poke()
				}
			})
		})
		return streamMsg{err: err}
	}
}

// pull copies the latest background updates into the model.
func (m *Model) pull() {
	m.box.mu.Lock()
	m.companies = m.box.companies
	m.notices = slices.Clone(m.box.notices)
	if m.box.err != nil {
		m.err = m.box.err
		m.box.err = nil
	}
	m.box.mu.Unlock()
	m.ctrl.ClampPage(m.view().Page.TotalPages)
	m.clampCursor()
}

func (m *Model) view() listing.View {
	return listing.Build(m.companies, m.ctrl.State())
}

func (m *Model) selected() (company.Company, bool) {
	items := m.view().Page.Items
	if m.cursor < 0 || m.cursor >= len(items) {
		return company.Company{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.view().Page.Items)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case wakeMsg:
		m.pull()
		return m, m.waitForWake()
	case reloadedMsg:
		m.err = msg.err
		m.pull()
		return m, nil
	case streamMsg:
		if msg.err != nil && m.ctx.Err() == nil {
			m.err = fmt.Errorf("live updates stopped: %w", msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeAdd, modeRename:
			return m.updateEditor(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.ctrl.CommitSearch()
		fallthrough
	case "esc":
		m.search.Blur()
		m.mode = modeBrowse
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.ctrl.SetSearchInput(m.search.Value())
	return m, cmd
}

func (m *Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editor.Blur()
		m.mode = modeBrowse
		return m, nil
	case "enter":
		name := m.editor.Value()
		if m.mode == modeAdd {
			m.coord.Create(m.ctx, company.Attributes{Name: name})
		} else if c, ok := m.find(m.editID); ok {
			c.Name = name
			m.coord.Update(m.ctx, c)
		}
		m.editor.Blur()
		m.editor.SetValue("")
		m.mode = modeBrowse
		m.pull()
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.view()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "left", "h", "p":
		if m.ctrl.Previous() {
			m.cursor = 0
		}
	case "right", "l", "n":
		if m.ctrl.Next(v.Page.TotalPages) {
			m.cursor = 0
		}
	case "i":
		m.ctrl.SetIndustry(nextIndustry(v.Industries, v.State.Industry))
		m.cursor = 0
	case "s":
		m.ctrl.SetItemsPerPage(nextSize(v.State.ItemsPerPage))
		m.cursor = 0
	case "c":
		m.ctrl.ClearFilters()
		m.search.SetValue("")
		m.cursor = 0
	case "a":
		m.mode = modeAdd
		m.editID = ""
		m.editor.Placeholder = "New company name"
		m.editor.SetValue("")
		return m, m.editor.Focus()
	case "e":
		if c, ok := m.selected(); ok {
			m.mode = modeRename
			m.editID = c.ID
			m.editor.Placeholder = "Company name"
			m.editor.SetValue(c.Name)
			return m, m.editor.Focus()
		}
	case "d":
		if c, ok := m.selected(); ok {
			m.coord.Delete(m.ctx, c.ID)
			m.pull()
		}
	case "r":
		return m, m.reload()
	}
	m.clampCursor()
	return m, nil
}

func (m *Model) find(id string) (company.Company, bool) {
	for _, c := range m.companies {
		if c.ID == id {
			return c, true
		}
	}
	return company.Company{}, false
}

// nextIndustry cycles through "" (all) and then each industry in order.
func nextIndustry(industries []string, current string) string {
	if current == "" {
		if len(industries) == 0 {
			return ""
		}
		return industries[0]
	}
	i := slices.Index(industries, current)
	if i < 0 || i+1 >= len(industries) {
		return ""
	}
	return industries[i+1]
}

func nextSize(current int) int {
	sizes := listing.AllowedItemsPerPage
	i := slices.Index(sizes, current)
	return sizes[(i+1)%len(sizes)]
}

// View renders the directory.
func (m *Model) View() string {
	v := m.view()
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Company Directory"))
	b.WriteString("\n")
	b.WriteString(m.filterBar(v))
	b.WriteString("\n\n")

	switch m.mode {
	case modeAdd, modeRename:
		b.WriteString(m.editor.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Muted.Render(v.Page.Info()))
	b.WriteString("\n")
	if len(v.Page.Items) > 0 {
		b.WriteString(m.renderTable(v.Page.Items))
		b.WriteString("\n")
	}
	if v.Page.TotalPages > 1 {
		b.WriteString(m.renderPagination(v))
		b.WriteString("\n")
	}

	for _, n := range m.notices {
		style := m.styles.Success
		if n.Level == optimistic.LevelError {
			style = m.styles.Error
		}
		b.WriteString(style.Render(n.Message))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.Error.Render(company.UserMessage("load", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render("/ search  i industry  s page size  ←/→ page  a add  e rename  d delete  c clear  r reload  q quit"))
	return b.String()
}

func (m *Model) filterBar(v listing.View) string {
	industry := v.State.Industry
	if industry == "" {
		industry = "All industries"
	}
	search := m.search.View()
	if m.mode != modeSearch {
		search = "Search: " + m.search.Value()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		search,
		m.styles.Muted.Render("  |  Industry: "), industry,
		m.styles.Muted.Render("  |  Per page: "), fmt.Sprint(v.State.ItemsPerPage),
	)
}

func (m *Model) renderTable(items []company.Company) string {
	now := m.now()
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{
			c.Name,
			c.Industry.Display(),
			c.Location.Display(),
			company.FormatEmployeeCount(c.EmployeeCount),
			company.FormatAge(c.Founded, now),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(m.styles.Muted).
		Headers("Name", "Industry", "Location", "Employees", "Age").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return m.styles.Header
			case row == m.cursor:
				return m.styles.Selected
			case row >= 0 && row < len(items) && optimistic.IsLocalID(items[row].ID):
				return m.styles.Pending
			default:
				return m.styles.Cell
			}
		}).
		String()
}

func (m *Model) renderPagination(v listing.View) string {
	parts := make([]string, 0, len(v.PageNumbers)+2)
	prev := "‹ Prev"
	if !v.Page.HasPrevious() {
		prev = m.styles.Muted.Render(prev)
	}
	parts = append(parts, prev)
	for _, link := range v.PageNumbers {
		label := link.String()
		if !link.Ellipsis && link.Number == v.Page.PageNumber {
			label = m.styles.Active.Render(label)
		}
		parts = append(parts, label)
	}
	next := "Next ›"
	if !v.Page.HasNext() {
		next = m.styles.Muted.Render(next)
	}
	parts = append(parts, next)
	return strings.Join(parts, " ")
}
