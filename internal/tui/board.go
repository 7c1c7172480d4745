package tui

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratcomtech/stratadmin/internal/dashboard"
	"github.com/stratcomtech/stratadmin/pkg/client"
	"github.com/stratcomtech/stratadmin/pkg/domain"
)

// statusFilters is the chip order on the board.
var statusFilters = []string{dashboard.FilterAll, domain.StatusApproved, domain.StatusPending, domain.StatusDeclined}

// -- messages --

type appsLoadedMsg struct {
	page *domain.ApplicationPage
	err  error
}

type statusUpdatedMsg struct {
	id     int
	status string
	result *domain.StatusUpdateResult
	err    error
}

type appDeletedMsg struct {
	id  int
	err error
}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

type contactCopiedMsg struct {
	name string
	err  error
}

// -- model --

type boardModel struct {
	client *client.Client
	state  *dashboard.State

	search        string
	searchFocused bool
	cursor        int
	loading       bool
	confirmDelete int // application id pending delete confirmation, 0 none

	dateFormat string
	width      int
	height     int
}

func newBoardModel(c *client.Client, pageSize int, dateFormat string) boardModel {
	return boardModel{
		client:     c,
		state:      dashboard.NewState(pageSize),
		dateFormat: dateFormat,
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.load()
}

func (m boardModel) load() tea.Cmd {
	c := m.client
	search := m.search
	return func() tea.Msg {
		page, err := c.ListApplications(context.Background(), search)
		return appsLoadedMsg{page: page, err: err}
	}
}

func (m boardModel) updateStatus(id int, status string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		result, err := c.UpdateApplicationStatus(context.Background(), id, status)
		return statusUpdatedMsg{id: id, status: status, result: result, err: err}
	}
}

func (m boardModel) deleteApp(id int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		err := c.DeleteApplication(context.Background(), id)
		return appDeletedMsg{id: id, err: err}
	}
}

func (m boardModel) exportCSV() tea.Cmd {
	apps := m.state.Current()
	rows := make([]domain.Application, len(apps))
	copy(rows, apps)
	return func() tea.Msg {
		home, err := os.UserHomeDir()
		if err != nil {
			return exportDoneMsg{err: err}
		}
		name := fmt.Sprintf("applications_export_%s.csv", time.Now().Format("2006-01-02"))
		path := filepath.Join(home, name)
		if err := writeExport(path, rows); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path, rows: len(rows)}
	}
}

func writeExport(path string, apps []domain.Application) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Name", "Email", "Phone", "Course", "Date of Birth", "Source", "Status"}); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, app := range apps {
		record := []string{app.Name, app.Email, app.Tel, app.Course, app.DateOfBirth, app.Source, app.EffectiveStatus()}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return f.Close()
}

func (m boardModel) copyContact(app domain.Application) tea.Cmd {
	return func() tea.Msg {
		text := app.Email
		if app.Tel != "" {
			text = app.Email + " " + app.Tel
		}
		return contactCopiedMsg{name: app.Name, err: clipboard.WriteAll(text)}
	}
}

// selected returns the application under the cursor, if any.
func (m boardModel) selected() (domain.Application, bool) {
	page := m.state.Page()
	if m.cursor < 0 || m.cursor >= len(page) {
		return domain.Application{}, false
	}
	return page[m.cursor], true
}

func (m *boardModel) clampCursor() {
	if n := len(m.state.Page()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// applySettings reacts to settings changes that parameterize the table.
func (m *boardModel) applySettings(pageSize int, dateFormat string) {
	m.state.SetPageSize(pageSize)
	m.dateFormat = dateFormat
	m.clampCursor()
}

func (m boardModel) Update(msg tea.Msg) (boardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case appsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, toastCmd(toastError, "Error fetching applications")
		}
		m.state.SetApplications(msg.page.Results)
		m.clampCursor()
		return m, nil

	case statusUpdatedMsg:
		if msg.err != nil {
			return m, toastCmd(toastError, "Failed to update status")
		}
		m.state.ApplyStatus(msg.id, msg.status)
		cmds := []tea.Cmd{
			toastCmd(toastSuccess, fmt.Sprintf("Application %s", msg.status)),
			m.load(), // confirming re-fetch is the source of truth
		}
		// Partial success: the status changed but the email did not go out.
		if msg.result != nil && msg.result.EmailFailed() {
			detail := msg.result.EmailError
			if detail == "" {
				detail = "unknown error"
			}
			cmds = append(cmds, toastCmd(toastError, "Email notification failed: "+detail))
		}
		return m, tea.Batch(cmds...)

	case appDeletedMsg:
		if msg.err != nil {
			return m, toastCmd(toastError, "Failed to delete application")
		}
		m.state.Remove(msg.id)
		m.clampCursor()
		return m, tea.Batch(toastCmd(toastSuccess, "Application deleted"), m.load())

	case exportDoneMsg:
		if msg.err != nil {
			return m, toastCmd(toastError, "Export failed")
		}
		return m, toastCmd(toastSuccess, fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.path))

	case contactCopiedMsg:
		if msg.err != nil {
			return m, toastCmd(toastError, "Clipboard unavailable")
		}
		return m, toastCmd(toastInfo, "Copied contact for "+msg.name)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m boardModel) updateKeys(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	// Delete confirmation captures keys until resolved.
	if m.confirmDelete != 0 {
		switch msg.String() {
		case "y", "enter":
			id := m.confirmDelete
			m.confirmDelete = 0
			return m, m.deleteApp(id)
		case "n", "esc":
			m.confirmDelete = 0
		}
		return m, nil
	}

	if m.searchFocused {
		switch msg.String() {
		case "enter":
			m.searchFocused = false
			m.loading = true
			m.state.SetPage(1)
			return m, m.load()
		case "esc":
			m.searchFocused = false
			m.search = ""
			return m, m.load()
		default:
			m.search = editRune(m.search, msg.String())
		}
		return m, nil
	}

	switch msg.String() {
	case "/":
		m.searchFocused = true
	case "j", "down":
		if m.cursor < len(m.state.Page())-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "h", "left":
		m.state.PrevPage()
		m.clampCursor()
	case "l", "right":
		m.state.NextPage()
		m.clampCursor()
	case "f":
		m.state.Filter(nextFilter(m.state.ActiveFilter()))
		m.cursor = 0
	case "a":
		if app, ok := m.selected(); ok {
			return m, m.updateStatus(app.ID, domain.StatusApproved)
		}
	case "d":
		if app, ok := m.selected(); ok {
			return m, m.updateStatus(app.ID, domain.StatusDeclined)
		}
	case "x":
		if app, ok := m.selected(); ok {
			m.confirmDelete = app.ID
		}
	case "c":
		if app, ok := m.selected(); ok {
			return m, m.copyContact(app)
		}
	case "e":
		return m, m.exportCSV()
	}
	return m, nil
}

func nextFilter(current string) string {
	for i, f := range statusFilters {
		if f == current {
			return statusFilters[(i+1)%len(statusFilters)]
		}
	}
	return dashboard.FilterAll
}

func (m boardModel) View(s styles) string {
	var b strings.Builder

	// Summary cards always reflect the unfiltered collection.
	sum := m.state.Summary()
	cards := []string{
		s.card.Render(s.normal.Render(fmt.Sprintf("Total %d", sum.Total))),
		s.card.Render(s.success.Render(fmt.Sprintf("Approved %d", sum.Approved))),
		s.card.Render(s.danger.Render(fmt.Sprintf("Declined %d", sum.Declined))),
		s.card.Render(s.warning.Render(fmt.Sprintf("Pending %d", sum.Pending))),
	}
	b.WriteString(strings.Join(cards, " ") + "\n")

	// Search + filter chips.
	searchLine := " " + s.dim.Render("search: ")
	if m.searchFocused {
		searchLine += s.normal.Render(m.search) + s.accent.Render("█")
	} else if m.search != "" {
		searchLine += s.normal.Render(m.search)
	} else {
		searchLine += s.placeholder.Render("/ to search")
	}
	var chips []string
	for _, f := range statusFilters {
		if f == m.state.ActiveFilter() {
			chips = append(chips, s.selected.Underline(true).Render(f))
		} else {
			chips = append(chips, s.dim.Render(f))
		}
	}
	b.WriteString(searchLine + "   " + strings.Join(chips, " ") + "\n\n")

	if m.loading && m.state.Len() == 0 {
		b.WriteString(" " + s.dim.Render("loading applications..."))
		return b.String()
	}
	if m.state.Len() == 0 {
		b.WriteString(" " + s.dim.Render("no applications"))
		return b.String()
	}

	// Table header.
	header := " " + s.meta.Render(padRight("NAME", 22)+padRight("COURSE", 18)+padRight("CONTACT", 26)+padRight("DATE", 12)+"STATUS")
	b.WriteString(header + "\n")

	for i, app := range m.state.Page() {
		marker := "  "
		rowStyle := s.normal
		if i == m.cursor {
			marker = s.accent.Render("> ")
			rowStyle = s.selected
		}
		status := app.EffectiveStatus()
		row := marker +
			rowStyle.Render(padRight(app.Name, 22)) +
			s.dim.Render(padRight(app.Course, 18)) +
			s.dim.Render(padRight(app.Email, 26)) +
			s.dim.Render(padRight(formatDate(app.RegisterDate, m.dateFormat), 12)) +
			s.statusStyle(status).Render(status)
		b.WriteString(row + "\n")

		if m.confirmDelete == app.ID {
			b.WriteString("   " + s.danger.Render("delete this application? y/n") + "\n")
		}
	}

	b.WriteString("\n " + s.meta.Render(fmt.Sprintf("page %d/%d · %d shown of %d",
		m.state.PageNumber(), m.state.TotalPages(), m.state.Len(), m.state.OriginalLen())))
	if !m.state.LastUpdated().IsZero() {
		b.WriteString(s.meta.Render(" · updated " + formatTime(m.state.LastUpdated())))
	}
	b.WriteString("\n")

	return b.String()
}

func (m boardModel) helpLine(s styles) string {
	return " " + s.helpEntry("j/k", "rows") + "  " + s.helpEntry("h/l", "page") + "  " +
		s.helpEntry("f", "filter") + "  " + s.helpEntry("/", "search") + "  " +
		s.helpEntry("a/d", "approve/decline") + "  " + s.helpEntry("x", "delete") + "  " +
		s.helpEntry("c", "copy") + "  " + s.helpEntry("e", "export")
}
