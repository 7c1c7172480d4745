package tui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratcomtech/stratadmin/internal/dashboard"
	"github.com/stratcomtech/stratadmin/pkg/client"
	"github.com/stratcomtech/stratadmin/pkg/domain"
)

// testBoardClient backs the board with a stub API for tests that execute the
// confirming re-fetch command.
func testBoardClient(t *testing.T) *client.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("[]")) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL, "tok")
}

func testApps() []domain.Application {
	return []domain.Application{
		{ID: 1, Name: "Mary Apio", Email: "mary@example.com", Course: "Networking", Status: domain.StatusPending, RegisterDate: "2026-03-07"},
		{ID: 2, Name: "John Okello", Email: "john@example.com", Course: "Cyber Security", Status: domain.StatusApproved, RegisterDate: "2026-03-08"},
		{ID: 3, Name: "Grace Atim", Email: "grace@example.com", Course: "Networking", Status: domain.StatusDeclined, RegisterDate: "2026-03-09"},
	}
}

func loadedBoard(t *testing.T) boardModel {
	t.Helper()
	m := newBoardModel(nil, 10, "DD/MM/YYYY")
	m, _ = m.Update(appsLoadedMsg{page: &domain.ApplicationPage{Results: testApps()}})
	return m
}

// collectMsgs runs a command tree and flattens the messages it produces.
func collectMsgs(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(t, c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func toastsIn(msgs []tea.Msg) []toastMsg {
	var out []toastMsg
	for _, m := range msgs {
		if tm, ok := m.(toastMsg); ok {
			out = append(out, tm)
		}
	}
	return out
}

func TestBoardRendersTable(t *testing.T) {
	m := loadedBoard(t)
	view := m.View(testStyles())

	for _, want := range []string{"Mary Apio", "John Okello", "Grace Atim", "Total 3", "Approved 1", "Declined 1", "Pending 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if !strings.Contains(view, "07/03/2026") {
		t.Error("view missing the formatted register date")
	}
}

func TestBoardFilterCycle(t *testing.T) {
	m := loadedBoard(t)

	m, _ = m.Update(key("f"))
	if got := m.state.ActiveFilter(); got != domain.StatusApproved {
		t.Fatalf("filter after one cycle = %q, want %q", got, domain.StatusApproved)
	}
	view := m.View(testStyles())
	if strings.Contains(view, "Mary Apio") {
		t.Error("pending applicant shown under the approved filter")
	}
	// Summary cards hold steady while filtered.
	if !strings.Contains(view, "Total 3") {
		t.Error("summary changed under filter")
	}

	// A full cycle returns to the unfiltered table.
	for i := 0; i < 3; i++ {
		m, _ = m.Update(key("f"))
	}
	if got := m.state.ActiveFilter(); got != dashboard.FilterAll {
		t.Errorf("filter after full cycle = %q, want %q", got, dashboard.FilterAll)
	}
}

func TestBoardCursorAndSelection(t *testing.T) {
	m := loadedBoard(t)
	m, _ = m.Update(key("j"))
	app, ok := m.selected()
	if !ok || app.ID != 2 {
		t.Fatalf("selected() = %+v, want the second row", app)
	}

	// The cursor clamps at the end of the page.
	for i := 0; i < 5; i++ {
		m, _ = m.Update(key("j"))
	}
	app, _ = m.selected()
	if app.ID != 3 {
		t.Errorf("selected ID = %d, want clamped at 3", app.ID)
	}
}

func TestBoardStatusUpdatePartialSuccess(t *testing.T) {
	m := loadedBoard(t)
	m.client = testBoardClient(t)
	m, cmd := m.Update(statusUpdatedMsg{
		id:     1,
		status: domain.StatusApproved,
		result: &domain.StatusUpdateResult{EmailNotification: "failed", EmailError: "smtp timeout"},
	})

	// Optimistic patch applies before the confirming re-fetch.
	sum := m.state.Summary()
	if sum.Approved != 2 {
		t.Errorf("Approved = %d after patch, want 2", sum.Approved)
	}

	toasts := toastsIn(collectMsgs(t, cmd))
	if len(toasts) != 2 {
		t.Fatalf("toasts = %d, want success plus email failure", len(toasts))
	}
	var sawSuccess, sawEmailFail bool
	for _, toast := range toasts {
		if toast.level == toastSuccess {
			sawSuccess = true
		}
		if toast.level == toastError && strings.Contains(toast.text, "smtp timeout") {
			sawEmailFail = true
		}
	}
	if !sawSuccess || !sawEmailFail {
		t.Errorf("toasts = %+v, want one success and one email failure", toasts)
	}
}

func TestBoardDeleteNeedsConfirmation(t *testing.T) {
	m := loadedBoard(t)

	m, cmd := m.Update(key("x"))
	if cmd != nil {
		t.Fatal("delete fired without confirmation")
	}
	if !strings.Contains(m.View(testStyles()), "delete this application?") {
		t.Error("view missing the confirmation prompt")
	}

	// n cancels.
	m, _ = m.Update(key("n"))
	if m.confirmDelete != 0 {
		t.Error("confirmation not cleared by n")
	}

	// y resolves into the delete command.
	m, _ = m.Update(key("x"))
	_, cmd = m.Update(key("y"))
	if cmd == nil {
		t.Error("y did not produce the delete command")
	}
}

func TestBoardDeletedRemovesRow(t *testing.T) {
	m := loadedBoard(t)
	m, _ = m.Update(appDeletedMsg{id: 2})
	if got := m.state.OriginalLen(); got != 2 {
		t.Errorf("OriginalLen() = %d, want 2", got)
	}
	if strings.Contains(m.View(testStyles()), "John Okello") {
		t.Error("deleted applicant still rendered")
	}
}

func TestBoardSearchFocusCapturesKeys(t *testing.T) {
	m := loadedBoard(t)
	m, _ = m.Update(key("/"))
	if !m.searchFocused {
		t.Fatal("search not focused by /")
	}

	// Letters now feed the query instead of triggering actions.
	for _, r := range "mary" {
		m, _ = m.Update(key(string(r)))
	}
	if m.search != "mary" {
		t.Errorf("search = %q, want %q", m.search, "mary")
	}
	if m.confirmDelete != 0 {
		t.Error("action keys leaked through search input")
	}

	// Esc clears and unfocuses.
	m, _ = m.Update(key("esc"))
	if m.searchFocused || m.search != "" {
		t.Errorf("after esc: focused=%v search=%q, want cleared", m.searchFocused, m.search)
	}
}

func TestBoardPageSizeFromSettings(t *testing.T) {
	m := newBoardModel(nil, 2, "DD/MM/YYYY")
	m, _ = m.Update(appsLoadedMsg{page: &domain.ApplicationPage{Results: testApps()}})

	if got := m.state.TotalPages(); got != 2 {
		t.Fatalf("TotalPages() = %d, want 2 with page size 2", got)
	}
	m.applySettings(10, "YYYY-MM-DD")
	if got := m.state.TotalPages(); got != 1 {
		t.Errorf("TotalPages() = %d after resize, want 1", got)
	}
	if !strings.Contains(m.View(testStyles()), "2026-03-07") {
		t.Error("view missing the re-formatted date")
	}
}

func TestBoardLoadErrorToasts(t *testing.T) {
	m := newBoardModel(nil, 10, "DD/MM/YYYY")
	_, cmd := m.Update(appsLoadedMsg{err: errTransport{}})
	toasts := toastsIn(collectMsgs(t, cmd))
	if len(toasts) != 1 || toasts[0].level != toastError {
		t.Errorf("toasts = %+v, want a single error toast", toasts)
	}
}
