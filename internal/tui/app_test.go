package tui

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stratcomtech/stratadmin/internal/notify"
	"github.com/stratcomtech/stratadmin/internal/poll"
	"github.com/stratcomtech/stratadmin/internal/session"
	"github.com/stratcomtech/stratadmin/internal/settings"
	"github.com/stratcomtech/stratadmin/pkg/client"
	"github.com/stratcomtech/stratadmin/pkg/domain"
)

func testApp(t *testing.T, restored bool) *App {
	t.Helper()
	dir := t.TempDir()
	store, err := settings.Load(filepath.Join(dir, "config.yaml"), zerolog.Nop())
	if err != nil {
		t.Fatalf("settings.Load: %v", err)
	}
	sessions := session.NewStore(filepath.Join(dir, "token"), zerolog.Nop())
	c := client.New("http://localhost:0", "")
	return NewApp(c, store, sessions, notify.NewPlayer(&bytes.Buffer{}), zerolog.Nop(), restored)
}

func TestAppUnauthenticatedShowsLogin(t *testing.T) {
	a := testApp(t, false)
	view := a.View()
	if !strings.Contains(view, "STRATCOM ADMIN") {
		t.Error("view missing the title")
	}
	if !strings.Contains(view, "Admin phone") {
		t.Errorf("view missing the phone field:\n%s", view)
	}
}

func TestAppRestoredSkipsLogin(t *testing.T) {
	a := testApp(t, true)
	if strings.Contains(a.View(), "Admin phone") {
		t.Error("restored session still shows the login form")
	}
	if !strings.Contains(a.View(), "Applications") {
		t.Error("view missing the tab bar")
	}
}

func TestAppTabSwitching(t *testing.T) {
	a := testApp(t, true)

	model, _ := a.Update(key("2"))
	a = model.(*App)
	if a.tab != tabInbox {
		t.Fatalf("tab = %v, want inbox", a.tab)
	}
	if !strings.Contains(a.View(), "no notifications yet") {
		t.Error("inbox view not rendered")
	}

	model, _ = a.Update(key("tab"))
	a = model.(*App)
	if a.tab != tabPrefs {
		t.Errorf("tab = %v after cycle, want prefs", a.tab)
	}

	model, _ = a.Update(key("shift+tab"))
	a = model.(*App)
	if a.tab != tabInbox {
		t.Errorf("tab = %v after reverse cycle, want inbox", a.tab)
	}
}

func TestAppToastLifecycle(t *testing.T) {
	a := testApp(t, true)

	model, _ := a.Update(toastMsg{level: toastSuccess, text: "Application approved"})
	a = model.(*App)
	if !strings.Contains(a.View(), "Application approved") {
		t.Fatal("toast not rendered")
	}

	// Expired toasts drop on the next tick.
	a.toasts[0].expires = time.Now().Add(-time.Second)
	model, _ = a.Update(toastTickMsg{})
	a = model.(*App)
	if strings.Contains(a.View(), "Application approved") {
		t.Error("expired toast still rendered")
	}
}

func TestAppSettingsChangeRethemesAndResizes(t *testing.T) {
	a := testApp(t, true)

	st := a.store.Current()
	st.System.Theme = "light"
	st.System.ItemsPerPage = 25

	model, _ := a.Update(settingsChangedMsg{settings: st})
	a = model.(*App)
	if a.styles.normal.GetForeground() != lightPalette.text {
		t.Error("styles not rebuilt for the light palette")
	}
	a.board.state.SetApplications(make([]domain.Application, 30))
	if got := a.board.state.TotalPages(); got != 2 {
		t.Errorf("TotalPages() = %d, want 2 with 25 per page", got)
	}
}

func TestAppFeedEventReachesInbox(t *testing.T) {
	a := testApp(t, true)

	feed := domain.NotificationFeed{UnreadCount: 3}
	model, _ := a.Update(engineEventMsg{event: poll.FeedEvent{Feed: feed}})
	a = model.(*App)
	if a.inbox.feed.UnreadCount != 3 {
		t.Errorf("inbox UnreadCount = %d, want 3", a.inbox.feed.UnreadCount)
	}
}

func TestAppPrefsEditingSuspendsGlobalKeys(t *testing.T) {
	a := testApp(t, true)
	model, _ := a.Update(key("3"))
	a = model.(*App)

	// Open the display name editor, then type a "2": it must land in the
	// buffer instead of switching tabs.
	model, _ = a.Update(key("enter"))
	a = model.(*App)
	if !a.prefs.editing {
		t.Fatal("editor not open")
	}
	model, _ = a.Update(key("2"))
	a = model.(*App)
	if a.tab != tabPrefs {
		t.Fatal("global key leaked through an active editor")
	}
	if !strings.Contains(a.prefs.buffer, "2") {
		t.Errorf("buffer = %q, want the typed character", a.prefs.buffer)
	}
}
