package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stratcomtech/stratadmin/internal/poll"
	"github.com/stratcomtech/stratadmin/internal/settings"
	"github.com/stratcomtech/stratadmin/pkg/domain"
)

type stubPollClient struct {
	marked [][]string
}

func (s *stubPollClient) ListApplications(context.Context, string) (*domain.ApplicationPage, error) {
	return &domain.ApplicationPage{}, nil
}

func (s *stubPollClient) FetchNotifications(context.Context, string) (*domain.NotificationFeed, error) {
	return &domain.NotificationFeed{}, nil
}

func (s *stubPollClient) MarkNotificationsRead(_ context.Context, ids []string) error {
	s.marked = append(s.marked, ids)
	return nil
}

func testFeed() domain.NotificationFeed {
	return domain.NotificationFeed{
		Notifications: []domain.Notification{
			{
				ID: "n1", Type: domain.NotifNewApplication, Unread: true,
				Data: domain.NotificationData{ApplicantName: "Mary Apio", Course: "Networking"},
				Time: time.Now().Add(-2 * time.Minute),
			},
			{
				ID: "n2", Type: domain.NotifStatusChange, Unread: false,
				Data: domain.NotificationData{ApplicantName: "John Okello", Status: domain.StatusApproved},
				Time: time.Now().Add(-time.Hour),
			},
		},
		UnreadCount: 1,
		Stats:       domain.FeedStats{Total: 12, Pending: 4, Approved: 5, Declined: 3, Today: 2},
	}
}

func TestInboxRendersFeed(t *testing.T) {
	m := newInboxModel(nil)
	m.setFeed(testFeed())

	view := m.View(testStyles())
	for _, want := range []string{
		"New application: Mary Apio (Networking)",
		"John Okello is now approved",
		"(1 unread)",
		"total 12",
		"2m ago",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestInboxEmptyFeed(t *testing.T) {
	m := newInboxModel(nil)
	if !strings.Contains(m.View(testStyles()), "no notifications yet") {
		t.Error("view missing the empty placeholder")
	}
}

func TestInboxMarkSelectedRead(t *testing.T) {
	stub := &stubPollClient{}
	engine := poll.New(stub, settings.Settings{System: settings.System{RefreshInterval: 30}}, zerolog.Nop())
	m := newInboxModel(engine)
	m.setFeed(testFeed())

	// Cursor starts on n1, which is unread.
	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("enter on an unread row produced no command")
	}
	cmd()
	if len(stub.marked) != 1 || len(stub.marked[0]) != 1 || stub.marked[0][0] != "n1" {
		t.Errorf("marked = %v, want one call naming n1", stub.marked)
	}
}

func TestInboxEnterOnReadRowIsNoop(t *testing.T) {
	stub := &stubPollClient{}
	engine := poll.New(stub, settings.Settings{System: settings.System{RefreshInterval: 30}}, zerolog.Nop())
	m := newInboxModel(engine)
	m.setFeed(testFeed())

	m, _ = m.Update(key("j"))
	_, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("enter on an already-read row produced a command")
	}
}

func TestInboxMarkAllRead(t *testing.T) {
	stub := &stubPollClient{}
	engine := poll.New(stub, settings.Settings{System: settings.System{RefreshInterval: 30}}, zerolog.Nop())
	m := newInboxModel(engine)
	m.setFeed(testFeed())

	_, cmd := m.Update(key("M"))
	if cmd == nil {
		t.Fatal("M produced no command")
	}
	cmd()
	if len(stub.marked) != 1 || stub.marked[0] != nil {
		t.Errorf("marked = %v, want one call with nil ids", stub.marked)
	}
}

func TestInboxMarkReadToasts(t *testing.T) {
	engine := poll.New(&stubPollClient{}, settings.Settings{System: settings.System{RefreshInterval: 30}}, zerolog.Nop())
	m := newInboxModel(engine)
	m.setFeed(testFeed())

	_, cmd := m.Update(markedReadMsg{})
	if cmd == nil {
		t.Fatal("successful mark-read produced no command")
	}
	tm, ok := cmd().(toastMsg)
	if !ok || tm.level != toastSuccess || !strings.Contains(tm.text, "marked as read") {
		t.Errorf("toast = %+v, want a success confirmation", tm)
	}

	_, cmd = m.Update(markedReadMsg{err: errors.New("boom")})
	if cmd == nil {
		t.Fatal("failed mark-read produced no command")
	}
	tm, ok = cmd().(toastMsg)
	if !ok || tm.level != toastError || !strings.Contains(tm.text, "Failed to mark") {
		t.Errorf("toast = %+v, want an error toast", tm)
	}
}

func TestInboxCursorClampsOnShrink(t *testing.T) {
	engine := poll.New(&stubPollClient{}, settings.Settings{System: settings.System{RefreshInterval: 30}}, zerolog.Nop())
	m := newInboxModel(engine)
	m.setFeed(testFeed())
	m, _ = m.Update(key("j"))

	shrunk := testFeed()
	shrunk.Notifications = shrunk.Notifications[:1]
	m.setFeed(shrunk)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after shrink, want 0", m.cursor)
	}
}
