package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratcomtech/stratadmin/internal/poll"
	"github.com/stratcomtech/stratadmin/pkg/domain"
)

type markedReadMsg struct {
	err error
}

// inboxModel renders the notification feed the poll engine keeps current.
// It never fetches on its own; data arrives through FeedEvents routed down
// from the App, and mark-read goes back through the engine so the dedup
// bookkeeping stays consistent.
type inboxModel struct {
	engine *poll.Engine

	feed   domain.NotificationFeed
	cursor int
	width  int
	height int
}

func newInboxModel(e *poll.Engine) inboxModel {
	return inboxModel{engine: e}
}

// setEngine swaps the engine after login or logout.
func (m *inboxModel) setEngine(e *poll.Engine) {
	m.engine = e
	if e == nil {
		m.feed = domain.NotificationFeed{}
		m.cursor = 0
	}
}

func (m *inboxModel) setFeed(feed domain.NotificationFeed) {
	m.feed = feed
	if m.cursor >= len(feed.Notifications) {
		m.cursor = len(feed.Notifications) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m inboxModel) markRead(ids []string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		return markedReadMsg{err: e.MarkRead(context.Background(), ids)}
	}
}

func (m inboxModel) Update(msg tea.Msg) (inboxModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case markedReadMsg:
		if msg.err != nil {
			return m, toastCmd(toastError, "Failed to mark notifications as read")
		}
		return m, toastCmd(toastSuccess, "Notifications marked as read")

	case tea.KeyMsg:
		if m.engine == nil {
			return m, nil
		}
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.feed.Notifications)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.cursor < len(m.feed.Notifications) {
				n := m.feed.Notifications[m.cursor]
				if n.Unread {
					return m, m.markRead([]string{n.ID})
				}
			}
		case "M":
			// Empty id list means mark everything read.
			if m.feed.UnreadCount > 0 {
				return m, m.markRead(nil)
			}
		}
	}
	return m, nil
}

func (m inboxModel) View(s styles) string {
	var b strings.Builder

	title := " " + s.title.Render("Notifications")
	if m.feed.UnreadCount > 0 {
		title += " " + s.accent.Render(fmt.Sprintf("(%d unread)", m.feed.UnreadCount))
	}
	b.WriteString(title + "\n\n")

	st := m.feed.Stats
	b.WriteString(" " + s.meta.Render(fmt.Sprintf("total %d · pending %d · approved %d · declined %d · today %d",
		st.Total, st.Pending, st.Approved, st.Declined, st.Today)) + "\n\n")

	if len(m.feed.Notifications) == 0 {
		b.WriteString(" " + s.dim.Render("no notifications yet"))
		return b.String()
	}

	for i, n := range m.feed.Notifications {
		marker := "  "
		lineStyle := s.dim
		if n.Unread {
			lineStyle = s.normal
		}
		if i == m.cursor {
			marker = s.accent.Render("> ")
			lineStyle = s.selected
		}

		dot := "  "
		if n.Unread {
			dot = s.accent.Render("● ")
		}
		b.WriteString(marker + dot + lineStyle.Render(notificationLine(n)) +
			"  " + s.meta.Render(formatTime(n.Time)) + "\n")
	}

	return b.String()
}

func notificationLine(n domain.Notification) string {
	switch n.Type {
	case domain.NotifNewApplication:
		return fmt.Sprintf("New application: %s (%s)", n.Data.ApplicantName, n.Data.Course)
	case domain.NotifStatusChange:
		return fmt.Sprintf("%s is now %s", n.Data.ApplicantName, n.Data.Status)
	default:
		return n.Type
	}
}

func (m inboxModel) helpLine(s styles) string {
	return " " + s.helpEntry("j/k", "move") + "  " + s.helpEntry("enter", "mark read") + "  " +
		s.helpEntry("M", "mark all read")
}
