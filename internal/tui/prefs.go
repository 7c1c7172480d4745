package tui

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratcomtech/stratadmin/internal/settings"
)

type prefKind int

const (
	prefText prefKind = iota
	prefInt
	prefBool
	prefEnum
)

type prefItem struct {
	section string
	key     string
	label   string
	kind    prefKind
	options []string // enum values, in cycle order
}

// prefItems is the fixed panel layout. Keys are the store's dotted config
// keys; the store owns validation and persistence.
var prefItems = []prefItem{
	{"Profile", "profile.display_name", "Display name", prefText, nil},
	{"Profile", "profile.email", "Email", prefText, nil},
	{"Profile", "profile.phone", "Phone", prefText, nil},
	{"Profile", "profile.timezone", "Timezone", prefText, nil},

	{"Notifications", "notifications.email_notifications", "Email notifications", prefBool, nil},
	{"Notifications", "notifications.sms_notifications", "SMS notifications", prefBool, nil},
	{"Notifications", "notifications.push_notifications", "Push notifications", prefBool, nil},
	{"Notifications", "notifications.application_updates", "Application update toasts", prefBool, nil},
	{"Notifications", "notifications.system_alerts", "System alerts", prefBool, nil},
	{"Notifications", "notifications.weekly_reports", "Weekly reports", prefBool, nil},

	{"Security", "security.two_factor_auth", "Two-factor auth", prefBool, nil},
	{"Security", "security.session_timeout", "Session timeout (min)", prefInt, nil},
	{"Security", "security.login_alerts", "Login alerts", prefBool, nil},
	{"Security", "security.device_tracking", "Device tracking", prefBool, nil},

	{"System", "system.theme", "Theme", prefEnum, []string{"dark", "light", "auto"}},
	{"System", "system.items_per_page", "Items per page", prefInt, nil},
	{"System", "system.date_format", "Date format", prefEnum, []string{"DD/MM/YYYY", "MM/DD/YYYY", "YYYY-MM-DD"}},
	{"System", "system.auto_refresh", "Auto refresh", prefBool, nil},
	{"System", "system.refresh_interval", "Refresh interval (sec)", prefInt, nil},
	{"System", "system.auto_refresh_on_updates", "Refresh table on updates", prefBool, nil},
	{"System", "system.real_time_notifications", "Real-time notifications", prefBool, nil},
}

type prefsModel struct {
	store *settings.Store

	cursor   int
	editing  bool
	buffer   string
	fieldErr string
	width    int
	height   int
}

func newPrefsModel(store *settings.Store) prefsModel {
	return prefsModel{store: store}
}

// value reads the current value for an item out of the settings document.
func prefValue(st settings.Settings, key string) any {
	switch key {
	case "profile.display_name":
		return st.Profile.DisplayName
	case "profile.email":
		return st.Profile.Email
	case "profile.phone":
		return st.Profile.Phone
	case "profile.timezone":
		return st.Profile.Timezone
	case "notifications.email_notifications":
		return st.Notifications.EmailNotifications
	case "notifications.sms_notifications":
		return st.Notifications.SMSNotifications
	case "notifications.push_notifications":
		return st.Notifications.PushNotifications
	case "notifications.application_updates":
		return st.Notifications.ApplicationUpdates
	case "notifications.system_alerts":
		return st.Notifications.SystemAlerts
	case "notifications.weekly_reports":
		return st.Notifications.WeeklyReports
	case "security.two_factor_auth":
		return st.Security.TwoFactorAuth
	case "security.session_timeout":
		return st.Security.SessionTimeout
	case "security.login_alerts":
		return st.Security.LoginAlerts
	case "security.device_tracking":
		return st.Security.DeviceTracking
	case "system.theme":
		return st.System.Theme
	case "system.items_per_page":
		return st.System.ItemsPerPage
	case "system.date_format":
		return st.System.DateFormat
	case "system.auto_refresh":
		return st.System.AutoRefresh
	case "system.refresh_interval":
		return st.System.RefreshInterval
	case "system.auto_refresh_on_updates":
		return st.System.AutoRefreshOnUpdates
	case "system.real_time_notifications":
		return st.System.RealTimeNotifications
	}
	return nil
}

// set applies one field through the store. A FieldError is surfaced inline
// next to the field; anything else becomes a toast.
func (m *prefsModel) set(key string, value any) tea.Cmd {
	err := m.store.Set(key, value)
	if err == nil {
		m.fieldErr = ""
		return toastCmd(toastSuccess, "Settings saved")
	}
	var fieldErr *settings.FieldError
	if errors.As(err, &fieldErr) {
		m.fieldErr = fieldErr.Message
		return nil
	}
	return toastCmd(toastError, "Failed to save settings")
}

func (m prefsModel) Update(msg tea.Msg) (prefsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		item := prefItems[m.cursor]

		if m.editing {
			switch msg.String() {
			case "enter":
				m.editing = false
				if item.kind == prefInt {
					n, err := strconv.Atoi(strings.TrimSpace(m.buffer))
					if err != nil {
						m.fieldErr = "enter a number"
						return m, nil
					}
					return m, m.set(item.key, n)
				}
				return m, m.set(item.key, m.buffer)
			case "esc":
				m.editing = false
				m.fieldErr = ""
			default:
				if item.kind == prefInt {
					m.buffer = editDigits(m.buffer, msg.String(), 4, false)
				} else {
					m.buffer = editRune(m.buffer, msg.String())
				}
			}
			return m, nil
		}

		switch msg.String() {
		case "j", "down":
			if m.cursor < len(prefItems)-1 {
				m.cursor++
				m.fieldErr = ""
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
				m.fieldErr = ""
			}
		case "enter", " ":
			st := m.store.Current()
			switch item.kind {
			case prefBool:
				cur, _ := prefValue(st, item.key).(bool)
				return m, m.set(item.key, !cur)
			case prefEnum:
				cur, _ := prefValue(st, item.key).(string)
				return m, m.set(item.key, nextOption(item.options, cur))
			case prefText:
				m.editing = true
				m.buffer, _ = prefValue(st, item.key).(string)
			case prefInt:
				m.editing = true
				n, _ := prefValue(st, item.key).(int)
				m.buffer = strconv.Itoa(n)
			}
		case "R":
			if err := m.store.Reset(); err != nil {
				return m, toastCmd(toastError, "Failed to reset settings")
			}
			return m, toastCmd(toastSuccess, "Settings restored to defaults")
		}
	}
	return m, nil
}

func nextOption(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return current
}

func (m prefsModel) View(s styles) string {
	var b strings.Builder
	st := m.store.Current()

	section := ""
	for i, item := range prefItems {
		if item.section != section {
			section = item.section
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(" " + s.title.Render(section) + "\n")
		}

		marker := "  "
		labelStyle := s.dim
		if i == m.cursor {
			marker = s.accent.Render("> ")
			labelStyle = s.selected
		}

		val := renderPrefValue(s, item, prefValue(st, item.key))
		if i == m.cursor && m.editing {
			val = s.normal.Render(m.buffer) + s.accent.Render("█")
		}
		b.WriteString(marker + labelStyle.Render(padRight(item.label, 28)) + val + "\n")

		if i == m.cursor && m.fieldErr != "" {
			b.WriteString("   " + s.danger.Render(m.fieldErr) + "\n")
		}
	}

	return b.String()
}

func renderPrefValue(s styles, item prefItem, v any) string {
	switch item.kind {
	case prefBool:
		if on, _ := v.(bool); on {
			return s.success.Render("on")
		}
		return s.meta.Render("off")
	case prefInt:
		n, _ := v.(int)
		return s.normal.Render(strconv.Itoa(n))
	default:
		str, _ := v.(string)
		if str == "" {
			return s.placeholder.Render("not set")
		}
		return s.normal.Render(str)
	}
}

func (m prefsModel) helpLine(s styles) string {
	if m.editing {
		return " " + s.helpEntry("enter", "save") + "  " + s.helpEntry("esc", "cancel")
	}
	return " " + s.helpEntry("j/k", "move") + "  " + s.helpEntry("enter", "toggle/edit") + "  " +
		s.helpEntry("R", "reset defaults")
}
