package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/stratcomtech/stratadmin/internal/auth"
	"github.com/stratcomtech/stratadmin/internal/notify"
	"github.com/stratcomtech/stratadmin/internal/poll"
	"github.com/stratcomtech/stratadmin/internal/session"
	"github.com/stratcomtech/stratadmin/internal/settings"
	"github.com/stratcomtech/stratadmin/pkg/client"
)

type tab int

const (
	tabBoard tab = iota
	tabInbox
	tabPrefs
)

var tabNames = []string{"Applications", "Notifications", "Settings"}

const toastLifetime = 4 * time.Second

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastSuccess
	toastError
)

type toast struct {
	level   toastLevel
	text    string
	expires time.Time
}

type toastMsg struct {
	level toastLevel
	text  string
}

func toastCmd(level toastLevel, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{level: level, text: text} }
}

type toastTickMsg struct{}

type engineEventMsg struct {
	event poll.Event
}

type engineClosedMsg struct{}

type settingsChangedMsg struct {
	settings settings.Settings
}

type loggedOutMsg struct{}

// engineKnobs are the settings fields the poll engine is parameterized by.
// The engine is only restarted when one of them actually changed.
type engineKnobs struct {
	refreshInterval int
	autoRefresh     bool
	realTime        bool
	appUpdates      bool
	pushDesktop     bool
}

func knobsOf(st settings.Settings) engineKnobs {
	return engineKnobs{
		refreshInterval: st.System.RefreshInterval,
		autoRefresh:     st.System.AutoRefresh,
		realTime:        st.System.RealTimeNotifications,
		appUpdates:      st.Notifications.ApplicationUpdates,
		pushDesktop:     st.Notifications.PushNotifications,
	}
}

// App is the root model. It owns the client, the auth flow, the settings and
// session stores, and the poll engine's lifecycle; the tab models underneath
// it are pure views over state the App routes down to them.
type App struct {
	client   *client.Client
	store    *settings.Store
	sessions *session.Store
	flow     *auth.Flow
	engine   *poll.Engine
	player   *notify.Player
	log      zerolog.Logger

	login loginModel
	board boardModel
	inbox inboxModel
	prefs prefsModel

	styles styles
	tab    tab
	toasts []toast
	knobs  engineKnobs

	// settingsCh bridges store subscriber callbacks into the message loop.
	settingsCh chan settings.Settings

	width  int
	height int
}

// NewApp wires the root model. restored is true when a persisted session
// token already passed server verification.
func NewApp(c *client.Client, store *settings.Store, sessions *session.Store, player *notify.Player, log zerolog.Logger, restored bool) *App {
	st := store.Current()
	flow := auth.NewFlow()
	if restored {
		flow.Restored()
	}

	app := &App{
		client:     c,
		store:      store,
		sessions:   sessions,
		flow:       flow,
		player:     player,
		log:        log,
		login:      newLoginModel(c, flow),
		board:      newBoardModel(c, st.System.ItemsPerPage, st.System.DateFormat),
		inbox:      newInboxModel(nil),
		prefs:      newPrefsModel(store),
		styles:     newStyles(paletteFor(st.System.Theme)),
		knobs:      knobsOf(st),
		settingsCh: make(chan settings.Settings, 8),
	}

	store.Subscribe(func(st settings.Settings) {
		select {
		case app.settingsCh <- st:
		default:
		}
	})
	return app
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{waitSettings(a.settingsCh)}
	if a.flow.Step() == auth.StepAuthenticated {
		cmds = append(cmds, a.startEngine(), a.board.Init())
	}
	return tea.Batch(cmds...)
}

// startEngine builds a fresh engine from current settings and begins
// polling. The returned cmd blocks on the event channel.
func (a *App) startEngine() tea.Cmd {
	a.engine = poll.New(a.client, a.store.Current(), a.log)
	a.inbox.setEngine(a.engine)
	a.engine.Start()
	return waitEvent(a.engine.Events())
}

func waitEvent(ch <-chan poll.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return engineClosedMsg{}
		}
		return engineEventMsg{event: ev}
	}
}

func waitSettings(ch <-chan settings.Settings) tea.Cmd {
	return func() tea.Msg {
		return settingsChangedMsg{settings: <-ch}
	}
}

func (a *App) logout() tea.Cmd {
	engine := a.engine
	a.engine = nil
	a.inbox.setEngine(nil)

	c := a.client
	sessions := a.sessions
	a.flow.Logout()
	a.tab = tabBoard

	// The token is cleared only after the pollers are gone, so an in-flight
	// poll finishes with the credentials it started with.
	return func() tea.Msg {
		if engine != nil {
			engine.Dispose()
		}
		token := c.Token()
		c.SetToken("")
		sessions.Clear(context.Background(), c, token)
		return loggedOutMsg{}
	}
}

func (a *App) pushToast(level toastLevel, text string) tea.Cmd {
	a.toasts = append(a.toasts, toast{level: level, text: text, expires: time.Now().Add(toastLifetime)})
	if len(a.toasts) == 1 {
		return toastTick()
	}
	return nil
}

func toastTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return toastTickMsg{} })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.login, _ = a.login.Update(msg)
		a.board, _ = a.board.Update(msg)
		a.inbox, _ = a.inbox.Update(msg)
		a.prefs, _ = a.prefs.Update(msg)
		return a, nil

	case tea.FocusMsg:
		if a.engine != nil {
			a.engine.SetActive(true)
		}
		return a, nil

	case tea.BlurMsg:
		if a.engine != nil {
			a.engine.SetActive(false)
		}
		return a, nil

	case toastMsg:
		return a, a.pushToast(msg.level, msg.text)

	case toastTickMsg:
		now := time.Now()
		kept := a.toasts[:0]
		for _, t := range a.toasts {
			if t.expires.After(now) {
				kept = append(kept, t)
			}
		}
		a.toasts = kept
		if len(a.toasts) > 0 {
			return a, toastTick()
		}
		return a, nil

	case settingsChangedMsg:
		return a, tea.Batch(a.applySettings(msg.settings), waitSettings(a.settingsCh))

	case engineEventMsg:
		cmd := a.handleEvent(msg.event)
		// The engine may have been torn down while this event was queued.
		if a.engine == nil {
			return a, cmd
		}
		return a, tea.Batch(cmd, waitEvent(a.engine.Events()))

	case engineClosedMsg:
		return a, nil

	case loggedOutMsg:
		return a, a.pushToast(toastInfo, "Logged out")

	case codeVerifiedMsg:
		// Routed to the login model below; on success the App also has to
		// adopt the session and bring the engine up.
		if msg.err == nil {
			a.client.SetToken(msg.token)
			if err := a.sessions.Persist(msg.token); err != nil {
				a.log.Warn().Err(err).Msg("persist session token")
			}
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, tea.Batch(cmd, a.startEngine(), a.board.Init())
		}

	case tea.KeyMsg:
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}
	}

	return a, a.route(msg)
}

// capturing reports whether a sub-model currently consumes raw text input,
// which suspends the global key bindings.
func (a *App) capturing() bool {
	if a.flow.Step() != auth.StepAuthenticated {
		return true
	}
	switch a.tab {
	case tabBoard:
		return a.board.searchFocused || a.board.confirmDelete != 0
	case tabPrefs:
		return a.prefs.editing
	}
	return false
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return a.quit(), true
	}
	if a.capturing() {
		return nil, false
	}

	switch msg.String() {
	case "q":
		return a.quit(), true
	case "tab":
		a.switchTab((a.tab + 1) % 3)
		return nil, true
	case "shift+tab":
		a.switchTab((a.tab + 2) % 3)
		return nil, true
	case "1":
		a.switchTab(tabBoard)
		return nil, true
	case "2":
		a.switchTab(tabInbox)
		return nil, true
	case "3":
		a.switchTab(tabPrefs)
		return nil, true
	case "r":
		if a.engine != nil {
			if !a.engine.ForceRefresh() {
				return a.pushToast(toastInfo, "Refresh already in progress"), true
			}
		}
		return a.board.load(), true
	case "L":
		return a.logout(), true
	}
	return nil, false
}

func (a *App) quit() tea.Cmd {
	engine := a.engine
	a.engine = nil
	return func() tea.Msg {
		if engine != nil {
			engine.Dispose()
		}
		return tea.Quit()
	}
}

func (a *App) switchTab(t tab) {
	a.tab = t
	if t == tabBoard && a.engine != nil {
		// Visiting the board clears the new-application badge.
		a.engine.MarkViewed()
	}
}

func (a *App) route(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if a.flow.Step() != auth.StepAuthenticated {
		a.login, cmd = a.login.Update(msg)
		return cmd
	}
	switch a.tab {
	case tabBoard:
		a.board, cmd = a.board.Update(msg)
	case tabInbox:
		a.inbox, cmd = a.inbox.Update(msg)
	case tabPrefs:
		a.prefs, cmd = a.prefs.Update(msg)
	}
	return cmd
}

// applySettings reacts to a persisted settings change: re-theme, re-shape
// the table, and bounce the engine when one of its knobs moved.
func (a *App) applySettings(st settings.Settings) tea.Cmd {
	a.styles = newStyles(paletteFor(st.System.Theme))
	a.board.applySettings(st.System.ItemsPerPage, st.System.DateFormat)

	knobs := knobsOf(st)
	if knobs == a.knobs {
		return nil
	}
	a.knobs = knobs

	engine := a.engine
	if engine == nil {
		return nil
	}
	return func() tea.Msg {
		engine.Restart(st)
		return nil
	}
}

func (a *App) handleEvent(ev poll.Event) tea.Cmd {
	switch ev := ev.(type) {
	case poll.ToastEvent:
		return a.pushToast(pollToastLevel(ev.Level), ev.Message)

	case poll.SoundEvent:
		a.player.Play(ev.Type)
		return nil

	case poll.DesktopEvent:
		a.player.Desktop(ev.Title, ev.Body)
		return nil

	case poll.FeedEvent:
		a.inbox.setFeed(ev.Feed)
		return nil

	case poll.CountEvent:
		st := a.store.Current()
		if ev.NewDetected > 0 && st.System.AutoRefreshOnUpdates && len(ev.Applications) > 0 {
			a.board.state.SetApplications(ev.Applications)
			a.board.clampCursor()
		}
		return nil
	}
	return nil
}

func pollToastLevel(level poll.ToastLevel) toastLevel {
	switch level {
	case poll.ToastSuccess:
		return toastSuccess
	case poll.ToastError:
		return toastError
	default:
		return toastInfo
	}
}

func (a *App) View() string {
	s := a.styles

	if a.flow.Step() != auth.StepAuthenticated {
		return a.overlayToasts(a.login.View(s))
	}

	var b strings.Builder
	b.WriteString(a.tabBar(s) + "\n\n")

	var body, help string
	switch a.tab {
	case tabBoard:
		body = a.board.View(s)
		help = a.board.helpLine(s)
	case tabInbox:
		body = a.inbox.View(s)
		help = a.inbox.helpLine(s)
	case tabPrefs:
		body = a.prefs.View(s)
		help = a.prefs.helpLine(s)
	}

	if a.height > 0 {
		// Reserve the tab bar, spacer and help rows.
		body = truncateToHeight(body, a.height-4)
	}
	b.WriteString(body)
	b.WriteString("\n" + help + "  " + s.helpEntry("tab", "switch") + "  " +
		s.helpEntry("r", "refresh") + "  " + s.helpEntry("L", "logout") + "  " + s.helpEntry("q", "quit"))

	return a.overlayToasts(b.String())
}

func (a *App) tabBar(s styles) string {
	var parts []string
	var snap poll.State
	if a.engine != nil {
		snap = a.engine.Snapshot()
	}

	for i, name := range tabNames {
		label := name
		switch tab(i) {
		case tabBoard:
			if snap.NewApplications > 0 {
				label = fmt.Sprintf("%s (+%d)", name, snap.NewApplications)
			}
		case tabInbox:
			if snap.UnreadCount > 0 {
				label = fmt.Sprintf("%s (%d)", name, snap.UnreadCount)
			}
		}
		if tab(i) == a.tab {
			parts = append(parts, s.selected.Underline(true).Render(label))
		} else {
			parts = append(parts, s.dim.Render(label))
		}
	}
	return " " + s.title.Render("STRATCOM ADMIN") + "   " + strings.Join(parts, "  ")
}

func (a *App) overlayToasts(body string) string {
	if len(a.toasts) == 0 {
		return body
	}
	s := a.styles
	var lines []string
	for _, t := range a.toasts {
		var style = s.normal
		switch t.level {
		case toastSuccess:
			style = s.success
		case toastError:
			style = s.danger
		}
		lines = append(lines, " "+style.Render("▌ "+t.text))
	}
	return body + "\n\n" + strings.Join(lines, "\n")
}
