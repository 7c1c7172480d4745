// Package poll implements the dashboard's real-time synchronization: a count
// poller watching the application collection and a notification poller
// draining the backend feed. The Engine is an explicitly owned object with
// Start/Stop/Dispose lifecycle; all timers and the dedup set live on it, not
// in package state.
package poll

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stratcomtech/stratadmin/internal/settings"
	"github.com/stratcomtech/stratadmin/pkg/domain"
)

// PollClient is the slice of the API client the engine needs.
type PollClient interface {
	ListApplications(ctx context.Context, search string) (*domain.ApplicationPage, error)
	FetchNotifications(ctx context.Context, lastCheck string) (*domain.NotificationFeed, error)
	MarkNotificationsRead(ctx context.Context, ids []string) error
}

const (
	// notifyInterval is fixed regardless of user settings.
	notifyInterval = 10 * time.Second
	// minCountSpacing floors the count poller cadence.
	minCountSpacing = 5 * time.Second
	// graceDelay separates teardown from re-establishment on restart, so an
	// old timer pair is fully gone before the new one exists.
	graceDelay = 100 * time.Millisecond
	// toastWindow bounds how long a toasted id is remembered.
	toastWindow = 2 * time.Hour
	// pruneSpec runs the toasted-set eviction every five minutes.
	pruneSpec = "0 */5 * * * *"
	// eventBuffer is the capacity of the consumer channel.
	eventBuffer = 64
)

// State is a snapshot of the engine's transient polling state.
type State struct {
	LastCheck        string
	ApplicationCount int
	IsPolling        bool
	NewApplications  int
	UnreadCount      int
	Stats            domain.FeedStats
	Notifications    []domain.Notification
}

// Engine runs both pollers. Each poller is a single goroutine whose tick
// body performs the fetch inline, so a tick can never overlap a still-running
// fetch from the same poller.
type Engine struct {
	client PollClient
	log    zerolog.Logger

	events  chan Event
	active  atomic.Bool
	limiter *rate.Limiter

	mu          sync.Mutex
	running     bool
	disposed    bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	cron        *cron.Cron
	forceCount  chan struct{}
	forceNotify chan struct{}

	// settings-derived knobs
	refreshInterval   time.Duration
	applicationToasts bool
	realTimeNotifs    bool
	desktopNotifs     bool

	// polling state, guarded by mu
	lastCheck     string
	appCount      int
	newApps       int
	unreadCount   int
	stats         domain.FeedStats
	notifications []domain.Notification

	toasted *toastedSet
}

// New creates an engine bound to the given client and parameterized by the
// current settings. It does not start polling.
func New(pc PollClient, st settings.Settings, log zerolog.Logger) *Engine {
	e := &Engine{
		client:    pc,
		log:       log,
		events:    make(chan Event, eventBuffer),
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		toasted:   newToastedSet(),
		lastCheck: time.Now().UTC().Format(time.RFC3339),
	}
	e.active.Store(true)
	e.applySettings(st)
	return e
}

func (e *Engine) applySettings(st settings.Settings) {
	iv := time.Duration(st.System.RefreshInterval) * time.Second
	if iv <= 0 {
		iv = 30 * time.Second
	}
	e.refreshInterval = iv
	e.applicationToasts = st.Notifications.ApplicationUpdates
	e.realTimeNotifs = st.System.RealTimeNotifications
	e.desktopNotifs = st.Notifications.PushNotifications
}

// countInterval derives the count poller cadence: half the refresh interval,
// floored at the minimum spacing.
func (e *Engine) countInterval() time.Duration {
	iv := e.refreshInterval / 2
	if iv < minCountSpacing {
		iv = minCountSpacing
	}
	return iv
}

// Events is the consumer channel. It is closed by Dispose.
func (e *Engine) Events() <-chan Event { return e.events }

// Start launches both pollers and the prune job. Calling Start on a running
// engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.disposed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.forceCount = make(chan struct{}, 1)
	e.forceNotify = make(chan struct{}, 1)
	e.running = true

	e.cron = cron.New(cron.WithSeconds())
	if _, err := e.cron.AddFunc(pruneSpec, e.pruneToasted); err != nil {
		e.log.Error().Err(err).Msg("schedule toasted prune failed")
	} else {
		e.cron.Start()
	}

	e.wg.Add(2)
	go e.countLoop(ctx, e.countInterval(), e.forceCount)
	go e.notifyLoop(ctx, e.forceNotify)

	e.log.Info().
		Dur("count_interval", e.countInterval()).
		Dur("notify_interval", notifyInterval).
		Msg("polling started")
}

// Stop cancels both pollers and waits for them to exit. In-flight requests
// are aborted through the context rather than left to win a race against the
// next session's state.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	c := e.cron
	e.cron = nil
	e.mu.Unlock()

	cancel()
	if c != nil {
		c.Stop()
	}
	e.wg.Wait()
	e.log.Info().Msg("polling stopped")
}

// Dispose stops the engine and closes the event channel. The engine cannot
// be restarted afterwards. Calls that outlive the engine, such as a mark-read
// still in flight at logout, become no-ops rather than sends on the closed
// channel.
func (e *Engine) Dispose() {
	e.Stop()
	e.mu.Lock()
	if !e.disposed {
		e.disposed = true
		close(e.events)
	}
	e.mu.Unlock()
}

// Restart applies new settings and, if the engine was running, tears down and
// re-establishes both pollers after a short grace delay. Exactly one timer
// pair is live afterwards.
func (e *Engine) Restart(st settings.Settings) {
	e.mu.Lock()
	wasRunning := e.running
	e.mu.Unlock()

	if wasRunning {
		e.Stop()
		time.Sleep(graceDelay)
	}

	e.mu.Lock()
	e.applySettings(st)
	e.mu.Unlock()

	if wasRunning {
		e.Start()
	}
}

// SetActive flags whether the dashboard surface is visible. While inactive,
// polling continues but notification side effects are suppressed; flipping
// back to active forces an immediate feed poll.
func (e *Engine) SetActive(active bool) {
	was := e.active.Swap(active)
	if active && !was {
		e.mu.Lock()
		running := e.running
		fn := e.forceNotify
		e.mu.Unlock()
		if running {
			select {
			case fn <- struct{}{}:
			default:
			}
		}
	}
}

// ForceRefresh schedules an immediate poll of both feeds, rate limited so a
// held-down refresh key cannot hammer the backend.
func (e *Engine) ForceRefresh() bool {
	if !e.limiter.Allow() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	select {
	case e.forceCount <- struct{}{}:
	default:
	}
	select {
	case e.forceNotify <- struct{}{}:
	default:
	}
	return true
}

// MarkViewed resets the new-applications counter after the admin has looked
// at the table.
func (e *Engine) MarkViewed() {
	e.mu.Lock()
	e.newApps = 0
	e.mu.Unlock()
}

// Snapshot returns the current polling state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	notifs := make([]domain.Notification, len(e.notifications))
	copy(notifs, e.notifications)
	return State{
		LastCheck:        e.lastCheck,
		ApplicationCount: e.appCount,
		IsPolling:        e.running,
		NewApplications:  e.newApps,
		UnreadCount:      e.unreadCount,
		Stats:            e.stats,
		Notifications:    notifs,
	}
}

// MarkRead marks the given ids read on the backend, then patches local feed
// state: an empty slice marks everything read and clears the dedup set, a
// specific slice decrements unread by the previously-unread ids it named.
func (e *Engine) MarkRead(ctx context.Context, ids []string) error {
	if err := e.client.MarkNotificationsRead(ctx, ids); err != nil {
		return fmt.Errorf("poll.MarkRead: %w", err)
	}

	e.mu.Lock()
	if len(ids) == 0 {
		for i := range e.notifications {
			e.notifications[i].Unread = false
		}
		e.unreadCount = 0
		e.toasted.clear()
	} else {
		named := make(map[string]bool, len(ids))
		for _, id := range ids {
			named[id] = true
		}
		cleared := 0
		for i := range e.notifications {
			if named[e.notifications[i].ID] && e.notifications[i].Unread {
				e.notifications[i].Unread = false
				cleared++
			}
		}
		e.unreadCount -= cleared
		if e.unreadCount < 0 {
			e.unreadCount = 0
		}
		e.toasted.remove(ids)
	}
	feed := e.feedSnapshotLocked()
	e.mu.Unlock()

	e.emit(FeedEvent{Feed: feed})
	return nil
}

func (e *Engine) feedSnapshotLocked() domain.NotificationFeed {
	notifs := make([]domain.Notification, len(e.notifications))
	copy(notifs, e.notifications)
	return domain.NotificationFeed{
		Notifications: notifs,
		UnreadCount:   e.unreadCount,
		Stats:         e.stats,
		ServerTime:    e.lastCheck,
	}
}

// countLoop owns the count poller. The fetch happens inline in the tick
// body, so ticks never overlap an in-flight fetch.
func (e *Engine) countLoop(ctx context.Context, interval time.Duration, force <-chan struct{}) {
	defer e.wg.Done()

	e.pollCount(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollCount(ctx)
		case <-force:
			e.pollCount(ctx)
		}
	}
}

func (e *Engine) pollCount(ctx context.Context) {
	page, err := e.client.ListApplications(ctx, "")
	if err != nil {
		// Polling failures stay silent; the next tick retries.
		e.log.Debug().Err(err).Msg("count poll failed")
		return
	}
	count := len(page.Results)

	e.mu.Lock()
	prev := e.appCount
	e.appCount = count
	delta := 0
	if count > prev && prev > 0 {
		delta = count - prev
		e.newApps += delta
	}
	totalNew := e.newApps
	toasts := e.applicationToasts
	e.mu.Unlock()

	e.emit(CountEvent{Count: count, NewDetected: delta, TotalNew: totalNew, Applications: page.Results})

	if delta > 0 {
		e.log.Info().Int("from", prev).Int("to", count).Msg("application count increased")
		if toasts && e.active.Load() {
			plural := ""
			if delta > 1 {
				plural = "s"
			}
			e.emit(ToastEvent{Level: ToastInfo, Message: fmt.Sprintf("%d new application%s detected", delta, plural)})
		}
	}
}

// notifyLoop owns the notification poller: fixed cadence, last_check cursor
// advanced from server time.
func (e *Engine) notifyLoop(ctx context.Context, force <-chan struct{}) {
	defer e.wg.Done()

	// First load primes state without side effects, matching a fresh
	// dashboard that should not replay old toasts.
	e.pollNotifications(ctx, false)

	ticker := time.NewTicker(notifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollNotifications(ctx, true)
		case <-force:
			e.pollNotifications(ctx, true)
		}
	}
}

func (e *Engine) pollNotifications(ctx context.Context, sideEffects bool) {
	e.mu.Lock()
	lastCheck := e.lastCheck
	e.mu.Unlock()

	feed, err := e.client.FetchNotifications(ctx, lastCheck)
	if err != nil {
		e.log.Debug().Err(err).Msg("notification poll failed")
		return
	}

	e.mu.Lock()
	if feed.ServerTime != "" {
		e.lastCheck = feed.ServerTime
	}
	e.notifications = feed.Notifications
	e.unreadCount = feed.UnreadCount
	e.stats = feed.Stats
	realTime := e.realTimeNotifs
	desktop := e.desktopNotifs
	e.mu.Unlock()

	e.emit(FeedEvent{Feed: *feed})

	// Side effects are suppressed on the priming load and while hidden, but
	// the dedup marking is not: an entry seen under suppression must not
	// surface later either.
	visible := e.active.Load()
	for _, n := range feed.Notifications {
		if !n.Unread {
			continue
		}
		if !e.toasted.markIfNew(n.ID, n.Time) {
			continue
		}
		if !sideEffects || !realTime || !visible {
			continue
		}
		e.surface(n, desktop)
	}
}

// surface fires the per-notification side effects: sound, optional desktop
// notification and an in-app toast.
func (e *Engine) surface(n domain.Notification, desktop bool) {
	e.emit(SoundEvent{Type: n.Type})

	switch n.Type {
	case domain.NotifNewApplication:
		if desktop {
			e.emit(DesktopEvent{
				Title: "New Application Received",
				Body:  fmt.Sprintf("%s applied for %s", n.Data.ApplicantName, n.Data.Course),
			})
		}
		e.emit(ToastEvent{
			Level:   ToastSuccess,
			Message: fmt.Sprintf("New application: %s", n.Data.ApplicantName),
		})
	case domain.NotifStatusChange:
		if desktop {
			e.emit(DesktopEvent{
				Title: fmt.Sprintf("Application %s", n.Data.Status),
				Body:  fmt.Sprintf("%s's application has been %s", n.Data.ApplicantName, n.Data.Status),
			})
		}
		e.emit(ToastEvent{
			Level:   ToastInfo,
			Message: fmt.Sprintf("%s is now %s", n.Data.ApplicantName, n.Data.Status),
		})
	default:
		e.log.Debug().Str("type", n.Type).Msg("unknown notification type")
	}
}

func (e *Engine) pruneToasted() {
	if removed := e.toasted.prune(toastWindow); removed > 0 {
		e.log.Debug().Int("removed", removed).Msg("pruned toasted set")
	}
}

// emit delivers an event without ever blocking a poller. Overflow drops the
// event and logs it, and a disposed engine drops everything.
func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Warn().Msg("event channel full, dropping event")
	}
}
