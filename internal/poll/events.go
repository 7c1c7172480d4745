package poll

import "github.com/stratcomtech/stratadmin/pkg/domain"

// ToastLevel classifies a toast for rendering.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastError
)

// Event is anything the engine reports to its consumer. Events are delivered
// on a buffered channel; a slow consumer loses events rather than stalling a
// poller.
type Event interface{ isEvent() }

// ToastEvent asks the UI to show a transient message.
type ToastEvent struct {
	Level   ToastLevel
	Message string
}

// SoundEvent asks for an audible cue keyed by notification type.
type SoundEvent struct {
	Type string
}

// DesktopEvent asks for an out-of-app notification.
type DesktopEvent struct {
	Title string
	Body  string
}

// FeedEvent carries a fresh notification feed snapshot.
type FeedEvent struct {
	Feed domain.NotificationFeed
}

// CountEvent reports the result of a count poll. Applications is the
// collection the poll fetched, so a consumer that auto-refreshes its table
// can reuse it without a second request.
type CountEvent struct {
	Count        int
	NewDetected  int
	TotalNew     int
	Applications []domain.Application
}

func (ToastEvent) isEvent()   {}
func (SoundEvent) isEvent()   {}
func (DesktopEvent) isEvent() {}
func (FeedEvent) isEvent()    {}
func (CountEvent) isEvent()   {}
