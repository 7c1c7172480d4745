// Package notify produces the audible and out-of-app cues for dashboard
// events: terminal bells standing in for notification sounds and OSC 9
// notifications for terminals that surface them to the desktop.
package notify

import (
	"fmt"
	"io"

	"github.com/stratcomtech/stratadmin/pkg/domain"
)

// Player writes notification cues to a terminal. It is an owned object so
// callers control its lifetime and tests can capture its output.
type Player struct {
	out io.Writer
}

// NewPlayer creates a player writing to out, normally the terminal.
func NewPlayer(out io.Writer) *Player {
	return &Player{out: out}
}

// Play emits the audible cue for a notification type. New applications get a
// double bell, everything else a single one. The write is a single call from
// the caller's goroutine; the renderer owns the terminal, so no delayed
// background write is allowed here.
func (p *Player) Play(notifType string) {
	switch notifType {
	case domain.NotifNewApplication:
		fmt.Fprint(p.out, "\a\a") //nolint:errcheck // best-effort cue
	default:
		fmt.Fprint(p.out, "\a") //nolint:errcheck
	}
}

// Desktop emits an OSC 9 terminal notification. Terminals without OSC 9
// support ignore the sequence.
func (p *Player) Desktop(title, body string) {
	fmt.Fprintf(p.out, "\x1b]9;%s: %s\x07", sanitize(title), sanitize(body)) //nolint:errcheck
}

// sanitize strips bytes that would terminate or corrupt the OSC payload.
func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\x07' || r == '\x1b' || r == '\n' || r == '\r' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
