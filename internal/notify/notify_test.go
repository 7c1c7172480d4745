package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stratcomtech/stratadmin/pkg/domain"
)

func TestPlaySingleBell(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayer(&buf)
	p.Play(domain.NotifStatusChange)
	if got := buf.String(); got != "\a" {
		t.Errorf("output = %q, want a single bell", got)
	}
}

func TestPlayDoubleBell(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayer(&buf)
	p.Play(domain.NotifNewApplication)
	if got := buf.String(); got != "\a\a" {
		t.Errorf("output = %q, want %q", got, "\a\a")
	}
}

func TestPlayWritesSynchronously(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayer(&buf)
	p.Play(domain.NotifNewApplication)
	p.Play(domain.NotifStatusChange)
	// Both cues must be fully written by the time Play returns; the
	// renderer owns the terminal between calls.
	if got := buf.String(); got != "\a\a\a" {
		t.Errorf("output = %q, want all bells written before return", got)
	}
}

func TestDesktopSanitizes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayer(&buf)
	p.Desktop("New Application\nReceived", "Mary\x07 applied")

	got := buf.String()
	if !strings.HasPrefix(got, "\x1b]9;") || !strings.HasSuffix(got, "\x07") {
		t.Fatalf("output = %q, want an OSC 9 sequence", got)
	}
	payload := strings.TrimSuffix(strings.TrimPrefix(got, "\x1b]9;"), "\x07")
	if strings.ContainsAny(payload, "\x07\x1b\n\r") {
		t.Errorf("payload = %q, want control bytes stripped", payload)
	}
	if !strings.Contains(payload, "Mary applied") {
		t.Errorf("payload = %q, want the sanitized body", payload)
	}
}
