// Package domain holds the API data types shared by the client, the polling
// engine and the TUI.
package domain

// Application statuses as stored by the backend. An empty status means the
// record was never reviewed and is treated as pending.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

// Application is one registration record.
type Application struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Tel          string `json:"tel"`
	Course       string `json:"course"`
	DateOfBirth  string `json:"date_of_birth"`
	Source       string `json:"How_did_you_know_us"`
	Status       string `json:"status"`
	RegisterDate string `json:"register_date"`
}

// EffectiveStatus normalizes the stored status: records with no status yet
// count as pending.
func (a Application) EffectiveStatus() string {
	if a.Status == "" {
		return StatusPending
	}
	return a.Status
}

// ApplicationPage is the normalized list response. When the backend returns
// a raw array, Next and Previous are empty.
type ApplicationPage struct {
	Results  []Application `json:"results"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
}

// StatusUpdateResult reports the outcome of a status change. The email
// notification is sent by the backend after the write and can fail on its
// own; the status change itself has already succeeded.
type StatusUpdateResult struct {
	EmailNotification string `json:"email_notification"`
	EmailError        string `json:"email_error"`
}

// EmailSent reports whether the applicant notification went out.
func (r StatusUpdateResult) EmailSent() bool { return r.EmailNotification == "sent" }

// EmailFailed reports whether the backend tried and failed to notify.
func (r StatusUpdateResult) EmailFailed() bool { return r.EmailNotification == "failed" }
