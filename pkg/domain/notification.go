package domain

import "time"

// Notification types delivered by the backend feed.
const (
	NotifNewApplication = "new_application"
	NotifStatusChange   = "status_change"
)

// Notification is a single feed event. Unread state is owned by the backend
// and only changes through an explicit mark-read call.
type Notification struct {
	ID     string           `json:"id"`
	Type   string           `json:"type"`
	Unread bool             `json:"unread"`
	Data   NotificationData `json:"data"`
	Time   time.Time        `json:"time"`
}

// NotificationData is the per-event payload.
type NotificationData struct {
	ApplicantName string `json:"applicant_name"`
	Course        string `json:"course,omitempty"`
	Status        string `json:"status,omitempty"`
}

// FeedStats are the headline counts the backend returns with every feed poll.
type FeedStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Declined int `json:"declined"`
	Today    int `json:"today"`
}

// NotificationFeed is the response of the notification poll endpoint.
// ServerTime is the backend clock at response time and becomes the next
// last_check cursor, so polling never depends on the client clock.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	Stats         FeedStats      `json:"stats"`
	ServerTime    string         `json:"server_time"`
}
