package domain

// Session is the authenticated admin session returned by OTP verification.
// The token is opaque to the client.
type Session struct {
	SessionToken string `json:"session_token"`
}
