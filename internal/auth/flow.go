// Package auth implements the OTP login flow for the admin dashboard:
// phone entry, code entry, authenticated. The flow is a pure state machine;
// the UI performs the network exchange and feeds the outcome back in.
package auth

import (
	"strings"
	"unicode"
)

// Step is the current position in the login flow.
type Step int

const (
	StepPhone Step = iota
	StepOTP
	StepAuthenticated
)

func (s Step) String() string {
	switch s {
	case StepPhone:
		return "phone"
	case StepOTP:
		return "otp"
	case StepAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// MaxAttempts is the number of server-rejected codes tolerated before the
// flow forces a fresh code request.
const MaxAttempts = 3

// codeLength is the exact OTP length the backend issues.
const codeLength = 6

// Flow is the OTP authentication state machine.
type Flow struct {
	step     Step
	phone    string
	email    string
	code     string
	attempts int
}

// NewFlow returns a flow at the phone step.
func NewFlow() *Flow {
	return &Flow{step: StepPhone}
}

func (f *Flow) Step() Step    { return f.step }
func (f *Flow) Phone() string { return f.phone }
func (f *Flow) Email() string { return f.email }
func (f *Flow) Code() string  { return f.code }

// Attempts returns how many server-rejected codes have been consumed.
func (f *Flow) Attempts() int { return f.attempts }

// AttemptsLeft returns the number of rejections still tolerated.
func (f *Flow) AttemptsLeft() int { return MaxAttempts - f.attempts }

func (f *Flow) SetPhone(phone string) { f.phone = strings.TrimSpace(phone) }
func (f *Flow) SetEmail(email string) { f.email = strings.TrimSpace(email) }

// SetCode constrains input to digits and at most six of them; anything else
// is silently dropped, mirroring the input mask on the form.
func (f *Flow) SetCode(code string) {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsDigit(r) && b.Len() < codeLength {
			b.WriteRune(r)
		}
	}
	f.code = b.String()
}

// CodeComplete reports whether a full six-digit code has been entered.
func (f *Flow) CodeComplete() bool { return len(f.code) == codeLength }

// CanRequestCode reports whether the flow has what it needs to ask for a
// code. Validation is client-side; nothing is sent without a phone number.
func (f *Flow) CanRequestCode() bool {
	return f.step != StepAuthenticated && f.phone != ""
}

// CodeRequested records a successful code request: move to the OTP step with
// a clean code field and counter.
func (f *Flow) CodeRequested() {
	f.step = StepOTP
	f.code = ""
	f.attempts = 0
}

// VerifySucceeded records a successful code exchange.
func (f *Flow) VerifySucceeded() {
	f.step = StepAuthenticated
	f.code = ""
	f.attempts = 0
}

// VerifyFailed records a failed code exchange. A server rejection consumes
// an attempt; a transport failure does not. When the rejection was the last
// tolerated one the flow resets to the phone step and reports forcedReset,
// requiring a fresh code request.
func (f *Flow) VerifyFailed(serverRejected bool) (forcedReset bool) {
	if !serverRejected {
		return false
	}
	f.attempts++
	if f.attempts >= MaxAttempts {
		f.reset()
		return true
	}
	f.code = ""
	return false
}

// ChangeNumber abandons the current code and returns to the phone step.
func (f *Flow) ChangeNumber() {
	f.reset()
}

// Logout drops authentication and returns to the phone step.
func (f *Flow) Logout() {
	f.reset()
}

// Invalidate is called when a previously restored token fails revalidation
// mid-session; it behaves like a logout without user action.
func (f *Flow) Invalidate() {
	f.reset()
}

// Restored marks the flow authenticated without an OTP exchange, used when a
// stored session passes revalidation.
func (f *Flow) Restored() {
	f.step = StepAuthenticated
	f.code = ""
	f.attempts = 0
}

func (f *Flow) reset() {
	f.step = StepPhone
	f.code = ""
	f.attempts = 0
}
