package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stratcomtech/stratadmin/internal/auth"
	"github.com/stratcomtech/stratadmin/pkg/client"
)

// loginField identifies which input has focus on the phone step.
type loginField int

const (
	fieldPhone loginField = iota
	fieldEmail
)

// codeRequestedMsg carries the result of the request-code call.
type codeRequestedMsg struct {
	message string
	err     error
}

// codeVerifiedMsg carries the result of the verify-code call.
type codeVerifiedMsg struct {
	token string
	err   error
}

type loginModel struct {
	client  *client.Client
	flow    *auth.Flow
	focus   loginField
	loading bool
	errMsg  string
	width   int
	height  int
}

func newLoginModel(c *client.Client, flow *auth.Flow) loginModel {
	return loginModel{client: c, flow: flow}
}

func (m loginModel) requestCode() tea.Cmd {
	c := m.client
	phone, email := m.flow.Phone(), m.flow.Email()
	return func() tea.Msg {
		msg, err := c.RequestOTP(context.Background(), phone, email)
		return codeRequestedMsg{message: msg, err: err}
	}
}

func (m loginModel) verifyCode() tea.Cmd {
	c := m.client
	phone, code := m.flow.Phone(), m.flow.Code()
	return func() tea.Msg {
		sess, err := c.VerifyOTP(context.Background(), phone, code)
		if err != nil {
			return codeVerifiedMsg{err: err}
		}
		return codeVerifiedMsg{token: sess.SessionToken}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case codeRequestedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorText(msg.err, "Failed to send code")
			return m, nil
		}
		m.errMsg = ""
		m.flow.CodeRequested()
		return m, nil

	case codeVerifiedMsg:
		m.loading = false
		if msg.err != nil {
			if auth.StepOTP == m.flow.Step() {
				if forced := m.flow.VerifyFailed(client.IsServerRejection(msg.err)); forced {
					m.errMsg = "Maximum attempts reached. Request a new code."
					return m, nil
				}
			}
			m.errMsg = errorText(msg.err, "Verification failed")
			return m, nil
		}
		m.errMsg = ""
		m.flow.VerifySucceeded()
		// The App reacts to the flow reaching authenticated.
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch m.flow.Step() {
		case auth.StepPhone:
			return m.updatePhone(msg)
		case auth.StepOTP:
			return m.updateOTP(msg)
		}
	}
	return m, nil
}

func (m loginModel) updatePhone(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "up":
		if m.focus == fieldPhone {
			m.focus = fieldEmail
		} else {
			m.focus = fieldPhone
		}
	case "enter":
		if !m.flow.CanRequestCode() {
			m.errMsg = "Phone number is required"
			return m, nil
		}
		m.loading = true
		m.errMsg = ""
		return m, m.requestCode()
	default:
		if m.focus == fieldPhone {
			m.flow.SetPhone(editDigits(m.flow.Phone(), msg.String(), 16, true))
		} else {
			m.flow.SetEmail(editRune(m.flow.Email(), msg.String()))
		}
	}
	return m, nil
}

func (m loginModel) updateOTP(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Change number: back to phone entry with a clean counter.
		m.flow.ChangeNumber()
		m.errMsg = ""
	case "enter":
		if !m.flow.CodeComplete() {
			m.errMsg = "Enter the 6-digit code"
			return m, nil
		}
		m.loading = true
		m.errMsg = ""
		return m, m.verifyCode()
	default:
		m.flow.SetCode(editDigits(m.flow.Code(), msg.String(), 6, false))
	}
	return m, nil
}

func (m loginModel) View(s styles) string {
	var b strings.Builder

	b.WriteString(s.title.Render("STRATCOM ADMIN") + "\n")
	b.WriteString(s.dim.Render("Secure administrative access") + "\n\n")

	switch m.flow.Step() {
	case auth.StepPhone:
		b.WriteString(m.renderField(s, "Admin phone", m.flow.Phone(), "+256...", m.focus == fieldPhone))
		b.WriteString(m.renderField(s, "Email (optional)", m.flow.Email(), "admin@example.com", m.focus == fieldEmail))
		b.WriteString("\n" + s.help.Render("enter send code · tab switch field · ctrl+c quit"))
	case auth.StepOTP:
		b.WriteString(s.normal.Render("Code sent to ") + s.accent.Render(m.flow.Phone()) + "\n\n")
		code := m.flow.Code()
		var boxes []string
		for i := 0; i < 6; i++ {
			ch := " "
			if i < len(code) {
				ch = string(code[i])
			}
			boxes = append(boxes, s.card.Render(ch))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, boxes...) + "\n")
		if left := m.flow.AttemptsLeft(); left < auth.MaxAttempts {
			b.WriteString(s.warning.Render(pluralAttempts(left)) + "\n")
		}
		b.WriteString("\n" + s.help.Render("enter verify · esc change number · ctrl+c quit"))
	}

	if m.loading {
		b.WriteString("\n\n" + s.dim.Render("working..."))
	}
	if m.errMsg != "" {
		b.WriteString("\n\n" + s.danger.Render(m.errMsg))
	}

	panel := s.card.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
	}
	return panel
}

func (m loginModel) renderField(s styles, label, value, placeholder string, focused bool) string {
	cursor := ""
	if focused {
		cursor = s.accent.Render("█")
	}
	shown := s.normal.Render(value)
	if value == "" {
		shown = s.placeholder.Render(placeholder)
		if focused {
			shown = ""
		}
	}
	marker := "  "
	if focused {
		marker = s.accent.Render("> ")
	}
	return marker + s.dim.Render(label+": ") + shown + cursor + "\n"
}

func pluralAttempts(left int) string {
	if left == 1 {
		return "1 attempt remaining"
	}
	return fmt.Sprintf("%d attempts remaining", left)
}

// errorText prefers the server's message for rejections and falls back to a
// generic line for transport failures, which carry noisy wrapped detail.
func errorText(err error, generic string) string {
	if client.IsServerRejection(err) {
		return err.Error()
	}
	return generic + ": network error, please try again"
}
