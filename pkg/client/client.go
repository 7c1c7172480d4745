package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stratcomtech/stratadmin/pkg/domain"
)

// Client is the StratCom admin API client. One instance is shared by the
// session store, the OTP flow and the polling engine; the token is written
// by the auth paths while poller goroutines read it, so access goes through
// a mutex.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a new API client. token may be empty before authentication.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:   baseURL,
		token:     token,
		sessionID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken installs the session token on the client. Called by the OTP flow
// after verification and by the session store after a restore.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token, empty when unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SessionID returns the client-generated correlation id attached to
// notification calls. It is independent of the auth token and exists so the
// backend can track per-client delivery.
func (c *Client) SessionID() string {
	return c.sessionID
}

// --- OTP authentication ---

// RequestOTP asks the backend to send a one-time code to the admin phone.
// Email is optional and only used for delivery receipts.
func (c *Client) RequestOTP(ctx context.Context, phone, email string) (string, error) {
	body := map[string]string{"phone_number": phone}
	if email != "" {
		body["email"] = email
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/otp/admin/request-otp/", body, &resp); err != nil {
		return "", fmt.Errorf("client.RequestOTP: %w", err)
	}
	return resp.Message, nil
}

// VerifyOTP exchanges a phone number and code for a session token.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*domain.Session, error) {
	var resp struct {
		Session domain.Session `json:"session"`
	}
	body := map[string]string{"phone_number": phone, "otp_code": code}
	if err := c.post(ctx, "/otp/admin/verify-otp/", body, &resp); err != nil {
		return nil, fmt.Errorf("client.VerifyOTP: %w", err)
	}
	return &resp.Session, nil
}

// VerifySession asks the backend whether a stored token is still valid.
func (c *Client) VerifySession(ctx context.Context, token string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	body := map[string]string{"session_token": token}
	if err := c.post(ctx, "/otp/admin/verify-session/", body, &resp); err != nil {
		return false, fmt.Errorf("client.VerifySession: %w", err)
	}
	return resp.Valid, nil
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	body := map[string]string{"session_token": token}
	if err := c.post(ctx, "/otp/admin/logout/", body, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// --- Applications ---

// ListApplications fetches the application collection, optionally filtered by
// a search term. The backend returns either a paginated envelope or a raw
// array; both are normalized into an ApplicationPage.
func (c *Client) ListApplications(ctx context.Context, search string) (*domain.ApplicationPage, error) {
	path := "/"
	if search != "" {
		params := url.Values{}
		params.Set("search", search)
		path = "/?" + params.Encode()
	}

	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("client.ListApplications: %w", err)
	}
	page, err := decodeApplicationPage(raw)
	if err != nil {
		return nil, fmt.Errorf("client.ListApplications: %w", err)
	}
	return page, nil
}

// ListApplicationsPage follows a pagination URL returned in a previous
// response's next/previous fields.
func (c *Client) ListApplicationsPage(ctx context.Context, pageURL string) (*domain.ApplicationPage, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("client.ListApplicationsPage: parse url: %w", err)
	}
	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("client.ListApplicationsPage: %w", err)
	}
	page, err := decodeApplicationPage(raw)
	if err != nil {
		return nil, fmt.Errorf("client.ListApplicationsPage: %w", err)
	}
	return page, nil
}

func decodeApplicationPage(raw json.RawMessage) (*domain.ApplicationPage, error) {
	// Raw array shape first: a leading '[' cannot start the envelope.
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var apps []domain.Application
		if err := json.Unmarshal(raw, &apps); err != nil {
			return nil, fmt.Errorf("decode application array: %w", err)
		}
		return &domain.ApplicationPage{Results: apps}, nil
	}
	var page domain.ApplicationPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode application page: %w", err)
	}
	return &page, nil
}

// UpdateApplicationStatus patches an application's status. The result carries
// the email notification outcome, which can fail independently of the status
// change.
func (c *Client) UpdateApplicationStatus(ctx context.Context, id int, status string) (*domain.StatusUpdateResult, error) {
	var result domain.StatusUpdateResult
	path := "/Application_view/" + strconv.Itoa(id)
	if err := c.doRequest(ctx, http.MethodPatch, path, map[string]string{"status": status}, &result); err != nil {
		return nil, fmt.Errorf("client.UpdateApplicationStatus: %w", err)
	}
	return &result, nil
}

// DeleteApplication removes an application record.
func (c *Client) DeleteApplication(ctx context.Context, id int) error {
	path := "/Application_view/" + strconv.Itoa(id)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("client.DeleteApplication: %w", err)
	}
	return nil
}

// --- Notifications ---

// FetchNotifications polls the feed for events after lastCheck, an ISO 8601
// timestamp previously returned as server_time. The correlation session id is
// sent so the backend can track delivery per client.
func (c *Client) FetchNotifications(ctx context.Context, lastCheck string) (*domain.NotificationFeed, error) {
	params := url.Values{}
	params.Set("last_check", lastCheck)

	var feed domain.NotificationFeed
	if err := c.doNotify(ctx, http.MethodGet, "/notifications/?"+params.Encode(), nil, &feed); err != nil {
		return nil, fmt.Errorf("client.FetchNotifications: %w", err)
	}
	return &feed, nil
}

// MarkNotificationsRead marks the given notification ids read. An empty or
// nil slice marks everything read.
func (c *Client) MarkNotificationsRead(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	body := map[string][]string{"notification_ids": ids}
	if err := c.doNotify(ctx, http.MethodPost, "/notifications/mark-read/", body, nil); err != nil {
		return fmt.Errorf("client.MarkNotificationsRead: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

// doNotify is doRequest plus the X-Session-ID correlation header. Only the
// notification endpoints carry it; it tracks delivery, not authentication.
func (c *Client) doNotify(ctx context.Context, method, path string, body any, out any) error {
	return c.do(ctx, method, path, body, out, map[string]string{"X-Session-ID": c.sessionID})
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	return c.do(ctx, method, path, body, out, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, headers map[string]string) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}
