package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulse-qa/pulse/internal/domain"
)

// RESTClient implements History and Writer against the relay/platform REST
// API.
type RESTClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewRESTClient creates a REST provider for the given server base URL.
// A nil logger disables logging.
func NewRESTClient(serverURL string, log *zap.Logger) *RESTClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &RESTClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// FetchBacklog returns the persisted activity entries for a session, ordered
// ascending by created_at.
func (c *RESTClient) FetchBacklog(ctx context.Context, sessionID string) ([]domain.ActivityLogEntry, error) {
	var entries []domain.ActivityLogEntry
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/activities"
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, fmt.Errorf("fetch backlog: %w", err)
	}
	return entries, nil
}

// CreateSession persists a new live session. The server assigns the ID and
// defaults StartedAt when unset.
func (c *RESTClient) CreateSession(ctx context.Context, s domain.LiveSession) (*domain.LiveSession, error) {
	var created domain.LiveSession
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", s, &created); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &created, nil
}

// UpdateSession applies a partial patch to a session and returns the updated
// record.
func (c *RESTClient) UpdateSession(ctx context.Context, id string, patch SessionPatch) (*domain.LiveSession, error) {
	var updated domain.LiveSession
	path := "/v1/sessions/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, patch, &updated); err != nil {
		return nil, fmt.Errorf("update session %s: %w", id, err)
	}
	return &updated, nil
}

// AppendActivity persists one activity entry; the server assigns the ID and
// broadcast order.
func (c *RESTClient) AppendActivity(ctx context.Context, e domain.ActivityLogEntry) (*domain.ActivityLogEntry, error) {
	var created domain.ActivityLogEntry
	if err := c.do(ctx, http.MethodPost, "/v1/activities", e, &created); err != nil {
		return nil, fmt.Errorf("append activity: %w", err)
	}
	return &created, nil
}

// ListSessions returns sessions filtered by project and status; empty filters
// match everything.
func (c *RESTClient) ListSessions(ctx context.Context, projectID string, status domain.SessionStatus) ([]domain.LiveSession, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	if status != "" {
		q.Set("status", string(status))
	}
	path := "/v1/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var sessions []domain.LiveSession
	if err := c.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// apiError is the relay's JSON error envelope.
type apiError struct {
	Error string `json:"error"`
}

func (c *RESTClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
