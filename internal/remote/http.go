package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitsync/internal/fit"
)

// HTTPClient implements fit.RemoteService against a fitsync-server Handler.
type HTTPClient struct {
	baseURL string
	userID  string
	token   string
	client  *http.Client
}

var _ fit.RemoteService = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the server at baseURL. A zero timeout
// means 10s.
func NewHTTPClient(baseURL, userID, token string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid http_url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) userPath(parts ...string) string {
	p := "/api/users/" + url.PathEscape(c.userID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (c *HTTPClient) GetProfile(ctx context.Context) (*fit.Profile, error) {
	var p fit.Profile
	err := c.do(ctx, http.MethodGet, c.userPath("profile"), nil, &p)
	if err != nil {
		if errors.Is(err, fit.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, currentWeight float64) (*fit.Profile, error) {
	var p fit.Profile
	body := map[string]float64{"current_weight": currentWeight}
	if err := c.do(ctx, http.MethodPut, c.userPath("profile"), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetWeightEntries(ctx context.Context) ([]fit.WeightEntry, error) {
	var entries []fit.WeightEntry
	if err := c.do(ctx, http.MethodGet, c.userPath("weights"), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) AddWeightEntry(ctx context.Context, date string, weight float64) (*fit.WeightEntry, error) {
	var e fit.WeightEntry
	body := map[string]float64{"weight": weight}
	if err := c.do(ctx, http.MethodPut, c.userPath("weights", date), body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) GetWorkoutEntries(ctx context.Context) ([]fit.WorkoutEntry, error) {
	var entries []fit.WorkoutEntry
	if err := c.do(ctx, http.MethodGet, c.userPath("workouts"), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) UpsertWorkoutEntry(ctx context.Context, date string, entry fit.WorkoutEntry) (*fit.WorkoutEntry, error) {
	var e fit.WorkoutEntry
	if err := c.do(ctx, http.MethodPut, c.userPath("workouts", date), entry, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) DeleteWorkoutEntry(ctx context.Context, date string) error {
	err := c.do(ctx, http.MethodDelete, c.userPath("workouts", date), nil, nil)
	if errors.Is(err, fit.ErrNotFound) {
		return nil
	}
	return err
}

// CheckConnection asks the server's health endpoint, which also reports
// whether the server can reach its record store.
func (c *HTTPClient) CheckConnection(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil) == nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, fit.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, fit.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %w: status %d: %s", method, path, fit.ErrRemoteFailure, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w: %v", method, path, fit.ErrRemoteFailure, err)
	}
	return nil
}
