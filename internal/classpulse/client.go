// Package classpulse provides a client for the ClassPulse REST API.
package classpulse

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

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

// DefaultBaseURL is where the ClassPulse API listens in a local setup.
const DefaultBaseURL = "http://localhost:9001/api"

var (
	// ErrUnexpectedShape means the feedback endpoint answered with valid JSON
	// that is not a list. Pollers treat it as "no new data".
	ErrUnexpectedShape = feedback.ErrNotAList

	ErrNotFound = errors.New("not found")
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithToken authenticates requests with a teacher bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// Client is a ClassPulse API client.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPClient
}

// NewClient creates a new ClassPulse API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetActivityByID retrieves the metadata of an activity.
func (c *Client) GetActivityByID(ctx context.Context, activityID string) (*feedback.Activity, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/activities/"+url.PathEscape(activityID), nil)
	if err != nil {
		return nil, err
	}

	activity, err := feedback.DecodeActivity(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse activity response: %w", err)
	}
	if activity.ID == "" {
		activity.ID = activityID
	}

	return activity, nil
}

// GetFeedbacksByActivity retrieves every reaction recorded for an activity.
// A response that is valid JSON but not a list yields ErrUnexpectedShape.
func (c *Client) GetFeedbacksByActivity(ctx context.Context, activityID string) ([]feedback.Event, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/feedbacks/activity/"+url.PathEscape(activityID), nil)
	if err != nil {
		return nil, err
	}

	events, err := feedback.DecodeEvents(body)
	if err != nil {
		if errors.Is(err, ErrUnexpectedShape) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse feedback response: %w", err)
	}

	return events, nil
}

// Login exchanges teacher credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/teachers/login", credentials{Email: email, Password: password})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized {
			return "", fmt.Errorf("ClassPulse login failed - check your email and password")
		}
		return "", err
	}

	var response loginResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if response.Token == "" {
		return "", fmt.Errorf("ClassPulse API returned no token")
	}

	return response.Token, nil
}

// Me returns the teacher the configured token belongs to.
func (c *Client) Me(ctx context.Context) (*Teacher, error) {
	if c.token == "" {
		return nil, fmt.Errorf("not logged in - please run 'classpulse login' first")
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/teachers/me", nil)
	if err != nil {
		return nil, err
	}

	var teacher Teacher
	if err := json.Unmarshal(body, &teacher); err != nil {
		return nil, fmt.Errorf("failed to parse teacher response: %w", err)
	}

	return &teacher, nil
}

// RegisterTeacher creates a teacher account.
func (c *Client) RegisterTeacher(ctx context.Context, name, email, password string) (*Teacher, error) {
	payload := registration{Name: name, Email: email, Password: password}
	body, err := c.doRequest(ctx, http.MethodPost, "/teachers", payload)
	if err != nil {
		return nil, err
	}

	teacher := Teacher{Name: name, Email: email}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &teacher); err != nil {
			return nil, fmt.Errorf("failed to parse registration response: %w", err)
		}
	}

	return &teacher, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ClassPulse API unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return body, nil
}

// StatusError is returned for any non-2xx answer from the API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	switch e.Code {
	case http.StatusUnauthorized:
		return "ClassPulse API authentication failed - please run 'classpulse login' to sign in again"
	case http.StatusForbidden:
		return "ClassPulse API access denied - this activity belongs to another teacher"
	case http.StatusNotFound:
		return "ClassPulse API resource not found - check the activity id"
	case http.StatusConflict:
		return "ClassPulse API conflict - an account with this email already exists"
	case http.StatusTooManyRequests:
		return "ClassPulse API rate limit exceeded - please try again later"
	case http.StatusServiceUnavailable:
		return "ClassPulse API temporarily unavailable - please try again in a few minutes"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return "ClassPulse API server error - please try again later"
	default:
		return fmt.Sprintf("ClassPulse API error (status %d) - please try again", e.Code)
	}
}

// Is makes a 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}
