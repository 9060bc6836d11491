// Package d2api is a client for the tracker REST API, used by the dashboard.
package d2api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client talks to the tracker API rooted at baseURL (e.g. http://localhost:8080/d2)
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchUser looks a tracked user up by Bungie Name
func (c *Client) FetchUser(ctx context.Context, name string) (*User, error) {
	body, err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(name), nil, fetchErrors)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeObject(body, &user, "bng_username"); err != nil {
		return nil, fmt.Errorf("Failed to parse API response: %w", err)
	}
	return &user, nil
}

type addUserRequest struct {
	BungieUsername string `json:"bng_username"`
	Platform       int    `json:"platform"`
}

// AddUser asks the API to register a Bungie Name on a platform
func (c *Client) AddUser(ctx context.Context, name string, platform int) error {
	req := addUserRequest{BungieUsername: name, Platform: platform}
	_, err := c.do(ctx, http.MethodPost, "/user", req, addErrors)
	return err
}

// FetchCharacters lists a player's characters with their loadouts
func (c *Client) FetchCharacters(ctx context.Context, playerID int64) ([]Character, error) {
	body, err := c.do(ctx, http.MethodGet, "/characters/"+strconv.FormatInt(playerID, 10), nil, fetchErrors)
	if err != nil {
		return nil, err
	}

	var characters []Character
	if err := decodeObject(body, &characters, ""); err != nil {
		return nil, fmt.Errorf("Failed to parse API response: %w", err)
	}
	return characters, nil
}

// FetchStats loads weapon stats for the given filters
func (c *Client) FetchStats(ctx context.Context, f StatsFilter) (*Stats, error) {
	q := url.Values{}
	q.Set("character_id", f.CharacterID)
	if f.Mode != "" {
		q.Set("mode", f.Mode)
	} else if f.ActivityName != "" {
		q.Set("activity_name", f.ActivityName)
	}
	if f.Count > 0 {
		q.Set("count", strconv.Itoa(f.Count))
	}
	if f.Refresh {
		q.Set("refresh", "true")
	}

	body, err := c.do(ctx, http.MethodGet, "/stats?"+q.Encode(), nil, fetchErrors)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := decodeObject(body, &stats, ""); err != nil {
		return nil, fmt.Errorf("Failed to parse API response: %w", err)
	}
	return &stats, nil
}

// Modes lists the activity modes the stats endpoint accepts
func (c *Client) Modes(ctx context.Context) ([]Mode, error) {
	body, err := c.do(ctx, http.MethodGet, "/modes", nil, fetchErrors)
	if err != nil {
		return nil, err
	}

	var modes []Mode
	if err := decodeObject(body, &modes, ""); err != nil {
		return nil, fmt.Errorf("Failed to parse API response: %w", err)
	}
	return modes, nil
}

// do sends the request and returns the unwrapped payload of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, in any, style errorStyle) (json.RawMessage, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("d2 api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromBody(resp.StatusCode, raw, style)
	}
	return unwrap(raw)
}

// errorStyle controls how a failed response becomes an *Error
type errorStyle struct {
	// fallback is formatted with the status when the body has no message
	fallback string
	// statusSuffix appends " (Status: N)" to server messages
	statusSuffix bool
}

var (
	fetchErrors = errorStyle{fallback: "HTTP error! Status: %d", statusSuffix: true}
	addErrors   = errorStyle{fallback: "Failed to add user. Status: %d"}
)

// errorFromBody builds an *Error from a failed response. A JSON value without
// a message (an array, a string, an object lacking one) gets the fallback; a
// body that is not JSON, or is null, uses the HTTP status text when there is
// one.
func errorFromBody(status int, raw []byte, style errorStyle) *Error {
	defaultMsg := fmt.Sprintf(style.fallback, status)

	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) || bytes.Equal(trimmed, []byte("null")) {
		return newError(status, "", defaultMsg)
	}

	var body struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return &Error{Status: status, Message: defaultMsg}
		}
	}

	msg := body.Message
	if msg == "" && body.Error != nil {
		msg = body.Error.Message
	}
	switch {
	case msg == "":
		return &Error{Status: status, Message: defaultMsg}
	case style.statusSuffix:
		return newError(status, msg, defaultMsg)
	default:
		return &Error{Status: status, Message: msg}
	}
}

// unwrap accepts the {success, data} envelope, a legacy [data, status]
// tuple, or a bare payload.
func unwrap(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var env struct {
			Success *bool           `json:"success"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Success != nil {
			return env.Data, nil
		}
	case '[':
		var tuple []json.RawMessage
		if err := json.Unmarshal(trimmed, &tuple); err == nil && len(tuple) == 2 {
			var status int
			if json.Unmarshal(tuple[1], &status) == nil && status >= 100 {
				if status >= 400 {
					return nil, errorFromBody(status, tuple[0], fetchErrors)
				}
				return tuple[0], nil
			}
		}
	}
	return json.RawMessage(trimmed), nil
}

// decodeObject decodes payload into out. When required is set the payload
// must be a JSON object carrying that key.
func decodeObject(payload json.RawMessage, out any, required string) error {
	if required != "" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return ErrUnexpectedFormat
		}
		if _, ok := fields[required]; !ok {
			return ErrUnexpectedFormat
		}
	}
	if len(payload) == 0 {
		return ErrUnexpectedFormat
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return err
	}
	return nil
}
