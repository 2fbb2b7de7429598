package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Revocation is signaled by HTTP 401 with this exact phrase in the body.
// The match is case-sensitive; any other 401 is an ordinary error.
const revokedBodyText = "Token revoked"

// Sessions is what the gateway needs from the session store: tokens for
// outbound calls, the stored identity, session creation after pincode
// verification, and the forced-logout hook for server-signaled revocation.
type Sessions interface {
	TokenSource(ctx context.Context) oauth2.TokenSource
	Establish(email, accessToken, refreshToken string, expiresIn int64) error
	Email() (string, error)
	ForceLogout()
}

// Client issues the dashboard's backend requests. Every call attaches the
// current access token (except login/verify), reads the whole response body
// as text, and classifies failures per the error taxonomy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   Sessions
	nowTime    func() time.Time
	log        zerolog.Logger
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a gateway client for the backend at baseURL.
func New(baseURL string, sessions Sessions, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[gateway.New] baseURL is required")
	}
	if sessions == nil {
		return nil, errors.New("[gateway.New] sessions is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		sessions:   sessions,
		nowTime:    time.Now,
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// do issues one backend call and returns the raw body text of a successful
// response. Failures come back as a classified *Error, except a failed token
// acquisition, which propagates as-is (the session store has already fired
// the redirect signal).
func (c *Client) do(ctx context.Context, method, path string, payload any, authed bool) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, Errorf(KindError, "failed to encode request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, Errorf(KindError, "failed to build request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	logger := c.log.With().Str("request_id", requestID).Str("path", path).Logger()

	if authed {
		token, err := c.sessions.TokenSource(ctx).Token()
		if err != nil {
			logger.Warn().Err(err).Msg("no valid token for request")
			return nil, err
		}
		token.SetAuthHeader(req)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("request failed")
		return nil, Errorf(KindError, "request failed: %s", err)
	}
	defer res.Body.Close()

	text, err := io.ReadAll(res.Body)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read response body")
		return nil, Errorf(KindError, "failed to read response: %s", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if res.StatusCode == http.StatusUnauthorized && strings.Contains(string(text), revokedBodyText) {
			logger.Warn().Msg("session revoked by server")
			c.sessions.ForceLogout()
		}
		logger.Error().Int("status", res.StatusCode).Msg("request rejected")
		return nil, Errorf(KindError, "HTTP %d - %s", res.StatusCode, text)
	}

	return text, nil
}

func decode[T any](text []byte) (T, error) {
	var value T
	if err := json.Unmarshal(text, &value); err != nil {
		return value, Errorf(KindError, "failed to parse response: %s", err)
	}
	return value, nil
}

// identity returns the stored user email, failing fast when the session
// holds none.
func (c *Client) identity() (string, error) {
	email, err := c.sessions.Email()
	if err != nil || email == "" {
		return "", Errorf(KindError, "Missing authentication. Please login again.")
	}
	return email, nil
}
