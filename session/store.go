package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	apperrors "github.com/storecount/go-footfall-client/internal/errors"
)

// RefreshResponse is the backend's answer to a successful token refresh.
// AccessExpiresIn is a lifetime in seconds.
type RefreshResponse struct {
	AccessToken     string `json:"access_token"`
	AccessExpiresIn int64  `json:"access_expires_in"`
}

// Store owns the persisted session and hands out currently valid access
// tokens, refreshing silently or forcing a logout as needed.
type Store struct {
	storage    Storage
	baseURL    string
	httpClient *http.Client
	onRedirect func()
	nowTime    func() time.Time
	log        zerolog.Logger

	mu         sync.Mutex
	redirected bool
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithHTTPClient sets the HTTP client used for the refresh call.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *Store) {
		s.httpClient = client
	}
}

// WithRedirect sets the redirect-to-login signal. It is invoked at most once
// per forced-logout episode, after the session has been cleared; callers must
// treat the current operation as terminal once it fires. Establishing a new
// session re-arms the signal.
func WithRedirect(redirect func()) StoreOption {
	return func(s *Store) {
		s.onRedirect = redirect
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore initializes a Store over the given persistent storage. baseURL is
// the API root used for the silent refresh call.
func NewStore(storage Storage, baseURL string, options ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, errors.New("[NewStore] storage is required")
	}
	if baseURL == "" {
		return nil, errors.New("[NewStore] baseURL is required")
	}

	store := &Store{
		storage:    storage,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		onRedirect: func() {},
		nowTime:    time.Now,
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(store)
	}

	return store, nil
}

// Token returns a currently valid access token.
//
// If the stored token has not expired it is returned without network access.
// Otherwise the refresh token is exchanged for a new access token. Any
// failure on that path clears the session, fires the redirect signal and
// returns ErrLoginRequired. The backend gives no way to tell a transient
// refresh failure from a revoked refresh token, so both force a logout.
//
// Calls are serialized, so concurrent callers holding an expired token
// produce a single refresh request.
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := readData(s.storage)
	if err != nil {
		return "", errors.Wrap(err, "[Store.Token] storage read")
	}

	if data.Valid(s.nowTime()) {
		return data.AccessToken, nil
	}

	if data.RefreshToken == "" {
		s.forceLogoutLocked()
		return "", apperrors.ErrLoginRequired
	}

	refreshed, err := s.refresh(ctx, data.RefreshToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("token refresh failed, logging out")
		s.forceLogoutLocked()
		return "", errors.Wrapf(apperrors.ErrLoginRequired, "refresh failed: %s", err)
	}

	// A half-written session (new token with a stale expiry, or the reverse)
	// must not survive, so a persist failure clears everything.
	expiry := s.nowTime().Add(time.Duration(refreshed.AccessExpiresIn) * time.Second)
	if err := s.storage.Set(KeyAccessToken, refreshed.AccessToken); err != nil {
		s.forceLogoutLocked()
		return "", errors.Wrap(err, "[Store.Token] persist access token")
	}
	if err := s.storage.Set(KeyExpiry, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
		s.forceLogoutLocked()
		return "", errors.Wrap(err, "[Store.Token] persist expiry")
	}

	s.log.Debug().Time("expiry", expiry).Msg("access token refreshed")
	return refreshed.AccessToken, nil
}

func (s *Store) refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, errors.Wrap(err, "[Store.refresh] marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/token/refresh", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[Store.refresh] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.refresh] request")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.refresh] read body")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errors.Errorf("[Store.refresh] HTTP %d - %s", res.StatusCode, body)
	}

	var refreshed RefreshResponse
	if err := json.Unmarshal(body, &refreshed); err != nil {
		return nil, errors.Wrap(err, "[Store.refresh] decode body")
	}
	if refreshed.AccessToken == "" {
		return nil, errors.Wrap(apperrors.ErrMalformedBody, "[Store.refresh] empty access token")
	}
	return &refreshed, nil
}

// Establish creates a new session after pincode verification. expiresIn is
// the access token lifetime in seconds; when the backend omits it, the expiry
// stays unknown and the first authorized call refreshes immediately.
func (s *Store) Establish(email, accessToken, refreshToken string, expiresIn int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := "0"
	if expiresIn > 0 {
		expiry = strconv.FormatInt(s.nowTime().Add(time.Duration(expiresIn)*time.Second).UnixMilli(), 10)
	}

	for key, value := range map[string]string{
		KeyEmail:        email,
		KeyAccessToken:  accessToken,
		KeyRefreshToken: refreshToken,
		KeyExpiry:       expiry,
	} {
		if err := s.storage.Set(key, value); err != nil {
			return errors.Wrapf(err, "[Store.Establish] persist %s", key)
		}
	}
	s.redirected = false
	s.log.Info().Str("email", email).Msg("session established")
	return nil
}

// Email returns the identity stored with the session.
func (s *Store) Email() (string, error) {
	email, err := s.storage.Get(KeyEmail)
	if err != nil {
		return "", errors.Wrap(err, "[Store.Email] storage read")
	}
	return email, nil
}

// Logout clears the session without firing the redirect signal, for callers
// already on the login path.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.storage.Clear(), "[Store.Logout] clear")
}

// ForceLogout clears the session and fires the redirect signal. Used on
// account deletion, email change and server-signaled revocation.
func (s *Store) ForceLogout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceLogoutLocked()
}

func (s *Store) forceLogoutLocked() {
	if err := s.storage.Clear(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear session storage")
	}
	if !s.redirected {
		s.redirected = true
		s.onRedirect()
	}
}

// TokenSource adapts the Store to the standard oauth2 token source
// interface, bound to the given context.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: s}
}

type tokenSource struct {
	ctx   context.Context
	store *Store
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := ts.store.Token(ts.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
}
