package session

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Status describes the stored session for display purposes. When the access
// token happens to be a JWT, Subject and TokenExpiry carry its unverified
// claims; the client never validates signatures, tokens stay opaque.
type Status struct {
	LoggedIn    bool
	Email       string
	Expiry      time.Time
	Subject     string
	TokenExpiry time.Time
}

// Status reports whether a session exists and what is known about it.
func (s *Store) Status() (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := readData(s.storage)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Status] storage read")
	}

	status := &Status{
		LoggedIn: data.AccessToken != "" || data.RefreshToken != "",
		Email:    data.Email,
		Expiry:   data.Expiry,
	}

	if data.AccessToken == "" {
		return status, nil
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(data.AccessToken, jwtlib.MapClaims{})
	if err != nil {
		return status, nil // opaque token, nothing more to report
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return status, nil
	}
	if sub, ok := claims["sub"].(string); ok {
		status.Subject = sub
	}
	if exp, ok := claims["exp"].(float64); ok {
		status.TokenExpiry = time.Unix(int64(exp), 0)
	}
	return status, nil
}
