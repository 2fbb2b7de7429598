package gateway

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// Credentials is the token pair minted by pincode verification.
// AccessExpiresIn is a lifetime in seconds; older backends omit it.
type Credentials struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	AccessExpiresIn int64  `json:"access_expires_in"`
}

// RequestPincode submits credentials; on success the backend sends a
// one-time code out of band. No token is attached.
func (c *Client) RequestPincode(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return Errorf(KindError, "email and password are required")
	}
	_, err := c.do(ctx, http.MethodPost, "/user_login", map[string]string{
		"email":    email,
		"password": password,
	}, false)
	return err
}

// VerifyPincode exchanges the one-time code for a token pair and establishes
// the session.
func (c *Client) VerifyPincode(ctx context.Context, email, pincode string) (*Credentials, error) {
	if email == "" || pincode == "" {
		return nil, Errorf(KindError, "email and pincode are required")
	}

	text, err := c.do(ctx, http.MethodPost, "/verify_pincode", map[string]string{
		"email":   email,
		"pincode": pincode,
	}, false)
	if err != nil {
		return nil, err
	}

	creds, err := decode[Credentials](text)
	if err != nil {
		return nil, err
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return nil, Errorf(KindError, "incomplete token pair in response")
	}

	if err := c.sessions.Establish(email, creds.AccessToken, creds.RefreshToken, creds.AccessExpiresIn); err != nil {
		return nil, errors.Wrap(err, "[Client.VerifyPincode] establish session")
	}
	return &creds, nil
}
