package gateway

import (
	"context"
	"net/http"

	"github.com/storecount/go-footfall-client/internal/utils"
)

// UpdateUserParams selects which profile fields to change. Nil fields are
// left untouched.
type UpdateUserParams struct {
	Password    *string
	OldPassword *string
	NewEmail    *string
}

// UpdateUser updates the profile of the logged-in user. A successful email
// change invalidates the session server-side, so the local session is
// cleared and the redirect signal fires.
func (c *Client) UpdateUser(ctx context.Context, params UpdateUserParams) (map[string]any, error) {
	email, err := c.identity()
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"email": email}
	if params.Password != nil {
		payload["password"] = utils.Value(params.Password)
	}
	if params.OldPassword != nil {
		payload["old_password"] = utils.Value(params.OldPassword)
	}
	if params.NewEmail != nil {
		payload["new_email"] = utils.Value(params.NewEmail)
	}

	text, err := c.do(ctx, http.MethodPut, "/users", payload, true)
	if err != nil {
		return nil, err
	}

	profile, err := decode[map[string]any](text)
	if err != nil {
		return nil, err
	}

	if params.NewEmail != nil {
		c.log.Info().Str("new_email", utils.Value(params.NewEmail)).Msg("email changed, session invalidated")
		c.sessions.ForceLogout()
	}
	return profile, nil
}

// DeleteUser deletes the account of the logged-in user and clears the
// session.
func (c *Client) DeleteUser(ctx context.Context) (map[string]any, error) {
	email, err := c.identity()
	if err != nil {
		return nil, err
	}

	text, err := c.do(ctx, http.MethodDelete, "/users", map[string]any{
		"email": email,
		"force": true,
	}, true)
	if err != nil {
		return nil, err
	}

	ack, err := decode[map[string]any](text)
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("email", email).Msg("account deleted")
	c.sessions.ForceLogout()
	return ack, nil
}
