package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ArifBabayev05/backlify-client/internal/token"
)

// loginResponse is the shape of a successful authentication reply.
// XAuthUserId mirrors the identity header; older backend versions send
// only the username.
type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	XAuthUserID  string `json:"XAuthUserId"`
	Plan         string `json:"plan"`
}

// Login authenticates against the backend and installs the resulting
// tokens and identity into the session. Any previously cached
// responses belong to whoever was logged in before, so the response
// cache is cleared first.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if c.cache != nil {
		c.cache.Clear()
	}

	resp, err := c.Execute(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/auth/login",
		Body:     map[string]string{"username": username, "password": password},
		SkipAuth: true,
	})
	if err != nil {
		return err
	}

	var parsed loginResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return fmt.Errorf("api: decoding login response: %w", err)
	}
	if parsed.AccessToken == "" {
		return fmt.Errorf("api: login response missing accessToken")
	}

	identity := parsed.XAuthUserID
	if identity == "" {
		identity = parsed.Username
	}
	if identity == "" {
		identity = token.Username(parsed.AccessToken)
	}

	c.session.SetTokens(parsed.AccessToken, parsed.RefreshToken)
	c.session.SetIdentity(identity)
	if parsed.Plan != "" {
		c.session.SetPlan(parsed.Plan)
	}

	c.logger.Info().Str("user", identity).Msg("logged in")
	return nil
}

// Logout tears the session down. The server-side logout is best
// effort: a dead backend must not keep the local session alive, so a
// failed call is logged and swallowed.
func (c *Client) Logout(ctx context.Context) error {
	if c.session.IsActive() {
		if _, err := c.Execute(ctx, Request{
			Method: http.MethodPost,
			Path:   "/auth/logout",
		}); err != nil {
			c.logger.Debug().Err(err).Msg("server-side logout failed")
		}
	}

	c.session.Clear()
	if c.cache != nil {
		c.cache.Clear()
	}

	c.logger.Info().Msg("logged out")
	return nil
}
