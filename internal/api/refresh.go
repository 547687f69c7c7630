package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// refreshGroup coalesces concurrent refresh attempts onto a single
// in-flight call. The first caller performs the refresh; everyone else
// blocks until it settles and shares its result. Without this, N
// requests failing with 401 at once would fire N refresh calls.
type refreshGroup struct {
	mu       sync.Mutex
	inflight chan struct{}
	err      error
}

// refreshTokens refreshes the access token, serialising concurrent
// callers through the refresh group. On success only the access token
// is replaced; the refresh token is long-lived and not rotated by this
// flow. On failure the whole session is cleared and ErrSessionDead is
// returned: a dead refresh token is fatal and never retried.
func (c *Client) refreshTokens(ctx context.Context) error {
	c.refresh.mu.Lock()
	if ch := c.refresh.inflight; ch != nil {
		c.refresh.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.refresh.mu.Lock()
		err := c.refresh.err
		c.refresh.mu.Unlock()
		return err
	}
	ch := make(chan struct{})
	c.refresh.inflight = ch
	c.refresh.mu.Unlock()

	err := c.doRefresh(ctx)

	c.refresh.mu.Lock()
	c.refresh.err = err
	c.refresh.inflight = nil
	close(ch)
	c.refresh.mu.Unlock()

	return err
}

// doRefresh performs the actual refresh round trip. It bypasses
// Execute: the refresh endpoint is never cached, never authenticated
// with the access token, and must not recurse into the retry path.
func (c *Client) doRefresh(ctx context.Context) error {
	tokens := c.session.Tokens()
	if tokens.RefreshToken == "" {
		c.session.Clear()
		return ErrSessionDead
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": tokens.RefreshToken})
	if err != nil {
		return fmt.Errorf("api: marshal refresh body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("api: creating refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Any failure from here on kills the session, transport errors
	// included. A half-refreshed session is worse than a logged-out
	// one, so the caller is always forced back to authentication.
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.session.Clear()
		return fmt.Errorf("%w: refresh: %v", ErrSessionDead, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.session.Clear()
		return fmt.Errorf("%w: reading refresh response: %v", ErrSessionDead, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The refresh token is dead. Tear the session down so the
		// caller is forced back to authentication.
		c.logger.Warn().Int("status", resp.StatusCode).Msg("refresh token rejected, clearing session")
		c.session.Clear()
		return fmt.Errorf("%w: refresh returned %d", ErrSessionDead, resp.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.AccessToken == "" {
		c.session.Clear()
		return fmt.Errorf("%w: refresh response missing accessToken", ErrSessionDead)
	}

	c.session.SetAccessToken(parsed.AccessToken)
	c.logger.Debug().Msg("access token refreshed")
	return nil
}
