// Package api is the authenticated request pipeline between the client
// and the Backlify backend. Every table and auth call flows through
// Client.Execute, which layers response caching, identity headers,
// proactive token refresh, and a single refresh-and-retry on auth
// failure over a plain http.Client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ArifBabayev05/backlify-client/internal/cache"
	"github.com/ArifBabayev05/backlify-client/internal/session"
	"github.com/ArifBabayev05/backlify-client/internal/token"
	"github.com/ArifBabayev05/backlify-client/internal/tracing"
)

// refreshMargin is how close to expiry the access token may get before
// the pipeline refreshes it ahead of sending a request.
const refreshMargin = 5 * time.Minute

// Identity headers. The backend accepts either; both are sent for
// compatibility across backend versions.
const (
	headerAuthUserID = "XAuthUserId"
	headerUserID     = "x-user-id"
	headerSkipAuth   = "X-Skip-Auth"
	headerRequestID  = "X-Request-Id"
)

// Request describes one call through the pipeline.
type Request struct {
	Method   string // defaults to GET
	Path     string // path relative to the base URL, e.g. "/products/42"
	Query    url.Values
	Body     any  // marshalled to JSON when non-nil
	NoCache  bool // bypass the response cache even for GET
	SkipAuth bool // send the skip-auth marker instead of a bearer token
}

// Response is the outcome of a successful Execute call.
type Response struct {
	StatusCode int
	Body       []byte
	CacheHit   bool
}

// Client is the request pipeline. All methods are safe for concurrent
// use; concurrent auth failures coalesce onto a single refresh.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *session.Manager
	cache    *cache.Cache
	notifier Notifier
	logger   zerolog.Logger
	timeout  time.Duration
	skipAuth bool

	refresh refreshGroup
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Session  *session.Manager
	Cache    *cache.Cache // nil disables response caching
	Notifier Notifier     // nil defaults to NopNotifier
	Timeout  time.Duration
	Logger   zerolog.Logger
	SkipAuth bool // send the skip-auth marker on every request
}

// New creates a Client with pooled connections and a per-request
// timeout.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("api: session manager is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		http:     &http.Client{Transport: transport, Timeout: opts.Timeout},
		session:  opts.Session,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		skipAuth: opts.SkipAuth,
	}, nil
}

// Session returns the session manager this client mutates.
func (c *Client) Session() *session.Manager {
	return c.session
}

// Cache returns the response cache, or nil when caching is disabled.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Execute runs one request through the pipeline:
//
//  1. GETs consult the response cache unless NoCache is set.
//  2. Headers are assembled: content type, bearer token, identity.
//  3. An access token within 5 minutes of expiry is refreshed first.
//  4. The request is sent.
//  5. A 401/403 triggers exactly one refresh and one retry.
//  6. A non-2xx outcome becomes a structured *APIError and is emitted
//     to the notifier.
//  7. Successful GETs are cached; successful mutations invalidate the
//     resource family of the request path.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	if c.skipAuth {
		req.SkipAuth = true
	}

	ctx, span := tracing.StartRequestSpan(ctx, method, req.Path)
	defer span.End()

	query := ""
	if req.Query != nil {
		query = req.Query.Encode()
	}

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("api: marshal body: %w", err)
		}
	}

	cacheable := method == http.MethodGet && !req.NoCache && c.cache != nil
	key := cache.Key(method, req.Path, query, bodyBytes)

	if cacheable {
		if entry, ok := c.cache.Get(key); ok {
			tracing.SetRequestAttributes(ctx, "", true)
			return &Response{
				StatusCode: entry.StatusCode,
				Body:       entry.Payload,
				CacheHit:   true,
			}, nil
		}
	}

	// Refresh proactively so the request does not go out with a token
	// about to die mid-flight.
	if !req.SkipAuth {
		tokens := c.session.Tokens()
		if tokens.Present() && token.ExpiresWithin(tokens.AccessToken, refreshMargin) {
			if err := c.refreshTokens(ctx); err != nil {
				return nil, err
			}
		}
	}

	requestID := uuid.NewString()
	tracing.SetRequestAttributes(ctx, requestID, false)

	resp, body, err := c.send(ctx, method, req, query, bodyBytes, requestID)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	retried := false
	if isAuthStatus(resp.StatusCode) && !req.SkipAuth && c.session.Tokens().RefreshToken != "" {
		// Exactly one refresh and one retry. A second auth failure
		// falls through to normal error handling.
		if err := c.refreshTokens(ctx); err != nil {
			tracing.RecordError(ctx, err)
			return nil, err
		}
		retried = true
		resp, body, err = c.send(ctx, method, req, query, bodyBytes, requestID)
		if err != nil {
			tracing.RecordError(ctx, err)
			return nil, err
		}
	}

	tracing.SetResponseAttributes(ctx, resp.StatusCode, retried)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, body, resp.Header.Get(headerRequestID))
		c.logger.Warn().
			Str("method", method).
			Str("path", req.Path).
			Int("status", apiErr.StatusCode).
			Str("message", apiErr.Message).
			Msg("request failed")
		c.notifier.Notify(Notification{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			Detail:     apiErr.Detail,
			RequestID:  apiErr.RequestID,
		})
		tracing.RecordError(ctx, apiErr)
		return nil, apiErr
	}

	if cacheable {
		c.cache.Put(key, &cache.Entry{
			Payload:    body,
			StatusCode: resp.StatusCode,
			Family:     cache.Family(req.Path),
			Method:     method,
			Path:       req.Path,
		})
	} else if method != http.MethodGet && c.cache != nil {
		c.cache.Invalidate(cache.Family(req.Path))
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// send performs one HTTP round trip and reads the body in full.
func (c *Client) send(ctx context.Context, method string, req Request, query string, bodyBytes []byte, requestID string) (*http.Response, []byte, error) {
	u := c.baseURL + req.Path
	if query != "" {
		u += "?" + query
	}

	var reader io.Reader
	if bodyBytes != nil {
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("api: creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerRequestID, requestID)
	c.setAuthHeaders(httpReq, req.SkipAuth)
	tracing.InjectHeaders(ctx, httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("api: %s %s: %w", method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("api: reading response: %w", err)
	}

	return resp, body, nil
}

// setAuthHeaders attaches the bearer token and both identity headers.
// When the access token carries a username claim, the claim wins over
// the locally stored identity for the lower-case fallback header.
func (c *Client) setAuthHeaders(httpReq *http.Request, skipAuth bool) {
	if skipAuth {
		httpReq.Header.Set(headerSkipAuth, "true")
		return
	}

	identity := c.session.Identity()
	tokens := c.session.Tokens()

	if tokens.AccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	}

	fallback := identity
	if claim := token.Username(tokens.AccessToken); claim != "" {
		fallback = claim
	}

	if identity != "" {
		httpReq.Header.Set(headerAuthUserID, identity)
	}
	if fallback != "" {
		httpReq.Header.Set(headerUserID, fallback)
	}
}
