package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ArifBabayev05/backlify-client/internal/cache"
	"github.com/ArifBabayev05/backlify-client/internal/session"
	"github.com/ArifBabayev05/backlify-client/internal/testutil"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	mem, err := cache.New(nil, time.Minute, 100)
	if err != nil {
		t.Fatalf("creating cache: %v", err)
	}

	client, err := New(Options{
		BaseURL: srv.URL,
		Session: session.New(nil),
		Cache:   mem,
		Logger:  zerolog.Nop(),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return client, srv
}

func activeSession(t *testing.T, c *Client, username string) {
	t.Helper()
	c.session.SetTokens(testutil.MintToken(t, username, time.Hour), "refresh-token")
	c.session.SetIdentity(username)
}

// ---------------------------------------------------------------------------
// Header assembly
// ---------------------------------------------------------------------------

func TestExecute_SetsAuthAndIdentityHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	}))
	client.session.SetTokens(testutil.MintToken(t, "claim-user", time.Hour), "refresh-token")
	client.session.SetIdentity("stored-user")

	if _, err := client.Execute(context.Background(), Request{Path: "/products"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if auth := got.Get("Authorization"); auth == "" || auth[:7] != "Bearer " {
		t.Errorf("Authorization = %q, want bearer token", auth)
	}
	if v := got.Get("XAuthUserId"); v != "stored-user" {
		t.Errorf("XAuthUserId = %q, want %q", v, "stored-user")
	}
	// The token's username claim wins over the stored identity for the
	// lower-case header.
	if v := got.Get("x-user-id"); v != "claim-user" {
		t.Errorf("x-user-id = %q, want %q", v, "claim-user")
	}
	if got.Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header missing")
	}
}

func TestExecute_SkipAuthSendsMarkerOnly(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	activeSession(t, client, "user")

	if _, err := client.Execute(context.Background(), Request{Path: "/health", SkipAuth: true}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got.Get("Authorization") != "" {
		t.Error("Authorization sent despite SkipAuth")
	}
	if got.Get("X-Skip-Auth") != "true" {
		t.Errorf("X-Skip-Auth = %q, want %q", got.Get("X-Skip-Auth"), "true")
	}
}

// ---------------------------------------------------------------------------
// Caching
// ---------------------------------------------------------------------------

func TestExecute_CacheHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"id":1}]`))
	}))
	activeSession(t, client, "user")

	first, err := client.Execute(context.Background(), Request{Path: "/products"})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheHit {
		t.Error("first request reported a cache hit")
	}

	second, err := client.Execute(context.Background(), Request{Path: "/products"})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheHit {
		t.Error("second request not served from cache")
	}
	if string(second.Body) != `[{"id":1}]` {
		t.Errorf("cached body = %q", second.Body)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestExecute_NoCacheBypassesCache(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"id":1}]`))
	}))
	activeSession(t, client, "user")

	for i := 0; i < 2; i++ {
		if _, err := client.Execute(context.Background(), Request{Path: "/products", NoCache: true}); err != nil {
			t.Fatalf("Execute %d: %v", i, err)
		}
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hit %d times, want 2", n)
	}
}

func TestExecute_MutationInvalidatesFamily(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			hits.Add(1)
		}
		w.Write([]byte(`{"id":1}`))
	}))
	activeSession(t, client, "user")

	ctx := context.Background()
	if _, err := client.Execute(ctx, Request{Path: "/products"}); err != nil {
		t.Fatalf("GET: %v", err)
	}
	// Unrelated family stays cached.
	if _, err := client.Execute(ctx, Request{Path: "/orders"}); err != nil {
		t.Fatalf("GET orders: %v", err)
	}

	if _, err := client.Execute(ctx, Request{Method: http.MethodPost, Path: "/products", Body: map[string]string{"name": "x"}}); err != nil {
		t.Fatalf("POST: %v", err)
	}

	resp, err := client.Execute(ctx, Request{Path: "/products"})
	if err != nil {
		t.Fatalf("GET after POST: %v", err)
	}
	if resp.CacheHit {
		t.Error("products still cached after mutation")
	}

	other, err := client.Execute(ctx, Request{Path: "/orders"})
	if err != nil {
		t.Fatalf("GET orders again: %v", err)
	}
	if !other.CacheHit {
		t.Error("orders evicted by a products mutation")
	}
}

// ---------------------------------------------------------------------------
// Refresh and retry
// ---------------------------------------------------------------------------

func TestExecute_RefreshesAndRetriesOnceOn401(t *testing.T) {
	fresh := ""
	var refreshes, attempts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": fresh})
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id":1}]`))
	})

	client, _ := newTestClient(t, mux)
	fresh = testutil.MintToken(t, "user", time.Hour)
	client.session.SetTokens(testutil.MintToken(t, "user", time.Hour)+"stale", "refresh-token")
	client.session.SetIdentity("user")

	resp, err := client.Execute(context.Background(), Request{Path: "/products"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if n := refreshes.Load(); n != 1 {
		t.Errorf("refresh called %d times, want 1", n)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("endpoint hit %d times, want 2", n)
	}
	if got := client.session.Tokens().AccessToken; got != fresh {
		t.Error("session not updated with refreshed access token")
	}
}

func TestExecute_ProactiveRefreshNearExpiry(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": testutil.MintToken(t, "user", time.Hour)})
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	client, _ := newTestClient(t, mux)
	// Well inside the refresh margin.
	client.session.SetTokens(testutil.MintToken(t, "user", time.Minute), "refresh-token")
	client.session.SetIdentity("user")

	if _, err := client.Execute(context.Background(), Request{Path: "/products", NoCache: true}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if n := refreshes.Load(); n != 1 {
		t.Errorf("refresh called %d times, want 1", n)
	}
}

func TestExecute_SecondAuthFailureIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": testutil.MintToken(t, "user", time.Hour)})
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	client, _ := newTestClient(t, mux)
	activeSession(t, client, "user")

	_, err := client.Execute(context.Background(), Request{Path: "/products"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.StatusCode)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("endpoint hit %d times, want exactly 2", n)
	}
}

func TestExecute_FailedRefreshKillsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)
	activeSession(t, client, "user")

	_, err := client.Execute(context.Background(), Request{Path: "/products"})
	if !errors.Is(err, ErrSessionDead) {
		t.Fatalf("error = %v, want ErrSessionDead", err)
	}
	if client.session.IsActive() {
		t.Error("session still active after failed refresh")
	}
}

func TestExecute_RefreshConnectionDropKillsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		// Drop the connection mid-request so the refresh fails at the
		// transport level rather than with an HTTP status.
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("response writer does not support hijacking")
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Fatalf("hijack: %v", err)
		}
		conn.Close()
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)
	activeSession(t, client, "user")

	_, err := client.Execute(context.Background(), Request{Path: "/products"})
	if !errors.Is(err, ErrSessionDead) {
		t.Fatalf("error = %v, want ErrSessionDead", err)
	}
	if client.session.IsActive() {
		t.Error("session still active after refresh connection dropped")
	}
}

func TestRefreshTokens_ConcurrentCallsCoalesce(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		time.Sleep(50 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": testutil.MintToken(t, "user", time.Hour)})
	})

	client, _ := newTestClient(t, mux)
	activeSession(t, client, "user")

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.refreshTokens(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if n := refreshes.Load(); n != 1 {
		t.Errorf("refresh endpoint hit %d times, want 1", n)
	}
}

// ---------------------------------------------------------------------------
// Error handling
// ---------------------------------------------------------------------------

func TestExecute_ErrorEmitsNotification(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"name is required","details":"column name violates not-null"}`))
	}))
	activeSession(t, client, "user")
	notifier := NewChanNotifier(4)
	client.notifier = notifier

	_, err := client.Execute(context.Background(), Request{Method: http.MethodPost, Path: "/products"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != "name is required" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Detail != "column name violates not-null" {
		t.Errorf("Detail = %q", apiErr.Detail)
	}

	select {
	case n := <-notifier.Events():
		if n.StatusCode != http.StatusUnprocessableEntity || n.Message != "name is required" {
			t.Errorf("notification = %+v", n)
		}
	default:
		t.Error("no notification emitted")
	}
}

func TestExecute_ErrorResponseIsNotCached(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such table"}`))
	}))
	activeSession(t, client, "user")

	for i := 0; i < 2; i++ {
		if _, err := client.Execute(context.Background(), Request{Path: "/ghosts"}); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hit %d times, want 2 (errors must not be cached)", n)
	}
}

// ---------------------------------------------------------------------------
// Login and logout
// ---------------------------------------------------------------------------

func TestLogin_InstallsSession(t *testing.T) {
	access := ""
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["username"] != "arif" || creds["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		w.Write(testutil.SampleLoginResponse(access, "refresh-token", "arif"))
	})

	client, _ := newTestClient(t, mux)
	access = testutil.MintToken(t, "arif", time.Hour)

	if err := client.Login(context.Background(), "arif", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !client.session.IsActive() {
		t.Error("session inactive after login")
	}
	if got := client.session.Identity(); got != "arif" {
		t.Errorf("Identity = %q", got)
	}
	if got := client.session.Plan(); got != "pro" {
		t.Errorf("Plan = %q", got)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad credentials"}`))
	}))

	err := client.Login(context.Background(), "arif", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if client.session.IsActive() {
		t.Error("session active after failed login")
	}
}

func TestLogout_ClearsSessionEvenWhenServerFails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	activeSession(t, client, "user")

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if client.session.IsActive() {
		t.Error("session still active after logout")
	}
}
