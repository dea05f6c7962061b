package authn

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authdeck/authdeck/internal/credstore"
	"github.com/authdeck/authdeck/internal/gateway"
	"github.com/authdeck/authdeck/internal/session"
)

// fakeRefresher swaps the holder's token the way the gateway would, and
// signs out on failure
type fakeRefresher struct {
	holder    *session.Holder
	newToken  string
	err       error
	delay     time.Duration
	refreshes int32
}

func (f *fakeRefresher) RefreshToken(ctx context.Context) (*gateway.AuthResponse, error) {
	atomic.AddInt32(&f.refreshes, 1)
	time.Sleep(f.delay)
	if f.err != nil {
		f.holder.Reset()
		return nil, f.err
	}
	user := session.User{ID: "u-1"}
	f.holder.Authenticate(user, f.newToken)
	return &gateway.AuthResponse{User: user, Token: f.newToken}, nil
}

// protectedAPI accepts only the given bearer token and echoes request bodies
type protectedAPI struct {
	valid string
	calls int32

	mu      sync.Mutex
	headers []string
	bodies  []string
}

func (p *protectedAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&p.calls, 1)
	body, _ := io.ReadAll(r.Body)

	p.mu.Lock()
	p.headers = append(p.headers, r.Header.Get("Authorization"))
	p.bodies = append(p.bodies, string(body))
	p.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+p.valid {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid or expired token"}`))
		return
	}
	w.Write([]byte("ok:" + string(body)))
}

func newClient(holder *session.Holder, refresher Refresher) *http.Client {
	return &http.Client{Transport: NewTransport(nil, holder, refresher, zerolog.Nop())}
}

func signedIn(token string) *session.Holder {
	h := session.NewHolder()
	h.Authenticate(session.User{ID: "u-1"}, token)
	return h
}

func TestTransport_NoTokenSendsUnmodified(t *testing.T) {
	api := &protectedAPI{valid: "good"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	holder := session.NewHolder()
	refresher := &fakeRefresher{holder: holder, newToken: "good"}

	resp, err := newClient(holder, refresher).Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), api.calls)
	assert.Equal(t, []string{""}, api.headers)
	assert.Equal(t, int32(0), refresher.refreshes, "unauthenticated requests are never retried")
}

func TestTransport_AttachesToken(t *testing.T) {
	api := &protectedAPI{valid: "good"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	holder := signedIn("good")
	refresher := &fakeRefresher{holder: holder}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/reports", nil)
	require.NoError(t, err)

	resp, err := newClient(holder, refresher).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Bearer good"}, api.headers)
	assert.Empty(t, req.Header.Get("Authorization"), "caller's request is not modified")
	assert.Equal(t, int32(0), refresher.refreshes)
}

func TestTransport_RefreshesAndRetriesOnce(t *testing.T) {
	api := &protectedAPI{valid: "fresh"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	holder := signedIn("expired")
	refresher := &fakeRefresher{holder: holder, newToken: "fresh"}

	// a body without GetBody has to be buffered for the retry
	body := io.NopCloser(strings.NewReader(`{"type":"user-analytics"}`))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/reports", body)
	require.NoError(t, err)

	resp, err := newClient(holder, refresher).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	got, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `ok:{"type":"user-analytics"}`, string(got))

	assert.Equal(t, int32(1), refresher.refreshes)
	assert.Equal(t, int32(2), api.calls)
	assert.Equal(t, []string{"Bearer expired", "Bearer fresh"}, api.headers)
	assert.Equal(t, api.bodies[0], api.bodies[1], "retry resends the original body")
}

func TestTransport_SecondUnauthorizedIsFinal(t *testing.T) {
	api := &protectedAPI{valid: "never"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	holder := signedIn("expired")
	refresher := &fakeRefresher{holder: holder, newToken: "also-rejected"}

	resp, err := newClient(holder, refresher).Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), refresher.refreshes)
	assert.Equal(t, int32(2), api.calls)
	assert.True(t, holder.IsAuthenticated(), "a rejected retry does not end the session")
}

func TestTransport_RefreshFailureReturnsOriginalResponse(t *testing.T) {
	api := &protectedAPI{valid: "fresh"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	holder := signedIn("expired")
	refresher := &fakeRefresher{holder: holder, err: errors.New("refresh rejected")}

	resp, err := newClient(holder, refresher).Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	got, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(got), "Invalid or expired token")

	assert.Equal(t, int32(1), api.calls, "no retry after a failed refresh")
	assert.Equal(t, int32(1), refresher.refreshes)
	assert.False(t, holder.IsAuthenticated())
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	return path
}

func TestTransport_RefreshFailureSignsOutOnce(t *testing.T) {
	var refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case gateway.RefreshPath:
			atomic.AddInt32(&refreshCalls, 1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid or expired refresh token"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid or expired token"}`))
		}
	}))
	defer srv.Close()

	store := credstore.NewMemoryStore()
	creds := session.NewCredentials(store)
	user := session.User{ID: "u-1", Email: "ada@example.com"}
	require.NoError(t, creds.Save("expired", "ref-old", user))
	require.NoError(t, store.Set(credstore.KeySelectedLanguage, "fr"))

	holder := session.NewHolder()
	holder.Authenticate(user, "expired")
	navigator := &recordingNavigator{}
	gw := gateway.New(gateway.Options{
		BaseURL:     srv.URL,
		Credentials: creds,
		Session:     holder,
		Navigator:   navigator,
		Logger:      zerolog.Nop(),
	})

	resp, err := newClient(holder, gw).Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), refreshCalls)
	assert.False(t, holder.IsAuthenticated())
	assert.Equal(t, []string{gateway.LoginRoute}, navigator.paths)

	for _, key := range credstore.SessionKeys {
		_, err := store.Get(key)
		assert.ErrorIs(t, err, credstore.ErrNotFound, key)
	}
	lang, err := store.Get(credstore.KeySelectedLanguage)
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)
}

func TestTransport_NonAuthFailuresPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	holder := signedIn("good")
	refresher := &fakeRefresher{holder: holder}

	resp, err := newClient(holder, refresher).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(0), refresher.refreshes)
}

func TestTransport_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := &protectedAPI{valid: "fresh"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	holder := signedIn("expired")
	refresher := &fakeRefresher{holder: holder, newToken: "fresh", delay: 20 * time.Millisecond}
	client := newClient(holder, refresher)

	// every request must be sent with the expired token before the refresh lands
	var ready sync.WaitGroup
	var wg sync.WaitGroup
	ready.Add(1)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ready.Wait()
			resp, err := client.Get(srv.URL + "/api/analytics/summary")
			if assert.NoError(t, err) {
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				resp.Body.Close()
			}
		}()
	}
	ready.Done()
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&refresher.refreshes), int32(1))
	assert.Equal(t, "fresh", holder.Token())
}
