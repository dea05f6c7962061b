// Package gateway performs login, registration, token refresh and logout
// against the auth API and is the only writer of session state.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/authdeck/authdeck/internal/session"
)

// LoginRoute is where logout sends the user
const LoginRoute = "/login"

// Navigator receives the post-logout redirect
type Navigator interface {
	Navigate(path string) string
}

// Options are the gateway's collaborators
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Credentials *session.Credentials
	Session     *session.Holder
	Navigator   Navigator // optional
	Logger      zerolog.Logger
}

// Gateway runs auth operations one at a time. Concurrent callers queue on
// opMu instead of racing on the shared session.
type Gateway struct {
	opMu sync.Mutex

	baseURL    string
	httpClient *http.Client
	creds      *session.Credentials
	session    *session.Holder
	navigator  Navigator
	logger     zerolog.Logger
}

// New creates a gateway. HTTPClient defaults to a client with a 30s timeout.
// It must not route through the request authenticator.
func New(opts Options) *Gateway {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Gateway{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		creds:      opts.Credentials,
		session:    opts.Session,
		navigator:  opts.Navigator,
		logger:     opts.Logger,
	}
}

// Login authenticates with email and password
func (g *Gateway) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	return g.authenticate(ctx, "login", LoginPath, LoginRequest{
		Email:    email,
		Password: password,
	})
}

// Register creates an account and signs it in
func (g *Gateway) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	return g.authenticate(ctx, "register", RegisterPath, req)
}

// authenticate is the shared login/register flow. On failure the error is
// published and any existing session is left untouched.
func (g *Gateway) authenticate(ctx context.Context, op, path string, body any) (*AuthResponse, error) {
	g.session.BeginAttempt()

	resp, err := g.post(ctx, path, body)
	if err != nil {
		g.logger.Warn().Err(err).Str("op", op).Msg("Authentication request failed")
		g.session.Fail(Message(err))
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}

	prior, err := g.creds.Slots()
	if err != nil {
		g.logger.Error().Err(err).Str("op", op).Msg("Failed to read stored credentials")
		g.session.Fail(fallbackMessage)
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}

	if err := g.creds.Save(resp.Token, resp.RefreshToken, resp.User); err != nil {
		g.logger.Error().Err(err).Str("op", op).Msg("Failed to persist credentials")
		// put back whatever session was stored before the attempt
		if restoreErr := g.creds.Restore(prior); restoreErr != nil {
			// storage no longer matches the session in memory
			g.logger.Warn().Err(restoreErr).Msg("Failed to restore previous credentials, signing out")
			g.logout()
		}
		g.session.Fail(fallbackMessage)
		return nil, fmt.Errorf("%s failed: failed to save credentials: %w", op, err)
	}

	g.session.Authenticate(resp.User, resp.Token)
	g.logger.Info().Str("op", op).Str("user_id", resp.User.ID).Msg("Authenticated")
	return resp, nil
}

// RefreshToken exchanges the stored refresh token for a new session. Any
// failure ends the session.
func (g *Gateway) RefreshToken(ctx context.Context) (*AuthResponse, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	refreshToken, err := g.creds.RefreshToken()
	if err != nil {
		g.logout()
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if refreshToken == "" {
		g.logout()
		return nil, ErrRefreshTokenMissing
	}

	g.session.BeginAttempt()

	resp, err := g.post(ctx, RefreshPath, RefreshRequest{RefreshToken: refreshToken})
	if err == nil {
		err = g.creds.Save(resp.Token, resp.RefreshToken, resp.User)
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("Token refresh failed, signing out")
		g.logout()
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	g.session.Authenticate(resp.User, resp.Token)
	g.logger.Debug().Str("user_id", resp.User.ID).Msg("Token refreshed")
	return resp, nil
}

// SyncUser stores a profile the API returned after an update, so the
// session and the persisted user stay in step.
func (g *Gateway) SyncUser(user session.User) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !g.session.IsAuthenticated() {
		return ErrNotSignedIn
	}
	if err := g.creds.SaveUser(user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	g.session.SetUser(user)
	return nil
}

// Logout clears the stored session, resets state and navigates to the
// login route. State is reset even if the store could not be cleared.
func (g *Gateway) Logout(ctx context.Context) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	return g.logout()
}

func (g *Gateway) logout() error {
	err := g.creds.Clear()
	if err != nil {
		g.logger.Warn().Err(err).Msg("Failed to clear stored credentials")
	}

	g.session.Reset()
	if g.navigator != nil {
		g.navigator.Navigate(LoginRoute)
	}

	if err != nil {
		return errors.Join(errors.New("failed to clear stored credentials"), err)
	}
	return nil
}
