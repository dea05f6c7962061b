// Package app wires the client-side components for one CLI invocation.
package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/authdeck/authdeck/internal/authn"
	"github.com/authdeck/authdeck/internal/cli/client"
	"github.com/authdeck/authdeck/internal/cli/config"
	"github.com/authdeck/authdeck/internal/credstore"
	"github.com/authdeck/authdeck/internal/forms"
	"github.com/authdeck/authdeck/internal/gateway"
	"github.com/authdeck/authdeck/internal/guard"
	"github.com/authdeck/authdeck/internal/i18n"
	"github.com/authdeck/authdeck/internal/logger"
	"github.com/authdeck/authdeck/internal/session"
)

// ErrNotSignedIn is returned when a view needs a session and there is none
var ErrNotSignedIn = errors.New("not signed in, run 'authdeck login' first")

// Loader builds the App lazily so commands that fail flag parsing never
// touch the credential store.
type Loader func() (*App, error)

// App holds the wired components
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   credstore.Store
	Session *session.Holder
	Router  *guard.Router
	Gateway *gateway.Gateway
	API     *client.Client
	Catalog *i18n.Catalog
	Forms   *forms.Validator
}

// New opens the configured credential store and wires everything on top of it.
// Logs go to logOut.
func New(cfg *config.Config, logOut io.Writer) (*App, error) {
	log := logger.New(logOut, cfg.LogLevel, cfg.LogFormat)

	store, err := credstore.Open(cfg.CredentialStore, cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	a, err := NewWithStore(cfg, store, log)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	return a, nil
}

// NewWithStore wires the components around an existing store
func NewWithStore(cfg *config.Config, store credstore.Store, log zerolog.Logger) (*App, error) {
	catalog, err := i18n.New(store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	holder := session.NewHolder()
	creds := session.NewCredentials(store)
	if _, err := holder.Hydrate(creds); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	router := guard.NewRouter(holder, log)

	gw := gateway.New(gateway.Options{
		BaseURL:     cfg.APIURL,
		HTTPClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		Credentials: creds,
		Session:     holder,
		Navigator:   router,
		Logger:      log,
	})

	apiClient := client.New(cfg.APIURL, &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: authn.NewTransport(http.DefaultTransport, holder, gw, log),
	})

	return &App{
		Config:  cfg,
		Logger:  log,
		Store:   store,
		Session: holder,
		Router:  router,
		Gateway: gw,
		API:     apiClient,
		Catalog: catalog,
		Forms:   forms.New(),
	}, nil
}

// Open navigates to a view and returns the signed-in user, or
// ErrNotSignedIn when the guards send the user to the login route.
func (a *App) Open(path string) (*session.User, error) {
	if reached := a.Router.Navigate(path); reached == guard.Login {
		return nil, ErrNotSignedIn
	}
	return a.Session.User(), nil
}

// T translates key in the current language
func (a *App) T(key string, kv ...string) string {
	return a.Catalog.T(key, kv...)
}

// Close releases the credential store
func (a *App) Close() error {
	return closeStore(a.Store)
}

func closeStore(store credstore.Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
