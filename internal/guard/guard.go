// Package guard decides which view a user may open given whether they are
// signed in.
package guard

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Route paths
const (
	Login     = "/login"
	Register  = "/register"
	Dashboard = "/dashboard"
	Profile   = "/profile"
	Settings  = "/settings"
	Analytics = "/analytics"
	Reports   = "/reports"
)

// Access is the precondition a route places on the session
type Access int

const (
	// GuestOnly routes are for signed-out users
	GuestOnly Access = iota
	// AuthenticatedOnly routes need a signed-in user
	AuthenticatedOnly
)

// Route is one entry in the route table
type Route struct {
	Path     string
	Access   Access
	TitleKey string // translation key for the view title
}

// Routes is the route table
var Routes = []Route{
	{Path: Login, Access: GuestOnly, TitleKey: "auth.login.welcome"},
	{Path: Register, Access: GuestOnly, TitleKey: "auth.register.title"},
	{Path: Dashboard, Access: AuthenticatedOnly, TitleKey: "dashboard.title"},
	{Path: Profile, Access: AuthenticatedOnly, TitleKey: "profile.personal-info"},
	{Path: Settings, Access: AuthenticatedOnly, TitleKey: "settings.title"},
	{Path: Analytics, Access: AuthenticatedOnly, TitleKey: "analytics.dashboard.title"},
	{Path: Reports, Access: AuthenticatedOnly, TitleKey: "reports.title"},
}

// Decision is the outcome of resolving a navigation
type Decision struct {
	Requested string
	Path      string // where the user ends up
	Allowed   bool   // true when Path == Requested
}

// Lookup returns the route registered for path
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve applies the guards to path and follows redirects until it lands on
// a route the session may open.
func Resolve(path string, authenticated bool) Decision {
	target := normalize(path)
	// bounded: every redirect target accepts the session that caused it
	for i := 0; i < len(Routes); i++ {
		next, redirected := step(target, authenticated)
		if !redirected {
			break
		}
		target = next
	}

	return Decision{
		Requested: path,
		Path:      target,
		Allowed:   target == normalize(path) && path != "" && path != "/",
	}
}

func step(path string, authenticated bool) (string, bool) {
	route, ok := Lookup(path)
	if !ok {
		return Login, true
	}

	switch route.Access {
	case GuestOnly:
		if authenticated {
			return Dashboard, true
		}
	case AuthenticatedOnly:
		if !authenticated {
			return Login, true
		}
	}
	return path, false
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" {
		return Login
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// SessionView is the part of the session the router needs
type SessionView interface {
	IsAuthenticated() bool
}

// Router tracks the current view and applies the guards on every navigation
type Router struct {
	session SessionView
	logger  zerolog.Logger

	mu      sync.Mutex
	current string
}

// NewRouter creates a router positioned at the login route
func NewRouter(session SessionView, logger zerolog.Logger) *Router {
	return &Router{
		session: session,
		logger:  logger,
		current: Login,
	}
}

// Navigate moves to path, or wherever the guards redirect it, and returns
// the route actually reached.
func (r *Router) Navigate(path string) string {
	decision := Resolve(path, r.session.IsAuthenticated())

	r.mu.Lock()
	r.current = decision.Path
	r.mu.Unlock()

	if !decision.Allowed {
		r.logger.Debug().
			Str("requested", decision.Requested).
			Str("path", decision.Path).
			Msg("Navigation redirected")
	}
	return decision.Path
}

// Current returns the route last navigated to
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
