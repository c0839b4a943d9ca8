package guard

import (
	"storefront/web/internal/domain"
	"storefront/web/internal/routes"
)

type Layout int

const (
	// NotFound: the path is not in the route table.
	NotFound Layout = iota
	// Bare: render content without navigation chrome.
	Bare
	// Chrome: navigation, content and footer.
	Chrome
)

func (l Layout) String() string {
	switch l {
	case NotFound:
		return "not_found"
	case Bare:
		return "bare"
	case Chrome:
		return "chrome"
	default:
		return "unknown"
	}
}

// Decide picks the layout for path. It is pure in (path, table); /admin is
// always bare, even before a table exists.
func Decide(path string, table *routes.Table) Layout {
	if path == routes.PathAdmin {
		return Bare
	}
	if !table.Has(path) {
		return NotFound
	}
	return Chrome
}

type Action int

const (
	// Suppress renders nothing while the session check is in flight.
	Suppress Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Suppress:
		return "suppress"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Outcome is the decision for the protected route.
type Outcome struct {
	Action  Action
	To      string // Redirect target
	Replace bool   // Replace the current history entry instead of pushing
	User    domain.User
}

// Protect decides what the protected account route shows for an auth state.
func Protect(state domain.AuthState) Outcome {
	switch state.Status() {
	case domain.AuthAuthenticated:
		user, _ := state.User()
		return Outcome{Action: Render, User: user}
	case domain.AuthAnonymous:
		return Outcome{Action: Redirect, To: routes.PathLogin, Replace: true}
	default:
		return Outcome{Action: Suppress}
	}
}
