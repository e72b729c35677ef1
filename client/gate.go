package client

import "github.com/taskdesk/taskdesk/internal/models"

// Decision is what a route guard does with the current navigation.
type Decision int

const (
	// Waiting means the session is still loading; render nothing yet.
	Waiting Decision = iota
	// RedirectSignIn means no authenticated user.
	RedirectSignIn
	// RedirectHome means the user is authenticated but lacks a
	// required role.
	RedirectHome
	// Allow passes the navigation through.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Waiting:
		return "waiting"
	case RedirectSignIn:
		return "redirect_sign_in"
	case RedirectHome:
		return "redirect_home"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decide is the access gate. It is pure: callers re-invoke it on every
// navigation and session change. An empty requiredRoles slice means any
// authenticated user may pass.
func Decide(session Session, requiredRoles ...models.Role) Decision {
	if session.Loading {
		return Waiting
	}
	if session.Profile == nil {
		return RedirectSignIn
	}
	if len(requiredRoles) == 0 {
		return Allow
	}
	for _, role := range requiredRoles {
		if session.Profile.Role == role {
			return Allow
		}
	}
	return RedirectHome
}
