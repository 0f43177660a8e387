// Package session owns the authenticated-session lifecycle: acquiring tokens
// on login or signup, persisting them across the two credential scopes,
// refreshing access tokens ahead of expiry, exposing the current user, and
// tearing everything down on logout or irrecoverable auth failure.
package session

// State is the session lifecycle state.
type State int

const (
	// StateUnauthenticated holds no valid token; protected surfaces must
	// send the user to login.
	StateUnauthenticated State = iota

	// StateAuthenticating has a login or signup call in flight.
	StateAuthenticating

	// StateAuthenticated holds a non-expired access token.
	StateAuthenticated

	// StateRefreshing has a background token refresh in flight.
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}
