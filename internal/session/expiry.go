package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scrumwise/scrumwise-cli/internal/api"
)

// deriveExpiry computes the access token's absolute expiry. The server's
// expires_in wins; failing that, if the token happens to be a JWT its exp
// claim is read without signature verification (the client never validates
// tokens, it only needs a refresh deadline). A zero time means the expiry is
// unknown and the refresh scheduler stays idle.
func deriveExpiry(resp *api.TokenResponse, now time.Time) time.Time {
	if resp.ExpiresIn > 0 {
		return now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	if exp, ok := jwtExpiry(resp.AccessToken); ok {
		return exp
	}
	return time.Time{}
}

func jwtExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
