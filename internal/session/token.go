package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskmind/internal/models"
)

// tokenClaims reads the claims of a JWT bearer credential without verifying
// its signature; the signing key belongs to the remote service. ok is false
// for opaque tokens.
func tokenClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// profileFromToken fills the profile from the username/name and email claims.
func profileFromToken(token string) (models.Profile, bool) {
	claims, ok := tokenClaims(token)
	if !ok {
		return models.Profile{}, false
	}
	var p models.Profile
	for _, key := range []string{"username", "name"} {
		if v, ok := claims[key].(string); ok && v != "" {
			p.Username = v
			break
		}
	}
	if v, ok := claims["email"].(string); ok {
		p.Email = v
	}
	return p, p != models.Profile{}
}

// tokenExpired reports whether the token carries an exp claim earlier than now.
func tokenExpired(token string, now time.Time) bool {
	claims, ok := tokenClaims(token)
	if !ok {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
