package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenInfo is what the client can learn from a token without the signing key.
type tokenInfo struct {
	expiresAt time.Time
	subject   string
}

// inspectToken reads the claims of a JWT without verifying it; the server
// does the verifying. Opaque tokens yield a zero tokenInfo and never expire.
func inspectToken(token string) tokenInfo {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return tokenInfo{}
	}

	var info tokenInfo
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.expiresAt = exp.Time
	}
	if id, ok := claims["user_id"]; ok && id != nil {
		info.subject = fmt.Sprint(id)
	} else if sub, err := claims.GetSubject(); err == nil {
		info.subject = sub
	}
	return info
}

func (i tokenInfo) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}
