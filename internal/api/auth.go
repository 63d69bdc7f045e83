package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredentials / ErrInvalidCredentials mirror the teacher's auth
// package error taxonomy (internal/auth in the corpus).
var (
	ErrNoCredentials      = errors.New("api: no credentials presented")
	ErrInvalidCredentials = errors.New("api: invalid credentials")
)

// Authenticator validates bearer JWTs issued by the configured issuer,
// grounded on the teacher's auth.JWTAuthenticator bearer-extraction
// pattern.
type Authenticator struct {
	issuer string
	keyfunc jwt.Keyfunc
}

func NewAuthenticator(issuer string, keyfunc jwt.Keyfunc) *Authenticator {
	return &Authenticator{issuer: issuer, keyfunc: keyfunc}
}

func (a *Authenticator) Authenticate(r *http.Request) (jwt.MapClaims, error) {
	tokenStr := extractBearerToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, a.keyfunc, jwt.WithIssuer(a.issuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
