package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the parts of a backend-issued JWT the portal cares about
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenInspector reads backend JWTs. The portal never issues tokens; it only
// needs to know when a stored token has expired and which role it carries.
// With a secret configured the signature is verified as well.
type TokenInspector struct {
	secretKey []byte
	leeway    time.Duration
	now       func() time.Time
}

// NewTokenInspector creates an inspector. An empty secret skips signature checks.
func NewTokenInspector(secret string, leeway time.Duration) *TokenInspector {
	return &TokenInspector{
		secretKey: []byte(secret),
		leeway:    leeway,
		now:       time.Now,
	}
}

// Verifies reports whether signatures are checked
func (i *TokenInspector) Verifies() bool {
	return len(i.secretKey) > 0
}

// Inspect parses tokenString and checks its expiry
func (i *TokenInspector) Inspect(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	if i.Verifies() {
		return i.verify(tokenString)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && i.now().After(claims.ExpiresAt.Time.Add(i.leeway)) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}

func (i *TokenInspector) verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.now),
	)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExpiresIn returns how long the token stays valid. ok is false when the
// token carries no expiry.
func (i *TokenInspector) ExpiresIn(claims *Claims) (time.Duration, bool) {
	if claims == nil || claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Time.Sub(i.now()), true
}
