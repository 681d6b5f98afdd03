package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/storefront-tickets/internal/domain"
)

// TokenManager issues and validates the JWTs the chat gateway presents on
// behalf of platform members.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes JWT payload. Roles are platform role ids.
type Claims struct {
	MemberID string   `json:"sub"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Staff    bool     `json:"staff,omitempty"`
	Owner    bool     `json:"owner,omitempty"`
	Bot      bool     `json:"bot,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the identity services act on.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{
		ID:    c.MemberID,
		Name:  c.Name,
		Roles: append([]string(nil), c.Roles...),
		Staff: c.Staff,
		Owner: c.Owner,
		Bot:   c.Bot,
	}
}

// GenerateToken builds and signs a JWT for actor.
func (tm *TokenManager) GenerateToken(actor domain.Actor) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		MemberID: actor.ID,
		Name:     actor.Name,
		Roles:    actor.Roles,
		Staff:    actor.Staff,
		Owner:    actor.Owner,
		Bot:      actor.Bot,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.MemberID == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
