package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stemsi/exstem-proctor/internal/config"
)

// Common auth errors.
var (
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// TokenType distinguishes candidate tokens from anything else signed with the secret.
type TokenType string

const TokenTypeCandidate TokenType = "candidate"

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType  TokenType `json:"token_type"`
	SessionKey string    `json:"session_key"`
	Contact    string    `json:"contact"`
}

// SessionKeySource exposes the id of the current registration.
type SessionKeySource interface {
	SessionID() string
}

// AuthService issues and validates candidate tokens. A token is only honoured
// while its session key matches the current registration.
type AuthService struct {
	secret  []byte
	expiry  time.Duration
	session SessionKeySource
	now     func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, session SessionKeySource) *AuthService {
	return &AuthService{
		secret:  []byte(cfg.JWTSecret),
		expiry:  cfg.JWTExpiry,
		session: session,
		now:     time.Now,
	}
}

// GenerateCandidateToken signs a token bound to sessionKey.
func (s *AuthService) GenerateCandidateToken(sessionKey, contact string) (string, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   contact,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		TokenType:  TokenTypeCandidate,
		SessionKey: sessionKey,
		Contact:    contact,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(ErrTokenInvalid, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != TokenTypeCandidate {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ValidateCandidateSession checks that the claims belong to the current registration.
func (s *AuthService) ValidateCandidateSession(claims *Claims) error {
	current := s.session.SessionID()
	if current == "" || claims.SessionKey != current {
		return ErrSessionInvalidated
	}
	return nil
}
