package server

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired
	ErrExpiredToken = errors.New("token has expired")
)

const (
	tokenTypeID        = "id"
	tokenTypeRefresh   = "refresh"
	tokenTypeAssertion = "assertion"
)

// TokenConfig holds the signing settings of the emulated identity provider
type TokenConfig struct {
	Secret     string
	IDTokenTTL time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

// Claims are the claims of every token the server issues
type Claims struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 tokens
type TokenManager struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenManager creates a TokenManager
func NewTokenManager(config TokenConfig) *TokenManager {
	if config.IDTokenTTL <= 0 {
		config.IDTokenTTL = time.Hour
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = 30 * 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "taskdeck-dev"
	}
	return &TokenManager{config: config, now: time.Now}
}

// IssueIDToken creates a bearer token for uid
func (m *TokenManager) IssueIDToken(uid, email, name string) (string, error) {
	return m.issue(uid, email, name, tokenTypeID, m.config.IDTokenTTL)
}

// IssueRefreshToken creates a token that can be exchanged for id tokens
func (m *TokenManager) IssueRefreshToken(uid string) (string, error) {
	return m.issue(uid, "", "", tokenTypeRefresh, m.config.RefreshTTL)
}

// IssueAssertion creates a federated identity assertion for email. The
// emulator accepts it in accounts:signInWithIdp.
func (m *TokenManager) IssueAssertion(subject, email, name string) (string, error) {
	return m.issue(subject, email, name, tokenTypeAssertion, 10*time.Minute)
}

// IDTokenSeconds returns the id token lifetime in seconds
func (m *TokenManager) IDTokenSeconds() int64 {
	return int64(m.config.IDTokenTTL.Seconds())
}

func (m *TokenManager) issue(subject, email, name, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Email:     email,
		Name:      name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// Validate checks the signature, expiry and type of a token
func (m *TokenManager) Validate(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
