package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yukikurage/workforce-api/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenClaims are the claims carried by access and refresh tokens.
type TokenClaims struct {
	UserID    uint64 `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        Clock
}

// NewTokenService creates a new TokenService.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        systemClock,
	}
}

// IssueAccess signs a short lived access token.
func (s *TokenService) IssueAccess(userID uint64) (string, error) {
	token, _, err := s.issue(userID, tokenTypeAccess, s.accessTTL)
	return token, err
}

// IssueRefresh signs a refresh token and returns its unique ID.
func (s *TokenService) IssueRefresh(userID uint64) (token string, jti string, err error) {
	return s.issue(userID, tokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) issue(userID uint64, tokenType string, ttl time.Duration) (string, string, error) {
	now := s.now()
	jti := uuid.NewString()
	claims := TokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, jti, nil
}

// ParseAccess verifies an access token.
func (s *TokenService) ParseAccess(token string) (*TokenClaims, error) {
	return s.parse(token, tokenTypeAccess)
}

// ParseRefresh verifies a refresh token.
func (s *TokenService) ParseRefresh(token string) (*TokenClaims, error) {
	return s.parse(token, tokenTypeRefresh)
}

func (s *TokenService) parse(token, tokenType string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
