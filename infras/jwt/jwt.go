// Package jwt issues and checks the HS256 access and refresh tokens of the API.
package jwt

//go:generate go run go.uber.org/mock/mockgen -source=./jwt.go -destination=./mocks/jwt_mock.go -package=mocks

import (
	"errors"
	"fmt"
	"roombook/config"
	"roombook/shared/clock"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const bearerPrefix = "Bearer "

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claim")
	ErrNoSecret     = errors.New("signing secret is not configured")
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims identify the caller. TokenID equals the registered jti.
type Claims struct {
	UserID  string    `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role,omitempty"`
	TokenID string    `json:"token_id"`
	Type    TokenType `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type JWT interface {
	GenerateTokenPair(userID, email, role string) (*TokenPair, error)
	ValidateToken(tokenString string, tokenType TokenType) (*Claims, error)
	RefreshTokens(refreshToken string) (*TokenPair, error)
}

// kind holds what differs between access and refresh tokens.
type kind struct {
	secret []byte
	ttl    time.Duration
}

type Service struct {
	issuer string
	kinds  map[TokenType]kind
	clock  clock.Clock
}

func New(cfg *config.Config, clock clock.Clock) JWT {
	return &Service{
		issuer: cfg.App.Name,
		kinds: map[TokenType]kind{
			AccessToken:  {secret: []byte(cfg.JWT.AccessSecret), ttl: time.Duration(cfg.JWT.AccessExpireMin) * time.Minute},
			RefreshToken: {secret: []byte(cfg.JWT.RefreshSecret), ttl: time.Duration(cfg.JWT.RefreshExpireMin) * time.Minute},
		},
		clock: clock,
	}
}

// GenerateTokenPair signs both tokens with the same issue time.
func (s *Service) GenerateTokenPair(userID, email, role string) (*TokenPair, error) {
	issuedAt := s.clock.Now().Truncate(time.Second)

	access, err := s.sign(AccessToken, Claims{UserID: userID, Email: email, Role: role}, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.sign(RefreshToken, Claims{UserID: userID, Email: email, Role: role}, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    strings.TrimSpace(bearerPrefix),
		ExpiresIn:    int64(s.kinds[AccessToken].ttl.Seconds()),
	}, nil
}

func (s *Service) sign(tokenType TokenType, claims Claims, issuedAt time.Time) (string, error) {
	k, err := s.kind(tokenType)
	if err != nil {
		return "", err
	}

	claims.Type = tokenType
	claims.TokenID = uuid.NewString()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        claims.TokenID,
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(k.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken parses tokenString and checks signature, issuer, lifetime and type.
func (s *Service) ValidateToken(tokenString string, tokenType TokenType) (*Claims, error) {
	k, err := s.kind(tokenType)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)

	claims := &Claims{}

	_, err = parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return k.secret, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.Type != tokenType:
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

// RefreshTokens trades a valid refresh token for a new pair.
func (s *Service) RefreshTokens(refreshToken string) (*TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	return s.GenerateTokenPair(claims.UserID, claims.Email, claims.Role)
}

func (s *Service) kind(tokenType TokenType) (kind, error) {
	k, ok := s.kinds[tokenType]
	if !ok {
		return kind{}, fmt.Errorf("unknown token type: %s", tokenType)
	}

	if len(k.secret) == 0 {
		return kind{}, fmt.Errorf("%s token: %w", tokenType, ErrNoSecret)
	}

	return k, nil
}

// ExtractTokenFromHeader returns the token of an "Authorization: Bearer <token>" header.
func ExtractTokenFromHeader(authHeader string) (string, error) {
	token, found := strings.CutPrefix(authHeader, bearerPrefix)
	if !found || strings.TrimSpace(token) == "" {
		return "", errors.New("authorization header must be 'Bearer <token>'")
	}

	return token, nil
}
