package jwt_test

import (
	"roombook/config"
	"roombook/infras/jwt"
	"roombook/shared/clock"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (jwt.JWT, *clock.Fixed) {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Name = "roombook"
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.RefreshSecret = "refresh-secret"
	cfg.JWT.AccessExpireMin = 15
	cfg.JWT.RefreshExpireMin = 60 * 24

	fixed := clock.NewFixed(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	return jwt.New(cfg, fixed), fixed
}

func TestGenerateAndValidate(t *testing.T) {
	svc, _ := newService(t)

	pair, err := svc.GenerateTokenPair("user-1", "siti@example.com", "admin")
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(15*60), pair.ExpiresIn)

	claims, err := svc.ValidateToken(pair.AccessToken, jwt.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "siti@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, jwt.AccessToken, claims.Type)
	assert.Equal(t, "roombook", claims.Issuer)
}

func TestValidateToken_WrongType(t *testing.T) {
	svc, _ := newService(t)

	pair, err := svc.GenerateTokenPair("user-1", "siti@example.com", "user")
	require.NoError(t, err)

	// A refresh token is signed with a different secret.
	_, err = svc.ValidateToken(pair.RefreshToken, jwt.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc, fixed := newService(t)

	pair, err := svc.GenerateTokenPair("user-1", "siti@example.com", "user")
	require.NoError(t, err)

	fixed.Advance(16 * time.Minute)

	_, err = svc.ValidateToken(pair.AccessToken, jwt.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrExpiredToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ValidateToken("not.a.token", jwt.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestRefreshTokens(t *testing.T) {
	svc, fixed := newService(t)

	pair, err := svc.GenerateTokenPair("user-1", "siti@example.com", "user")
	require.NoError(t, err)

	fixed.Advance(30 * time.Minute)

	refreshed, err := svc.RefreshTokens(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(refreshed.AccessToken, jwt.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = svc.RefreshTokens(pair.AccessToken)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := jwt.ExtractTokenFromHeader("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		_, err := jwt.ExtractTokenFromHeader(header)
		assert.Error(t, err, header)
	}
}

func TestValidateToken_OtherIssuer(t *testing.T) {
	svc, fixed := newService(t)

	cfg := &config.Config{}
	cfg.App.Name = "another-service"
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.RefreshSecret = "refresh-secret"
	cfg.JWT.AccessExpireMin = 15

	pair, err := jwt.New(cfg, fixed).GenerateTokenPair("user-1", "siti@example.com", "user")
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.AccessToken, jwt.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestGenerateTokenPair_NoSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.AccessExpireMin = 15

	_, err := jwt.New(cfg, clock.NewFixed(time.Now())).GenerateTokenPair("user-1", "siti@example.com", "user")
	assert.ErrorIs(t, err, jwt.ErrNoSecret)
}
