package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roombook/infras/jwt"
	"roombook/internal/domains/auth/model/dto"
	"roombook/shared/constant"
)

func TestLoginResponse_FromTokenPair(t *testing.T) {
	var res dto.LoginResponse
	res.FromTokenPair(&jwt.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    900,
	})

	assert.Equal(t, dto.LoginResponse{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}, res)
}

func TestRegisterRequest_ToUserModel(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	req := dto.RegisterRequest{Email: " Budi@Example.COM", Password: "rahasia123", Name: " Budi "}

	user := req.ToUserModel("hashed", now)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "budi@example.com", user.Email)
	assert.Equal(t, "Budi", user.Name)
	assert.Equal(t, "hashed", user.Password)
	assert.Equal(t, constant.RoleUser, user.Role)
	assert.True(t, user.Active)
	assert.Equal(t, user.ID, user.CreatedBy)
	assert.Equal(t, now, user.CreatedAt)
}
