package dto

import (
	"roombook/infras/jwt"
	userModel "roombook/internal/domains/user/model"
	"roombook/shared/constant"
	gModel "roombook/shared/model"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name"     validate:"required,max=100"`
	Phone    string `json:"phone"    validate:"omitempty,max=20"`
}

// ToUserModel builds a self-registered account. Registration never grants an elevated role.
func (r *RegisterRequest) ToUserModel(hashedPassword string, now time.Time) userModel.User {
	id := uuid.NewString()

	return userModel.User{
		ID:       id,
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Password: hashedPassword,
		Name:     strings.TrimSpace(r.Name),
		Phone:    r.Phone,
		Role:     constant.RoleUser,
		Active:   true,
		Metadata: gModel.NewMetadata(id, now),
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (l *LoginResponse) FromTokenPair(tokenPair *jwt.TokenPair) {
	l.AccessToken = tokenPair.AccessToken
	l.RefreshToken = tokenPair.RefreshToken
	l.TokenType = tokenPair.TokenType
	l.ExpiresIn = tokenPair.ExpiresIn
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}
