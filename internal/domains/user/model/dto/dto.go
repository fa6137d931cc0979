package dto

import (
	"strings"
	"time"

	"roombook/internal/domains/user/model"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	gModel "roombook/shared/model"
	"roombook/shared/timezone"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required,max=100"`
	Phone    string `json:"phone"    validate:"omitempty,max=20"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin superadmin"`
}

func (r *CreateUserRequest) ToModel(actor, hashedPassword string, now time.Time) model.User {
	role := r.Role
	if role == constant.Empty {
		role = constant.RoleUser
	}

	return model.User{
		ID:       uuid.NewString(),
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Password: hashedPassword,
		Name:     strings.TrimSpace(r.Name),
		Phone:    r.Phone,
		Role:     role,
		Active:   true,
		Metadata: gModel.NewMetadata(actor, now),
	}
}

type UpdateUserRequest struct {
	Name   string `db:"name"   json:"name"   validate:"omitempty,max=100"`
	Phone  string `db:"phone"  json:"phone"  validate:"omitempty,max=20"`
	Role   string `db:"role"   json:"role"   validate:"omitempty,oneof=user admin superadmin"`
	Active *bool  `db:"active" json:"active"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Role      string  `json:"role"`
	Active    bool    `json:"active"`
	LastLogin *string `json:"last_login"`
	gDto.Metadata
}

func (r *UserResponse) FromModel(model model.User) {
	r.ID = model.ID
	r.Email = model.Email
	r.Name = model.Name
	r.Phone = model.Phone
	r.Role = model.Role
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)

	if model.LastLogin != nil {
		lastLogin := timezone.Format(*model.LastLogin, constant.DateFormat)
		r.LastLogin = &lastLogin
	}
}

type GetUsersResponse struct {
	Users     []UserResponse `json:"users"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetUsersResponse) FromModels(models []model.User, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Users = make([]UserResponse, len(models))
	for i, mod := range models {
		r.Users[i].FromModel(mod)
	}
}
