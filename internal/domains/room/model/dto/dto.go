package dto

import (
	"mime/multipart"
	"strings"
	"time"

	"roombook/internal/domains/room/model"
	"roombook/shared"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	gModel "roombook/shared/model"

	"github.com/google/uuid"
)

type CreateRoomRequest struct {
	Code        string                `json:"code"        validate:"required,max=20"`
	Name        string                `json:"name"        validate:"required,max=100"`
	Location    string                `json:"location"    validate:"omitempty,max=100"`
	Capacity    int                   `json:"capacity"    validate:"omitempty,min=0"`
	Facilities  []string              `json:"facilities"  validate:"omitempty,dive,max=50"`
	Description string                `json:"description" validate:"omitempty,max=1000"`
	Status      string                `json:"status"      validate:"omitempty,oneof=tersedia dipakai pemeliharaan"`
	Image       *multipart.FileHeader `json:"image"       validate:"omitempty,mimetypes=image/png image/jpg image/jpeg,maxfilesize=1"`
	ImageFile   multipart.File        `json:"-"`
}

func (c *CreateRoomRequest) ToModel(user, imageURL string, now time.Time) model.Room {
	status := constant.RoomStatusAvailable
	if c.Status != constant.Empty {
		status = c.Status
	}

	return model.Room{
		ID:          uuid.NewString(),
		Code:        strings.ToUpper(strings.TrimSpace(c.Code)),
		Name:        c.Name,
		Location:    c.Location,
		Capacity:    c.Capacity,
		Image:       imageURL,
		Facilities:  c.Facilities,
		Description: c.Description,
		Status:      status,
		Metadata:    gModel.NewMetadata(user, now),
	}
}

// UpdateRoomRequest leaves status alone; status has its own endpoint.
type UpdateRoomRequest struct {
	Code        string                `db:"code"        json:"code"        validate:"omitempty,max=20"`
	Name        string                `db:"name"        json:"name"        validate:"omitempty,max=100"`
	Location    string                `db:"location"    json:"location"    validate:"omitempty,max=100"`
	Capacity    *int                  `db:"capacity"    json:"capacity"    validate:"omitempty,min=0"`
	Description string                `db:"description" json:"description" validate:"omitempty,max=1000"`
	Facilities  []string              `json:"facilities"  validate:"omitempty,dive,max=50"`
	Image       *multipart.FileHeader `json:"image"       validate:"omitempty,mimetypes=image/png image/jpg image/jpeg,maxfilesize=1"`
	ImageFile   multipart.File        `json:"-"`
}

type UpdateRoomStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=tersedia dipakai pemeliharaan"`
}

type RoomResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	Image       string   `json:"image"`
	Facilities  []string `json:"facilities"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.Code = model.Code
	r.Name = model.Name
	r.Location = model.Location
	r.Capacity = model.Capacity
	r.Image = model.Image
	r.Facilities = []string(model.Facilities)
	r.Description = model.Description
	r.Status = model.Status
	r.Metadata.FromModel(model.Metadata)

	if r.Facilities == nil {
		r.Facilities = []string{}
	}
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}
