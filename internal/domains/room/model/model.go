package model

import (
	"roombook/shared/model"

	"github.com/lib/pq"
)

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID          = "id"
	FieldCode        = "code"
	FieldName        = "name"
	FieldLocation    = "location"
	FieldCapacity    = "capacity"
	FieldImage       = "image"
	FieldFacilities  = "facilities"
	FieldDescription = "description"
	FieldStatus      = "status"
)

type Room struct {
	ID          string         `db:"id"`
	Code        string         `db:"code"`
	Name        string         `db:"name"`
	Location    string         `db:"location"`
	Capacity    int            `db:"capacity"`
	Image       string         `db:"image"`
	Facilities  pq.StringArray `db:"facilities"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	model.Metadata
}
