package model

import (
	"fleet/shared/model"
	"time"
)

const (
	TableName  = "vehicles"
	EntityName = "vehicle"

	FieldID              = "id"
	FieldOwner           = "owner"
	FieldName            = "name"
	FieldPlateNumber     = "plate_number"
	FieldModel           = "model"
	FieldStatus          = "status"
	FieldLastServiceDate = "last_service_date"
	FieldNextServiceDate = "next_service_date"
)

// Vehicle status values. Booked is a cached summary of "has at least one
// active booking"; the booking collection is the authority and the engine
// recomputes this field after every lifecycle transition.
const (
	StatusAvailable   = "Available"
	StatusBooked      = "Booked"
	StatusMaintenance = "Maintenance"
)

type Vehicle struct {
	ID              int64      `db:"id"`
	Owner           string     `db:"owner"`
	Name            string     `db:"name"`
	PlateNumber     string     `db:"plate_number"`
	Model           string     `db:"model"`
	Status          string     `db:"status"`
	LastServiceDate *time.Time `db:"last_service_date"`
	NextServiceDate *time.Time `db:"next_service_date"`
	model.Metadata
}
