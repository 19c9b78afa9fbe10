package model

import (
	"time"

	"fleet/shared/model"
)

const (
	TableName  = "expenses"
	EntityName = "expense"

	FieldID        = "id"
	FieldOwner     = "owner"
	FieldVehicleID = "vehicle_id"
	FieldDate      = "date"
	FieldAmount    = "amount"
	FieldType      = "type"

	TypeFuel        = "Fuel"
	TypeMaintenance = "Maintenance"
	TypeOther       = "Other"
)

type Expense struct {
	ID          int64     `db:"id"`
	Owner       string    `db:"owner"`
	VehicleID   int64     `db:"vehicle_id"`
	Date        time.Time `db:"date"`
	Description string    `db:"description"`
	Amount      float64   `db:"amount"`
	Type        string    `db:"type"`
	model.Metadata
}
