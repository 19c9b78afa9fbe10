package model

import (
	"time"

	"fleet/shared/model"
)

const (
	TableName  = "booking_requests"
	EntityName = "booking_request"

	FieldID        = "id"
	FieldOwner     = "owner"
	FieldVehicleID = "vehicle_id"
	FieldStatus    = "status"
	FieldCreatedAt = "created_at"

	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Request is a booking submitted through the public channel. It holds the
// requester's contact details until the owner approves or rejects it.
type Request struct {
	ID          string    `db:"id"`
	Owner       string    `db:"owner"`
	VehicleID   int64     `db:"vehicle_id"`
	ClientName  string    `db:"client_name"`
	ClientEmail string    `db:"client_email"`
	ClientPhone string    `db:"client_phone"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	Note        string    `db:"note"`
	Status      string    `db:"status"`
	model.Metadata
}
