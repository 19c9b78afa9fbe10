package model

import (
	"time"

	"fleet/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID         = "id"
	FieldOwner      = "owner"
	FieldVehicleID  = "vehicle_id"
	FieldClientName = "client_name"
	FieldAmountPaid = "amount_paid"
	FieldStartDate  = "start_date"
	FieldEndDate    = "end_date"
	FieldStatus     = "status"

	StatusBooked    = "Booked"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Booking occupies a vehicle for an inclusive day range. Completed and
// Cancelled are terminal; only Booked rows count toward availability.
type Booking struct {
	ID         int64     `db:"id"`
	Owner      string    `db:"owner"`
	VehicleID  int64     `db:"vehicle_id"`
	ClientName string    `db:"client_name"`
	AmountPaid float64   `db:"amount_paid"`
	StartDate  time.Time `db:"start_date"`
	EndDate    time.Time `db:"end_date"`
	Status     string    `db:"status"`
	model.Metadata
}

// Overlaps reports whether the booking's day range touches [start, end].
// Both ranges are inclusive, so a booking ending on the day another
// starts still conflicts.
func (b Booking) Overlaps(start, end time.Time) bool {
	return !b.StartDate.After(end) && !b.EndDate.Before(start)
}
