package dto

import (
	"time"

	"fleet/internal/domains/booking/model"
	"fleet/shared"
	gDto "fleet/shared/dto"
	gModel "fleet/shared/model"
	"fleet/shared/timezone"
)

const (
	AvailabilityAvailable       = "Available"
	AvailabilityPartiallyBooked = "PartiallyBooked"
)

type CreateBookingRequest struct {
	VehicleID    int64   `json:"vehicle_id"  validate:"required"`
	ClientName   string  `json:"client_name" validate:"required,max=100"`
	AmountPaid   float64 `json:"amount_paid" validate:"gte=0"`
	StartDate    string  `json:"start_date"  validate:"required,dateonly"`
	EndDate      string  `json:"end_date"    validate:"required,dateonly"`
	AllowOverlap bool    `json:"allow_overlap"`
}

func (c *CreateBookingRequest) ToModel(owner string, id int64) (model.Booking, error) {
	start, err := timezone.ParseDate(c.StartDate)
	if err != nil {
		return model.Booking{}, err
	}

	end, err := timezone.ParseDate(c.EndDate)
	if err != nil {
		return model.Booking{}, err
	}

	return model.Booking{
		ID:         id,
		Owner:      owner,
		VehicleID:  c.VehicleID,
		ClientName: c.ClientName,
		AmountPaid: c.AmountPaid,
		StartDate:  start,
		EndDate:    end,
		Status:     model.StatusBooked,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  owner,
			ModifiedBy: owner,
		},
	}, nil
}

type UpdateBookingRequest struct {
	ClientName   string   `db:"client_name" json:"client_name" validate:"omitempty,max=100"`
	AmountPaid   *float64 `db:"amount_paid" json:"amount_paid" validate:"omitempty,gte=0"`
	StartDate    string   `json:"start_date" validate:"omitempty,dateonly"`
	EndDate      string   `json:"end_date"   validate:"omitempty,dateonly"`
	AllowOverlap bool     `json:"allow_overlap"`
}

func (u *UpdateBookingRequest) IsEmpty() bool {
	return u.ClientName == "" && u.AmountPaid == nil && u.StartDate == "" && u.EndDate == ""
}

// ToUpdateMap renders the patch into column updates. Dates need parsing so
// they are handled here rather than by the db-tag walk.
func (u *UpdateBookingRequest) ToUpdateMap(owner string) (map[string]any, error) {
	fields := shared.TransformFields(*u, owner)

	if u.StartDate != "" {
		start, err := timezone.ParseDate(u.StartDate)
		if err != nil {
			return nil, err
		}

		fields[model.FieldStartDate] = start
	}

	if u.EndDate != "" {
		end, err := timezone.ParseDate(u.EndDate)
		if err != nil {
			return nil, err
		}

		fields[model.FieldEndDate] = end
	}

	return fields, nil
}

// Conflict identifies one existing booking that occupies part of a
// requested range.
type Conflict struct {
	BookingID  int64  `json:"booking_id"`
	ClientName string `json:"client_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (c *Conflict) FromModel(booking model.Booking) {
	c.BookingID = booking.ID
	c.ClientName = booking.ClientName
	c.StartDate = timezone.FormatDate(booking.StartDate)
	c.EndDate = timezone.FormatDate(booking.EndDate)
}

type OverlapResponse struct {
	Overlaps  bool       `json:"overlaps"`
	Conflicts []Conflict `json:"conflicts"`
}

// Interval is one occupied day range in an availability report.
type Interval struct {
	BookingID  int64  `json:"booking_id"`
	ClientName string `json:"client_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type AvailabilityResponse struct {
	VehicleID int64      `json:"vehicle_id"`
	Status    string     `json:"status"`
	Occupied  []Interval `json:"occupied"`
}

func (a *AvailabilityResponse) FromModels(vehicleID int64, models []model.Booking) {
	a.VehicleID = vehicleID
	a.Occupied = make([]Interval, len(models))

	for i, mod := range models {
		a.Occupied[i] = Interval{
			BookingID:  mod.ID,
			ClientName: mod.ClientName,
			StartDate:  timezone.FormatDate(mod.StartDate),
			EndDate:    timezone.FormatDate(mod.EndDate),
		}
	}

	if len(models) == 0 {
		a.Status = AvailabilityAvailable
	} else {
		a.Status = AvailabilityPartiallyBooked
	}
}

type BookingResponse struct {
	ID         int64   `json:"id"`
	VehicleID  int64   `json:"vehicle_id"`
	ClientName string  `json:"client_name"`
	AmountPaid float64 `json:"amount_paid"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Status     string  `json:"status"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(booking model.Booking) {
	r.ID = booking.ID
	r.VehicleID = booking.VehicleID
	r.ClientName = booking.ClientName
	r.AmountPaid = booking.AmountPaid
	r.StartDate = timezone.FormatDate(booking.StartDate)
	r.EndDate = timezone.FormatDate(booking.EndDate)
	r.Status = booking.Status
	r.Metadata.FromModel(booking.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// BookingEvent is the payload published to the booking events topic on
// every lifecycle transition.
type BookingEvent struct {
	Event      string  `json:"event"`
	Owner      string  `json:"owner"`
	BookingID  int64   `json:"booking_id"`
	VehicleID  int64   `json:"vehicle_id"`
	ClientName string  `json:"client_name"`
	AmountPaid float64 `json:"amount_paid"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	OccurredAt string  `json:"occurred_at"`
}

func NewBookingEvent(event string, booking model.Booking) BookingEvent {
	return BookingEvent{
		Event:      event,
		Owner:      booking.Owner,
		BookingID:  booking.ID,
		VehicleID:  booking.VehicleID,
		ClientName: booking.ClientName,
		AmountPaid: booking.AmountPaid,
		StartDate:  timezone.FormatDate(booking.StartDate),
		EndDate:    timezone.FormatDate(booking.EndDate),
		OccurredAt: timezone.Now().Format(time.RFC3339),
	}
}
