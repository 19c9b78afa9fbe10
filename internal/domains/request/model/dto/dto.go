package dto

import (
	bookingDto "fleet/internal/domains/booking/model/dto"
	"fleet/internal/domains/request/model"
	"fleet/shared"
	gDto "fleet/shared/dto"
	gModel "fleet/shared/model"
	"fleet/shared/timezone"

	"github.com/google/uuid"
)

type SubmitRequestRequest struct {
	VehicleID   int64  `json:"vehicle_id"   validate:"required"`
	ClientName  string `json:"client_name"  validate:"required,max=100"`
	ClientEmail string `json:"client_email" validate:"required,email"`
	ClientPhone string `json:"client_phone" validate:"omitempty,max=30"`
	StartDate   string `json:"start_date"   validate:"required,dateonly"`
	EndDate     string `json:"end_date"     validate:"required,dateonly"`
	Note        string `json:"note"         validate:"omitempty,max=500"`
}

func (s *SubmitRequestRequest) ToModel(owner string) (model.Request, error) {
	start, err := timezone.ParseDate(s.StartDate)
	if err != nil {
		return model.Request{}, err
	}

	end, err := timezone.ParseDate(s.EndDate)
	if err != nil {
		return model.Request{}, err
	}

	return model.Request{
		ID:          uuid.NewString(),
		Owner:       owner,
		VehicleID:   s.VehicleID,
		ClientName:  s.ClientName,
		ClientEmail: s.ClientEmail,
		ClientPhone: s.ClientPhone,
		StartDate:   start,
		EndDate:     end,
		Note:        s.Note,
		Status:      model.StatusPending,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  s.ClientName,
			ModifiedBy: s.ClientName,
		},
	}, nil
}

// ApproveRequestRequest carries the owner's overrides when turning a
// pending request into a booking. Empty fields keep the requested values.
type ApproveRequestRequest struct {
	AmountPaid   float64 `json:"amount_paid" validate:"gte=0"`
	ClientName   string  `json:"client_name" validate:"omitempty,max=100"`
	StartDate    string  `json:"start_date"  validate:"omitempty,dateonly"`
	EndDate      string  `json:"end_date"    validate:"omitempty,dateonly"`
	AllowOverlap bool    `json:"allow_overlap"`
}

// ToBookingRequest merges the overrides over the submitted request.
func (a *ApproveRequestRequest) ToBookingRequest(request model.Request) bookingDto.CreateBookingRequest {
	create := bookingDto.CreateBookingRequest{
		VehicleID:    request.VehicleID,
		ClientName:   request.ClientName,
		AmountPaid:   a.AmountPaid,
		StartDate:    timezone.FormatDate(request.StartDate),
		EndDate:      timezone.FormatDate(request.EndDate),
		AllowOverlap: a.AllowOverlap,
	}

	if a.ClientName != "" {
		create.ClientName = a.ClientName
	}

	if a.StartDate != "" {
		create.StartDate = a.StartDate
	}

	if a.EndDate != "" {
		create.EndDate = a.EndDate
	}

	return create
}

type RequestResponse struct {
	ID          string `json:"id"`
	VehicleID   int64  `json:"vehicle_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Note        string `json:"note,omitempty"`
	Status      string `json:"status"`
	gDto.Metadata
}

func (r *RequestResponse) FromModel(request model.Request) {
	r.ID = request.ID
	r.VehicleID = request.VehicleID
	r.ClientName = request.ClientName
	r.ClientEmail = request.ClientEmail
	r.ClientPhone = request.ClientPhone
	r.StartDate = timezone.FormatDate(request.StartDate)
	r.EndDate = timezone.FormatDate(request.EndDate)
	r.Note = request.Note
	r.Status = request.Status
	r.Metadata.FromModel(request.Metadata)
}

type GetRequestsResponse struct {
	Requests  []RequestResponse `json:"requests"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetRequestsResponse) FromModels(models []model.Request, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Requests = make([]RequestResponse, len(models))
	for i, mod := range models {
		r.Requests[i].FromModel(mod)
	}
}
