package dto

import (
	"time"

	"fleet/internal/domains/vehicle/model"
	"fleet/shared"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	gModel "fleet/shared/model"
	"fleet/shared/timezone"
)

type CreateVehicleRequest struct {
	Name            string `json:"name"              validate:"required,max=100"`
	PlateNumber     string `json:"plate_number"      validate:"required,max=20"`
	Model           string `json:"model"             validate:"required,max=100"`
	LastServiceDate string `json:"last_service_date" validate:"omitempty,dateonly"`
	NextServiceDate string `json:"next_service_date" validate:"omitempty,dateonly"`
}

func (c *CreateVehicleRequest) ToModel(owner string, id int64) (model.Vehicle, error) {
	lastService, err := parseOptionalDate(c.LastServiceDate)
	if err != nil {
		return model.Vehicle{}, err
	}

	if lastService == nil {
		today := timezone.Today()
		lastService = &today
	}

	nextService, err := parseOptionalDate(c.NextServiceDate)
	if err != nil {
		return model.Vehicle{}, err
	}

	return model.Vehicle{
		ID:              id,
		Owner:           owner,
		Name:            c.Name,
		PlateNumber:     c.PlateNumber,
		Model:           c.Model,
		Status:          model.StatusAvailable,
		LastServiceDate: lastService,
		NextServiceDate: nextService,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  owner,
			ModifiedBy: owner,
		},
	}, nil
}

type UpdateVehicleRequest struct {
	Name            string `db:"name"         json:"name"              validate:"omitempty,max=100"`
	PlateNumber     string `db:"plate_number" json:"plate_number"      validate:"omitempty,max=20"`
	Model           string `db:"model"        json:"model"             validate:"omitempty,max=100"`
	Status          string `json:"status"            validate:"omitempty,oneof=Available Maintenance"`
	LastServiceDate string `json:"last_service_date" validate:"omitempty,dateonly"`
	NextServiceDate string `json:"next_service_date" validate:"omitempty,dateonly"`
}

// ToUpdateMap renders the patch into column updates. Status is handled by
// the service because manual transitions are restricted; dates need parsing.
func (u *UpdateVehicleRequest) ToUpdateMap(owner string) (map[string]any, error) {
	fields := shared.TransformFields(*u, owner)

	if u.LastServiceDate != "" {
		date, err := timezone.ParseDate(u.LastServiceDate)
		if err != nil {
			return nil, err
		}

		fields[model.FieldLastServiceDate] = date
	}

	if u.NextServiceDate != "" {
		date, err := timezone.ParseDate(u.NextServiceDate)
		if err != nil {
			return nil, err
		}

		fields[model.FieldNextServiceDate] = date
	}

	return fields, nil
}

type VehicleResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	PlateNumber     string `json:"plate_number"`
	Model           string `json:"model"`
	Status          string `json:"status"`
	LastServiceDate string `json:"last_service_date,omitempty"`
	NextServiceDate string `json:"next_service_date,omitempty"`
	gDto.Metadata
}

func (r *VehicleResponse) FromModel(model model.Vehicle) {
	r.ID = model.ID
	r.Name = model.Name
	r.PlateNumber = model.PlateNumber
	r.Model = model.Model
	r.Status = model.Status
	r.LastServiceDate = formatOptionalDate(model.LastServiceDate)
	r.NextServiceDate = formatOptionalDate(model.NextServiceDate)
	r.Metadata.FromModel(model.Metadata)
}

type GetVehiclesResponse struct {
	Vehicles  []VehicleResponse `json:"vehicles"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetVehiclesResponse) FromModels(models []model.Vehicle, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Vehicles = make([]VehicleResponse, len(models))
	for i, mod := range models {
		r.Vehicles[i].FromModel(mod)
	}
}

// MaintenanceEntry is one row of the maintenance schedule view.
type MaintenanceEntry struct {
	VehicleID       int64  `json:"vehicle_id"`
	Name            string `json:"name"`
	PlateNumber     string `json:"plate_number"`
	LastServiceDate string `json:"last_service_date,omitempty"`
	NextServiceDate string `json:"next_service_date,omitempty"`
}

func (e *MaintenanceEntry) FromModel(model model.Vehicle) {
	e.VehicleID = model.ID
	e.Name = model.Name
	e.PlateNumber = model.PlateNumber
	e.LastServiceDate = formatOptionalDate(model.LastServiceDate)
	e.NextServiceDate = formatOptionalDate(model.NextServiceDate)
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	date, err := timezone.ParseDate(value)
	if err != nil {
		return nil, err
	}

	return &date, nil
}

func formatOptionalDate(value *time.Time) string {
	if value == nil {
		return constant.Empty
	}

	return timezone.FormatDate(*value)
}
