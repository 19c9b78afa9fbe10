package dto

import (
	"fleet/internal/domains/expense/model"
	"fleet/shared"
	gDto "fleet/shared/dto"
	gModel "fleet/shared/model"
	"fleet/shared/timezone"
)

type CreateExpenseRequest struct {
	VehicleID   int64   `json:"vehicle_id"  validate:"required"`
	Date        string  `json:"date"        validate:"omitempty,dateonly"`
	Description string  `json:"description" validate:"required,max=200"`
	Amount      float64 `json:"amount"      validate:"gte=0"`
	Type        string  `json:"type"        validate:"required,oneof=Fuel Maintenance Other"`
}

func (c *CreateExpenseRequest) ToModel(owner string, id int64) (model.Expense, error) {
	date := timezone.Today()

	if c.Date != "" {
		parsed, err := timezone.ParseDate(c.Date)
		if err != nil {
			return model.Expense{}, err
		}

		date = parsed
	}

	return model.Expense{
		ID:          id,
		Owner:       owner,
		VehicleID:   c.VehicleID,
		Date:        date,
		Description: c.Description,
		Amount:      c.Amount,
		Type:        c.Type,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  owner,
			ModifiedBy: owner,
		},
	}, nil
}

type ExpenseResponse struct {
	ID          int64   `json:"id"`
	VehicleID   int64   `json:"vehicle_id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	gDto.Metadata
}

func (r *ExpenseResponse) FromModel(expense model.Expense) {
	r.ID = expense.ID
	r.VehicleID = expense.VehicleID
	r.Date = timezone.FormatDate(expense.Date)
	r.Description = expense.Description
	r.Amount = expense.Amount
	r.Type = expense.Type
	r.Metadata.FromModel(expense.Metadata)
}

type GetExpensesResponse struct {
	Expenses  []ExpenseResponse `json:"expenses"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetExpensesResponse) FromModels(models []model.Expense, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Expenses = make([]ExpenseResponse, len(models))
	for i, mod := range models {
		r.Expenses[i].FromModel(mod)
	}
}
