package dto

import (
	bookingModel "fleet/internal/domains/booking/model"
	bookingDto "fleet/internal/domains/booking/model/dto"
	expenseModel "fleet/internal/domains/expense/model"
	requestModel "fleet/internal/domains/request/model"
	vehicleModel "fleet/internal/domains/vehicle/model"
)

// SummaryResponse is the dashboard view: money in, money out, and the most
// recent bookings.
type SummaryResponse struct {
	TotalIncome    float64                      `json:"total_income"`
	TotalExpenses  float64                      `json:"total_expenses"`
	Profit         float64                      `json:"profit"`
	RecentBookings []bookingDto.BookingResponse `json:"recent_bookings"`
}

// Snapshot is a full dump of one owner's collections, used for backup
// export and restore. Rows keep their persisted shape so a restore is a
// plain bulk insert.
type Snapshot struct {
	Owner      string                 `json:"owner"`
	ExportedAt string                 `json:"exported_at"`
	Vehicles   []vehicleModel.Vehicle `json:"vehicles"`
	Bookings   []bookingModel.Booking `json:"bookings"`
	Expenses   []expenseModel.Expense `json:"expenses"`
	Requests   []requestModel.Request `json:"requests"`
}

// ExportResponse reports where the snapshot went.
type ExportResponse struct {
	Snapshot Snapshot `json:"snapshot"`
	S3URL    string   `json:"s3_url,omitempty"`
}
