package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fleet/config"
	"fleet/infras/otel/mocks"
	s3Mocks "fleet/infras/s3/mocks"
	bookingMocks "fleet/internal/domains/booking/mocks"
	bookingModel "fleet/internal/domains/booking/model"
	expenseMocks "fleet/internal/domains/expense/mocks"
	expenseModel "fleet/internal/domains/expense/model"
	"fleet/internal/domains/report/model/dto"
	"fleet/internal/domains/report/service"
	requestMocks "fleet/internal/domains/request/mocks"
	requestModel "fleet/internal/domains/request/model"
	vehicleMocks "fleet/internal/domains/vehicle/mocks"
	vehicleModel "fleet/internal/domains/vehicle/model"
	cacheMocks "fleet/shared/cache/mocks"
	"fleet/shared/constant"
	"fleet/shared/failure"
	"fleet/shared/lock"
)

type reportServiceFixture struct {
	vehicleRepo *vehicleMocks.MockVehicle
	bookingRepo *bookingMocks.MockBooking
	expenseRepo *expenseMocks.MockExpense
	requestRepo *requestMocks.MockRequest
	cache       *cacheMocks.MockRedisCache
	s3          *s3Mocks.MockS3
	cfg         *config.Config
	svc         service.Report
}

func newReportServiceFixture(t *testing.T) reportServiceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockVehicleRepo := vehicleMocks.NewMockVehicle(ctrl)
	mockBookingRepo := bookingMocks.NewMockBooking(ctrl)
	mockExpenseRepo := expenseMocks.NewMockExpense(ctrl)
	mockRequestRepo := requestMocks.NewMockRequest(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockVehicleRepo, mockBookingRepo, mockExpenseRepo, mockRequestRepo, cfg, mockCache, mockOtel, mockS3, lock.NewKeyedMutex())

	return reportServiceFixture{
		vehicleRepo: mockVehicleRepo,
		bookingRepo: mockBookingRepo,
		expenseRepo: mockExpenseRepo,
		requestRepo: mockRequestRepo,
		cache:       mockCache,
		s3:          mockS3,
		cfg:         cfg,
		svc:         svc,
	}
}

func ownerContext(owner string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyOwner, owner)
}

func TestReportService_Summary(t *testing.T) {
	f := newReportServiceFixture(t)

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.bookingRepo.EXPECT().
		SumColumn(gomock.Any(), bookingModel.FieldAmountPaid, gomock.Any()).
		Return(1500.0, nil)
	f.expenseRepo.EXPECT().
		SumColumn(gomock.Any(), expenseModel.FieldAmount, gomock.Any()).
		Return(400.0, nil)
	f.bookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]bookingModel.Booking{{ID: 9, Owner: "owner-1", Status: bookingModel.StatusCompleted}}, nil)
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	res, err := f.svc.Summary(ownerContext("owner-1"))

	assert.NoError(t, err)
	assert.Equal(t, 1500.0, res.TotalIncome)
	assert.Equal(t, 400.0, res.TotalExpenses)
	assert.Equal(t, 1100.0, res.Profit)
	assert.Len(t, res.RecentBookings, 1)
	assert.Equal(t, int64(9), res.RecentBookings[0].ID)
}

func TestReportService_Summary_Unauthorized(t *testing.T) {
	f := newReportServiceFixture(t)

	_, err := f.svc.Summary(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 401, failure.GetCode(err))
}

func TestReportService_Export(t *testing.T) {
	f := newReportServiceFixture(t)

	f.vehicleRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vehicleModel.Vehicle{{ID: 1, Owner: "owner-1"}}, nil)
	f.bookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]bookingModel.Booking{{ID: 1, Owner: "owner-1"}}, nil)
	f.expenseRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]expenseModel.Expense{}, nil)
	f.requestRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]requestModel.Request{}, nil)

	res, err := f.svc.Export(ownerContext("owner-1"))

	assert.NoError(t, err)
	assert.Equal(t, "owner-1", res.Snapshot.Owner)
	assert.Len(t, res.Snapshot.Vehicles, 1)
	assert.Len(t, res.Snapshot.Bookings, 1)
	assert.Empty(t, res.S3URL)
}

func TestReportService_Export_UploadsToS3(t *testing.T) {
	f := newReportServiceFixture(t)

	f.cfg.Backup.UploadToS3 = true
	f.cfg.External.S3.BucketName = "fleet-backups"

	f.vehicleRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vehicleModel.Vehicle{}, nil)
	f.bookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]bookingModel.Booking{}, nil)
	f.expenseRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]expenseModel.Expense{}, nil)
	f.requestRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]requestModel.Request{}, nil)
	f.s3.EXPECT().
		UploadBytes(gomock.Any(), "fleet-backups", "backups", gomock.Any(), "application/json", gomock.Any()).
		Return("https://fleet-backups.example.com/backups/owner-1.json", nil)

	res, err := f.svc.Export(ownerContext("owner-1"))

	assert.NoError(t, err)
	assert.Equal(t, "https://fleet-backups.example.com/backups/owner-1.json", res.S3URL)
}

func TestReportService_Restore(t *testing.T) {
	f := newReportServiceFixture(t)

	snapshot := dto.Snapshot{
		Owner:    "owner-1",
		Vehicles: []vehicleModel.Vehicle{{ID: 1, Owner: "owner-1"}},
		Bookings: []bookingModel.Booking{{ID: 1, Owner: "owner-1", VehicleID: 1}},
	}

	f.vehicleRepo.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		Return(nil)
	f.bookingRepo.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		Return(nil)
	f.expenseRepo.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		Return(nil)
	f.requestRepo.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		Return(nil)
	f.vehicleRepo.EXPECT().
		InsertBulk(gomock.Any(), snapshot.Vehicles).
		Return(nil)
	f.bookingRepo.EXPECT().
		InsertBulk(gomock.Any(), snapshot.Bookings).
		Return(nil)
	f.cache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	assert.NoError(t, f.svc.Restore(ownerContext("owner-1"), snapshot))
}

func TestReportService_Restore_RejectsForeignRows(t *testing.T) {
	f := newReportServiceFixture(t)

	snapshot := dto.Snapshot{
		Owner:    "owner-1",
		Bookings: []bookingModel.Booking{{ID: 1, Owner: "owner-2", VehicleID: 1}},
	}

	err := f.svc.Restore(ownerContext("owner-1"), snapshot)

	assert.Error(t, err)
	assert.Equal(t, 400, failure.GetCode(err))
}
