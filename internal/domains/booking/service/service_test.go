package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fleet/config"
	kafkaMocks "fleet/infras/kafka/mocks"
	"fleet/infras/otel/mocks"
	bookingMocks "fleet/internal/domains/booking/mocks"
	"fleet/internal/domains/booking/model"
	"fleet/internal/domains/booking/model/dto"
	"fleet/internal/domains/booking/service"
	vehicleMocks "fleet/internal/domains/vehicle/mocks"
	vehicleModel "fleet/internal/domains/vehicle/model"
	cacheMocks "fleet/shared/cache/mocks"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	"fleet/shared/lock"
	"fleet/shared/timezone"
)

type bookingServiceFixture struct {
	repo        *bookingMocks.MockBooking
	vehicleRepo *vehicleMocks.MockVehicle
	cache       *cacheMocks.MockRedisCache
	kafka       *kafkaMocks.MockClient
	svc         service.Booking
}

func newBookingServiceFixture(t *testing.T) bookingServiceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockVehicleRepo := vehicleMocks.NewMockVehicle(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Kafka.Topics.BookingEvents = "booking-events"

	svc := service.New(mockRepo, mockVehicleRepo, cfg, mockCache, mockOtel, mockKafka, lock.NewKeyedMutex())

	return bookingServiceFixture{
		repo:        mockRepo,
		vehicleRepo: mockVehicleRepo,
		cache:       mockCache,
		kafka:       mockKafka,
		svc:         svc,
	}
}

func ownerContext(owner string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyOwner, owner)
}

func dateOf(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := timezone.ParseDate(value)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", value, err)
	}

	return parsed
}

func bookingOn(t *testing.T, id int64, vehicleID int64, start, end, status string) model.Booking {
	t.Helper()

	startDate, err := timezone.ParseDate(start)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", start, err)
	}

	endDate, err := timezone.ParseDate(end)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", end, err)
	}

	return model.Booking{
		ID:         id,
		Owner:      "owner-1",
		VehicleID:  vehicleID,
		ClientName: "Client",
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     status,
	}
}

func TestBookingService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func(f bookingServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful creation",
			req: dto.CreateBookingRequest{
				VehicleID:  1,
				ClientName: "Budi",
				AmountPaid: 500,
				StartDate:  "2026-09-01",
				EndDate:    "2026-09-03",
			},
			setupMock: func(f bookingServiceFixture) {
				f.vehicleRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(vehicleModel.Vehicle{ID: 1, Owner: "owner-1", Status: vehicleModel.StatusAvailable}, nil)
				f.repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{}, nil)
				f.repo.EXPECT().
					NextID(gomock.Any(), gomock.Any()).
					Return(int64(1), nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
				f.vehicleRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
				f.kafka.EXPECT().
					SendMessages(gomock.Any(), "booking-events", gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "overlapping dates are rejected with conflict details",
			req: dto.CreateBookingRequest{
				VehicleID:  1,
				ClientName: "Budi",
				StartDate:  "2026-09-03",
				EndDate:    "2026-09-05",
			},
			setupMock: func(f bookingServiceFixture) {
				f.vehicleRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(vehicleModel.Vehicle{ID: 1, Owner: "owner-1", Status: vehicleModel.StatusBooked}, nil)
				f.repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{bookingOn(t, 7, 1, "2026-09-01", "2026-09-03", model.StatusBooked)}, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "allow_overlap bypasses the conflict check",
			req: dto.CreateBookingRequest{
				VehicleID:    1,
				ClientName:   "Budi",
				StartDate:    "2026-09-03",
				EndDate:      "2026-09-05",
				AllowOverlap: true,
			},
			setupMock: func(f bookingServiceFixture) {
				f.vehicleRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(vehicleModel.Vehicle{ID: 1, Owner: "owner-1", Status: vehicleModel.StatusMaintenance}, nil)
				f.repo.EXPECT().
					NextID(gomock.Any(), gomock.Any()).
					Return(int64(2), nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
				f.vehicleRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
				f.kafka.EXPECT().
					SendMessages(gomock.Any(), "booking-events", gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "end date before start date",
			req: dto.CreateBookingRequest{
				VehicleID:  1,
				ClientName: "Budi",
				StartDate:  "2026-09-05",
				EndDate:    "2026-09-01",
			},
			setupMock: func(f bookingServiceFixture) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name: "vehicle not found",
			req: dto.CreateBookingRequest{
				VehicleID:  99,
				ClientName: "Budi",
				StartDate:  "2026-09-01",
				EndDate:    "2026-09-03",
			},
			setupMock: func(f bookingServiceFixture) {
				f.vehicleRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(vehicleModel.Vehicle{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name: "vehicle under maintenance",
			req: dto.CreateBookingRequest{
				VehicleID:  1,
				ClientName: "Budi",
				StartDate:  "2026-09-01",
				EndDate:    "2026-09-03",
			},
			setupMock: func(f bookingServiceFixture) {
				f.vehicleRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(vehicleModel.Vehicle{ID: 1, Owner: "owner-1", Status: vehicleModel.StatusMaintenance}, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Create(ownerContext("owner-1"), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, model.StatusBooked, res.Status)
			assert.Equal(t, tt.req.ClientName, res.ClientName)
		})
	}
}

func TestBookingService_Create_BoundaryTouchConflicts(t *testing.T) {
	f := newBookingServiceFixture(t)

	// Day ranges are inclusive: an existing booking ending on the requested
	// start day already occupies that day.
	f.vehicleRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(vehicleModel.Vehicle{ID: 1, Owner: "owner-1", Status: vehicleModel.StatusBooked}, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{bookingOn(t, 3, 1, "2026-09-01", "2026-09-03", model.StatusBooked)}, nil)

	_, err := f.svc.Create(ownerContext("owner-1"), dto.CreateBookingRequest{
		VehicleID:  1,
		ClientName: "Budi",
		StartDate:  "2026-09-03",
		EndDate:    "2026-09-06",
	})

	assert.Error(t, err)
	assert.Equal(t, 409, failure.GetCode(err))

	conflicts, ok := failure.GetDetails(err).([]dto.Conflict)
	assert.True(t, ok)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, int64(3), conflicts[0].BookingID)
}

func TestBookingService_Create_Unauthorized(t *testing.T) {
	f := newBookingServiceFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateBookingRequest{
		VehicleID:  1,
		ClientName: "Budi",
		StartDate:  "2026-09-01",
		EndDate:    "2026-09-03",
	})

	assert.Error(t, err)
	assert.Equal(t, 401, failure.GetCode(err))
}

func TestBookingService_Complete(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f bookingServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "other active bookings keep the vehicle booked",
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked), nil)
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
				f.repo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
				f.kafka.EXPECT().
					SendMessages(gomock.Any(), "booking-events", gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "last active booking frees the vehicle",
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked), nil)
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
				f.repo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
				f.vehicleRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, vehicleModel.StatusAvailable, fields[vehicleModel.FieldStatus])

						return nil
					})
				f.kafka.EXPECT().
					SendMessages(gomock.Any(), "booking-events", gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "completing a completed booking is invalid",
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusCompleted), nil)
			},
			wantErr:  true,
			wantCode: 422,
		},
		{
			name: "completing a cancelled booking is invalid",
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusCancelled), nil)
			},
			wantErr:  true,
			wantCode: 422,
		},
		{
			name: "booking not found",
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f)

			err := f.svc.Complete(ownerContext("owner-1"), 1)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_Cancel(t *testing.T) {
	f := newBookingServiceFixture(t)

	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked), nil)
	f.repo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
			assert.Equal(t, model.StatusCancelled, fields[model.FieldStatus])

			return nil
		})
	f.repo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(false, nil)
	f.vehicleRepo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	f.kafka.EXPECT().
		SendMessages(gomock.Any(), "booking-events", gomock.Any()).
		Return(nil)
	f.cache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	assert.NoError(t, f.svc.Cancel(ownerContext("owner-1"), 1))
}

func TestBookingService_Update(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.UpdateBookingRequest
		setupMock func(f bookingServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful update",
			req:  dto.UpdateBookingRequest{ClientName: "Siti"},
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked), nil)
				f.repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{}, nil)
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name:      "empty update request",
			req:       dto.UpdateBookingRequest{},
			setupMock: func(f bookingServiceFixture) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name: "updating a terminal booking is invalid",
			req:  dto.UpdateBookingRequest{ClientName: "Siti"},
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusCompleted), nil)
			},
			wantErr:  true,
			wantCode: 422,
		},
		{
			name: "moved dates must not collide with other bookings",
			req:  dto.UpdateBookingRequest{StartDate: "2026-09-04", EndDate: "2026-09-06"},
			setupMock: func(f bookingServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked), nil)
				f.repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{
						bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked),
						bookingOn(t, 2, 1, "2026-09-05", "2026-09-08", model.StatusBooked),
					}, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f)

			err := f.svc.Update(ownerContext("owner-1"), tt.req, 1)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_CheckOverlap(t *testing.T) {
	f := newBookingServiceFixture(t)

	f.vehicleRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{
			bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked),
			bookingOn(t, 2, 1, "2026-09-10", "2026-09-12", model.StatusBooked),
		}, nil)

	// Booking 1 is excluded, booking 2 does not touch the range.
	res, err := f.svc.CheckOverlap(ownerContext("owner-1"), 1, "2026-09-02", "2026-09-04", 1)

	assert.NoError(t, err)
	assert.False(t, res.Overlaps)
	assert.Empty(t, res.Conflicts)
}

func TestBookingService_CheckOverlap_ReportsConflicts(t *testing.T) {
	f := newBookingServiceFixture(t)

	f.vehicleRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked)}, nil)

	res, err := f.svc.CheckOverlap(ownerContext("owner-1"), 1, "2026-09-02", "2026-09-04", 0)

	assert.NoError(t, err)
	assert.True(t, res.Overlaps)
	assert.Len(t, res.Conflicts, 1)
}

func TestBookingService_Availability(t *testing.T) {
	f := newBookingServiceFixture(t)

	reference := dateOf(t, "2026-09-10")

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.vehicleRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
			assert.Equal(t, model.FieldStartDate, params.SortBy)

			// The last filter bounds the query to bookings that are not
			// fully in the past.
			last, ok := filter.Filters[len(filter.Filters)-1].(gDto.Filter)
			assert.True(t, ok)
			assert.Equal(t, model.FieldEndDate, last.Field)
			assert.Equal(t, gDto.FilterOperatorGreaterEq, last.Operator)
			assert.Equal(t, reference, last.Value)

			return []model.Booking{bookingOn(t, 4, 1, "2026-09-11", "2026-09-13", model.StatusBooked)}, nil
		})
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	res, err := f.svc.Availability(ownerContext("owner-1"), 1, "2026-09-10")

	assert.NoError(t, err)
	assert.Equal(t, dto.AvailabilityPartiallyBooked, res.Status)
	assert.Len(t, res.Occupied, 1)
	assert.Equal(t, int64(4), res.Occupied[0].BookingID)
}

func TestBookingService_Availability_NoActiveBookings(t *testing.T) {
	f := newBookingServiceFixture(t)

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.vehicleRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{}, nil)
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	res, err := f.svc.Availability(ownerContext("owner-1"), 1, "2026-09-10")

	assert.NoError(t, err)
	assert.Equal(t, dto.AvailabilityAvailable, res.Status)
	assert.Empty(t, res.Occupied)
}

func TestBookingService_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f bookingServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful get",
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked), nil)
				f.cache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "booking not found",
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Get(ownerContext("owner-1"), 1)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, int64(1), res.ID)
		})
	}
}

func TestBookingService_GetAll(t *testing.T) {
	f := newBookingServiceFixture(t)

	params := gDto.QueryParams{Page: 1, Limit: 10}

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss")).
		Times(2)
	f.repo.EXPECT().
		Count(gomock.Any(), gomock.Any()).
		Return(1, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), params, gomock.Any()).
		Return([]model.Booking{bookingOn(t, 1, 1, "2026-09-01", "2026-09-03", model.StatusBooked)}, nil)
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		Times(2)

	res, err := f.svc.GetAll(ownerContext("owner-1"), params, gDto.FilterGroup{})

	assert.NoError(t, err)
	assert.Len(t, res.Bookings, 1)
	assert.Equal(t, 1, res.TotalData)
	assert.Equal(t, 1, res.TotalPage)
}
