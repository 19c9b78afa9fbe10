package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fleet/config"
	"fleet/infras/otel/mocks"
	bookingMocks "fleet/internal/domains/booking/mocks"
	vehicleMocks "fleet/internal/domains/vehicle/mocks"
	"fleet/internal/domains/vehicle/model"
	"fleet/internal/domains/vehicle/model/dto"
	"fleet/internal/domains/vehicle/service"
	cacheMocks "fleet/shared/cache/mocks"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	"fleet/shared/lock"
	"fleet/shared/timezone"
)

type vehicleServiceFixture struct {
	repo        *vehicleMocks.MockVehicle
	bookingRepo *bookingMocks.MockBooking
	cache       *cacheMocks.MockRedisCache
	svc         service.Vehicle
}

func newVehicleServiceFixture(t *testing.T) vehicleServiceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := vehicleMocks.NewMockVehicle(ctrl)
	mockBookingRepo := bookingMocks.NewMockBooking(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockBookingRepo, cfg, mockCache, mockOtel, lock.NewKeyedMutex())

	return vehicleServiceFixture{
		repo:        mockRepo,
		bookingRepo: mockBookingRepo,
		cache:       mockCache,
		svc:         svc,
	}
}

func ownerContext(owner string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyOwner, owner)
}

func TestVehicleService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateVehicleRequest
		setupMock func(f vehicleServiceFixture)
		wantErr   bool
	}{
		{
			name: "successful creation",
			req: dto.CreateVehicleRequest{
				Name:        "Avanza",
				PlateNumber: "B 1234 XYZ",
				Model:       "Toyota Avanza 2023",
			},
			setupMock: func(f vehicleServiceFixture) {
				f.repo.EXPECT().
					NextID(gomock.Any(), gomock.Any()).
					Return(int64(1), nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, vehicle model.Vehicle) error {
						assert.Equal(t, int64(1), vehicle.ID)
						assert.Equal(t, model.StatusAvailable, vehicle.Status)
						assert.NotNil(t, vehicle.LastServiceDate)

						return nil
					})
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "repository error",
			req: dto.CreateVehicleRequest{
				Name:        "Avanza",
				PlateNumber: "B 1234 XYZ",
				Model:       "Toyota Avanza 2023",
			},
			setupMock: func(f vehicleServiceFixture) {
				f.repo.EXPECT().
					NextID(gomock.Any(), gomock.Any()).
					Return(int64(0), errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVehicleServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Create(ownerContext("owner-1"), tt.req)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, model.StatusAvailable, res.Status)
			assert.Equal(t, tt.req.Name, res.Name)
		})
	}
}

func TestVehicleService_Update(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.UpdateVehicleRequest
		setupMock func(f vehicleServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful rename",
			req:  dto.UpdateVehicleRequest{Name: "Avanza Baru"},
			setupMock: func(f vehicleServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Vehicle{ID: 1, Owner: "owner-1", Status: model.StatusAvailable}, nil)
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
			name: "manual move to maintenance",
			req:  dto.UpdateVehicleRequest{Status: model.StatusMaintenance},
			setupMock: func(f vehicleServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Vehicle{ID: 1, Owner: "owner-1", Status: model.StatusAvailable}, nil)
				f.bookingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, model.StatusMaintenance, fields[model.FieldStatus])

						return nil
					})
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "status change rejected while bookings are active",
			req:  dto.UpdateVehicleRequest{Status: model.StatusMaintenance},
			setupMock: func(f vehicleServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Vehicle{ID: 1, Owner: "owner-1", Status: model.StatusBooked}, nil)
				f.bookingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name:      "empty update request",
			req:       dto.UpdateVehicleRequest{},
			setupMock: func(f vehicleServiceFixture) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name: "vehicle not found",
			req:  dto.UpdateVehicleRequest{Name: "Avanza Baru"},
			setupMock: func(f vehicleServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Vehicle{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVehicleServiceFixture(t)
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

func TestVehicleService_Get(t *testing.T) {
	f := newVehicleServiceFixture(t)

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(model.Vehicle{ID: 1, Owner: "owner-1", Name: "Avanza", Status: model.StatusAvailable}, nil)
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	res, err := f.svc.Get(ownerContext("owner-1"), 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), res.ID)
	assert.Equal(t, "Avanza", res.Name)
}

func TestVehicleService_Get_NotFound(t *testing.T) {
	f := newVehicleServiceFixture(t)

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(model.Vehicle{}, nil)

	_, err := f.svc.Get(ownerContext("owner-1"), 99)

	assert.Error(t, err)
	assert.Equal(t, 404, failure.GetCode(err))
}

func TestVehicleService_MaintenanceSchedule(t *testing.T) {
	f := newVehicleServiceFixture(t)

	next, err := timezone.ParseDate("2026-10-01")
	if err != nil {
		t.Fatalf("failed to parse date: %v", err)
	}

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Vehicle, error) {
			assert.Equal(t, model.FieldNextServiceDate, params.SortBy)

			return []model.Vehicle{
				{ID: 1, Owner: "owner-1", Name: "Avanza", PlateNumber: "B 1234 XYZ", NextServiceDate: &next},
			}, nil
		})
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	res, err := f.svc.MaintenanceSchedule(ownerContext("owner-1"))

	assert.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, "2026-10-01", res[0].NextServiceDate)
}
