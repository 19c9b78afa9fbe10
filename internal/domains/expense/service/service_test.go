package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fleet/config"
	"fleet/infras/otel/mocks"
	expenseMocks "fleet/internal/domains/expense/mocks"
	"fleet/internal/domains/expense/model"
	"fleet/internal/domains/expense/model/dto"
	"fleet/internal/domains/expense/service"
	vehicleMocks "fleet/internal/domains/vehicle/mocks"
	cacheMocks "fleet/shared/cache/mocks"
	"fleet/shared/constant"
	"fleet/shared/failure"
	"fleet/shared/lock"
	"fleet/shared/timezone"
)

type expenseServiceFixture struct {
	repo        *expenseMocks.MockExpense
	vehicleRepo *vehicleMocks.MockVehicle
	cache       *cacheMocks.MockRedisCache
	svc         service.Expense
}

func newExpenseServiceFixture(t *testing.T) expenseServiceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := expenseMocks.NewMockExpense(ctrl)
	mockVehicleRepo := vehicleMocks.NewMockVehicle(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockVehicleRepo, cfg, mockCache, mockOtel, lock.NewKeyedMutex())

	return expenseServiceFixture{
		repo:        mockRepo,
		vehicleRepo: mockVehicleRepo,
		cache:       mockCache,
		svc:         svc,
	}
}

func ownerContext(owner string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyOwner, owner)
}

func TestExpenseService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateExpenseRequest
		setupMock func(f expenseServiceFixture)
		wantErr   bool
		wantCode  int
		wantDate  string
	}{
		{
			name: "successful creation",
			req: dto.CreateExpenseRequest{
				VehicleID:   1,
				Date:        "2026-08-20",
				Description: "Full tank",
				Amount:      45.5,
				Type:        model.TypeFuel,
			},
			setupMock: func(f expenseServiceFixture) {
				f.vehicleRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
				f.repo.EXPECT().
					NextID(gomock.Any(), gomock.Any()).
					Return(int64(1), nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantDate: "2026-08-20",
		},
		{
			name: "omitted date defaults to today",
			req: dto.CreateExpenseRequest{
				VehicleID:   1,
				Description: "Oil change",
				Amount:      30,
				Type:        model.TypeMaintenance,
			},
			setupMock: func(f expenseServiceFixture) {
				f.vehicleRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
				f.repo.EXPECT().
					NextID(gomock.Any(), gomock.Any()).
					Return(int64(2), nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantDate: timezone.FormatDate(timezone.Today()),
		},
		{
			name: "vehicle not found",
			req: dto.CreateExpenseRequest{
				VehicleID:   99,
				Description: "Full tank",
				Amount:      45.5,
				Type:        model.TypeFuel,
			},
			setupMock: func(f expenseServiceFixture) {
				f.vehicleRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExpenseServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Create(ownerContext("owner-1"), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.req.Type, res.Type)
			assert.Equal(t, tt.wantDate, res.Date)
		})
	}
}

func TestExpenseService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f expenseServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful deletion",
			setupMock: func(f expenseServiceFixture) {
				f.repo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
				f.repo.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "expense not found",
			setupMock: func(f expenseServiceFixture) {
				f.repo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExpenseServiceFixture(t)
			tt.setupMock(f)

			err := f.svc.Delete(ownerContext("owner-1"), 1)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpenseService_Get(t *testing.T) {
	f := newExpenseServiceFixture(t)

	date, err := timezone.ParseDate("2026-08-20")
	if err != nil {
		t.Fatalf("failed to parse date: %v", err)
	}

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(model.Expense{ID: 1, Owner: "owner-1", VehicleID: 1, Date: date, Amount: 45.5, Type: model.TypeFuel}, nil)
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	res, err := f.svc.Get(ownerContext("owner-1"), 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), res.ID)
	assert.Equal(t, 45.5, res.Amount)
}
