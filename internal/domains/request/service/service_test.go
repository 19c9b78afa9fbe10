package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fleet/config"
	"fleet/infras/otel/mocks"
	bookingDto "fleet/internal/domains/booking/model/dto"
	bookingServiceMocks "fleet/internal/domains/booking/service/mocks"
	requestMocks "fleet/internal/domains/request/mocks"
	"fleet/internal/domains/request/model"
	"fleet/internal/domains/request/model/dto"
	"fleet/internal/domains/request/service"
	vehicleMocks "fleet/internal/domains/vehicle/mocks"
	cacheMocks "fleet/shared/cache/mocks"
	"fleet/shared/constant"
	"fleet/shared/failure"
	"fleet/shared/lock"
	"fleet/shared/timezone"
)

type requestServiceFixture struct {
	repo        *requestMocks.MockRequest
	vehicleRepo *vehicleMocks.MockVehicle
	booking     *bookingServiceMocks.MockBooking
	cache       *cacheMocks.MockRedisCache
	svc         service.Request
}

func newRequestServiceFixture(t *testing.T) requestServiceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := requestMocks.NewMockRequest(ctrl)
	mockVehicleRepo := vehicleMocks.NewMockVehicle(ctrl)
	mockBooking := bookingServiceMocks.NewMockBooking(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockVehicleRepo, mockBooking, cfg, mockCache, mockOtel, lock.NewKeyedMutex())

	return requestServiceFixture{
		repo:        mockRepo,
		vehicleRepo: mockVehicleRepo,
		booking:     mockBooking,
		cache:       mockCache,
		svc:         svc,
	}
}

func ownerContext(owner string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyOwner, owner)
}

func pendingRequest(t *testing.T, id string) model.Request {
	t.Helper()

	start, err := timezone.ParseDate("2026-09-01")
	if err != nil {
		t.Fatalf("failed to parse date: %v", err)
	}

	end, err := timezone.ParseDate("2026-09-03")
	if err != nil {
		t.Fatalf("failed to parse date: %v", err)
	}

	return model.Request{
		ID:          id,
		Owner:       "owner-1",
		VehicleID:   1,
		ClientName:  "Budi",
		ClientEmail: "budi@example.com",
		StartDate:   start,
		EndDate:     end,
		Status:      model.StatusPending,
	}
}

func TestRequestService_Submit(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		req       dto.SubmitRequestRequest
		setupMock func(f requestServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name:  "successful submission",
			owner: "owner-1",
			req: dto.SubmitRequestRequest{
				VehicleID:   1,
				ClientName:  "Budi",
				ClientEmail: "budi@example.com",
				StartDate:   "2026-09-01",
				EndDate:     "2026-09-03",
			},
			setupMock: func(f requestServiceFixture) {
				f.vehicleRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name:  "vehicle not found",
			owner: "owner-1",
			req: dto.SubmitRequestRequest{
				VehicleID:   99,
				ClientName:  "Budi",
				ClientEmail: "budi@example.com",
				StartDate:   "2026-09-01",
				EndDate:     "2026-09-03",
			},
			setupMock: func(f requestServiceFixture) {
				f.vehicleRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name:  "missing owner",
			owner: "",
			req: dto.SubmitRequestRequest{
				VehicleID:   1,
				ClientName:  "Budi",
				ClientEmail: "budi@example.com",
				StartDate:   "2026-09-01",
				EndDate:     "2026-09-03",
			},
			setupMock: func(f requestServiceFixture) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name:  "end date before start date",
			owner: "owner-1",
			req: dto.SubmitRequestRequest{
				VehicleID:   1,
				ClientName:  "Budi",
				ClientEmail: "budi@example.com",
				StartDate:   "2026-09-03",
				EndDate:     "2026-09-01",
			},
			setupMock: func(f requestServiceFixture) {},
			wantErr:   true,
			wantCode:  400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Submit(context.Background(), tt.owner, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, res.ID)
			assert.Equal(t, model.StatusPending, res.Status)
		})
	}
}

func TestRequestService_Approve(t *testing.T) {
	const requestID = "8a2f2c1e-1111-2222-3333-444455556666"

	tests := []struct {
		name      string
		req       dto.ApproveRequestRequest
		setupMock func(f requestServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful approval creates a booking",
			req:  dto.ApproveRequestRequest{AmountPaid: 750},
			setupMock: func(f requestServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest(t, requestID), nil)
				f.booking.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req bookingDto.CreateBookingRequest) (bookingDto.BookingResponse, error) {
						assert.Equal(t, int64(1), req.VehicleID)
						assert.Equal(t, "Budi", req.ClientName)
						assert.Equal(t, 750.0, req.AmountPaid)
						assert.Equal(t, "2026-09-01", req.StartDate)
						assert.Equal(t, "2026-09-03", req.EndDate)

						return bookingDto.BookingResponse{ID: 1}, nil
					})
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, model.StatusApproved, fields[model.FieldStatus])

						return nil
					})
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "booking conflict leaves the request pending",
			req:  dto.ApproveRequestRequest{},
			setupMock: func(f requestServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest(t, requestID), nil)
				f.booking.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(bookingDto.BookingResponse{}, failure.ConflictWithDetails("vehicle is already booked for the requested dates", []bookingDto.Conflict{{BookingID: 7}}))
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "approving an approved request is invalid",
			req:  dto.ApproveRequestRequest{},
			setupMock: func(f requestServiceFixture) {
				request := pendingRequest(t, requestID)
				request.Status = model.StatusApproved

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(request, nil)
			},
			wantErr:  true,
			wantCode: 422,
		},
		{
			name: "request not found",
			req:  dto.ApproveRequestRequest{},
			setupMock: func(f requestServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Request{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestServiceFixture(t)
			tt.setupMock(f)

			err := f.svc.Approve(ownerContext("owner-1"), requestID, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestService_Approve_OverridesRequestedDates(t *testing.T) {
	const requestID = "8a2f2c1e-1111-2222-3333-444455556666"

	f := newRequestServiceFixture(t)

	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pendingRequest(t, requestID), nil)
	f.booking.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req bookingDto.CreateBookingRequest) (bookingDto.BookingResponse, error) {
			assert.Equal(t, "2026-09-10", req.StartDate)
			assert.Equal(t, "2026-09-12", req.EndDate)
			assert.True(t, req.AllowOverlap)

			return bookingDto.BookingResponse{ID: 1}, nil
		})
	f.repo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	f.cache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	err := f.svc.Approve(ownerContext("owner-1"), requestID, dto.ApproveRequestRequest{
		StartDate:    "2026-09-10",
		EndDate:      "2026-09-12",
		AllowOverlap: true,
	})

	assert.NoError(t, err)
}

func TestRequestService_Approve_ConcurrentApprovalsBookOnce(t *testing.T) {
	const requestID = "8a2f2c1e-1111-2222-3333-444455556666"

	f := newRequestServiceFixture(t)

	// Approvals of the same request are serialized, so the second reads
	// the already-decided row and must not reach the booking engine.
	approved := pendingRequest(t, requestID)
	approved.Status = model.StatusApproved

	first := f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pendingRequest(t, requestID), nil)
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(approved, nil).
		After(first)

	f.booking.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(bookingDto.BookingResponse{ID: 1}, nil)
	f.repo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	f.cache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	results := make(chan error, 2)

	var wg sync.WaitGroup

	for range 2 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results <- f.svc.Approve(ownerContext("owner-1"), requestID, dto.ApproveRequestRequest{})
		}()
	}

	wg.Wait()
	close(results)

	failed := make([]error, 0)

	for err := range results {
		if err != nil {
			failed = append(failed, err)
		}
	}

	assert.Len(t, failed, 1)
	assert.Equal(t, 422, failure.GetCode(failed[0]))
}

func TestRequestService_Reject(t *testing.T) {
	const requestID = "8a2f2c1e-1111-2222-3333-444455556666"

	tests := []struct {
		name      string
		setupMock func(f requestServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful rejection",
			setupMock: func(f requestServiceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest(t, requestID), nil)
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, model.StatusRejected, fields[model.FieldStatus])

						return nil
					})
				f.cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "rejecting a rejected request is invalid",
			setupMock: func(f requestServiceFixture) {
				request := pendingRequest(t, requestID)
				request.Status = model.StatusRejected

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(request, nil)
			},
			wantErr:  true,
			wantCode: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestServiceFixture(t)
			tt.setupMock(f)

			err := f.svc.Reject(ownerContext("owner-1"), requestID)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestService_Get(t *testing.T) {
	const requestID = "8a2f2c1e-1111-2222-3333-444455556666"

	f := newRequestServiceFixture(t)

	f.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(pendingRequest(t, requestID), nil)
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	res, err := f.svc.Get(ownerContext("owner-1"), requestID)

	assert.NoError(t, err)
	assert.Equal(t, requestID, res.ID)
	assert.Equal(t, model.StatusPending, res.Status)
}
