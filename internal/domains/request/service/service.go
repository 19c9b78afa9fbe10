package service

import (
	"context"
	"fmt"

	"fleet/config"
	"fleet/infras/otel"
	bookingService "fleet/internal/domains/booking/service"
	"fleet/internal/domains/request/model"
	"fleet/internal/domains/request/model/dto"
	"fleet/internal/domains/request/repository"
	vehicleModel "fleet/internal/domains/vehicle/model"
	vehicleRepo "fleet/internal/domains/vehicle/repository"
	"fleet/shared"
	"fleet/shared/cache"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	"fleet/shared/lock"
	"fleet/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetRequest    = "request:get"
	cacheGetAllRequest = "request:gets"
	cacheCountRequest  = "request:count"
)

type Request interface {
	Submit(ctx context.Context, owner string, req dto.SubmitRequestRequest) (dto.RequestResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetRequestsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.RequestResponse, error)
	Approve(ctx context.Context, id string, req dto.ApproveRequestRequest) error
	Reject(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo        repository.Request
	vehicleRepo vehicleRepo.Vehicle
	booking     bookingService.Booking
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	locks       *lock.KeyedMutex
}

func New(repo repository.Request, vehicleRepo vehicleRepo.Vehicle, booking bookingService.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, locks *lock.KeyedMutex) Request {
	return &serviceImpl{
		repo:        repo,
		vehicleRepo: vehicleRepo,
		booking:     booking,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		locks:       locks,
	}
}

// Submit records a public booking request. The owner comes from the URL, not
// from an authenticated context, so it is validated against the vehicle row.
func (s *serviceImpl) Submit(ctx context.Context, owner string, req dto.SubmitRequestRequest) (res dto.RequestResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.Submit")
	defer scope.End()
	defer scope.TraceIfError(err)

	if owner == "" {
		return res, failure.BadRequestFromString("owner is required") //nolint:wrapcheck
	}

	start, err := timezone.ParseDate(req.StartDate)
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	end, err := timezone.ParseDate(req.EndDate)
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if end.Before(start) {
		return res, failure.BadRequestFromString("end_date must be on or after start_date") //nolint:wrapcheck
	}

	exists, err := s.vehicleRepo.Exist(ctx, shared.FilterByOwnerAndID(owner, req.VehicleID, vehicleModel.FieldID, vehicleModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if vehicle exists")

		return res, fmt.Errorf("failed to check if vehicle exists: %w", err)
	}

	if !exists {
		return res, failure.NotFound("vehicle not found") //nolint:wrapcheck
	}

	request, err := req.ToModel(owner)
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, request); err != nil {
		log.Error().Err(err).Msg("failed to submit booking request")

		return res, fmt.Errorf("failed to submit booking request: %w", err)
	}

	s.invalidate(ctx)

	res.FromModel(request)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetRequestsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllRequest, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count booking requests: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking requests")

		return res, fmt.Errorf("failed to get booking requests: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save booking requests to cache")
	}

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountRequest, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count booking requests")

		return res, fmt.Errorf("failed to count booking requests: %w", err)
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save booking request count to cache")
	}

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.RequestResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetRequest, owner, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	request, err := s.repo.Get(ctx, shared.FilterByOwnerAndKey(owner, id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking request")

		return res, fmt.Errorf("failed to get booking request: %w", err)
	}

	if request.ID == constant.Empty {
		return res, failure.NotFound("booking request not found") //nolint:wrapcheck
	}

	res.FromModel(request)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save booking request to cache")
	}

	return res, nil
}

// Approve turns a pending request into a booking through the full engine
// validation. A conflict leaves the request Pending so the owner can retry
// with different dates or allow_overlap.
func (s *serviceImpl) Approve(ctx context.Context, id string, req dto.ApproveRequestRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.Approve")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	// Decisions serialize on the request itself; the owner lock belongs to
	// the booking engine further down.
	unlock := s.locks.Lock(requestLockKey(id))
	defer unlock()

	request, err := s.pending(ctx, owner, id)
	if err != nil {
		return err
	}

	if _, err := s.booking.Create(ctx, req.ToBookingRequest(request)); err != nil {
		return fmt.Errorf("failed to create booking from request: %w", err)
	}

	return s.close(ctx, owner, id, model.StatusApproved)
}

func (s *serviceImpl) Reject(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(requestLockKey(id))
	defer unlock()

	if _, err := s.pending(ctx, owner, id); err != nil {
		return err
	}

	return s.close(ctx, owner, id, model.StatusRejected)
}

// pending loads the request and enforces that it has not been decided yet.
func (s *serviceImpl) pending(ctx context.Context, owner, id string) (model.Request, error) {
	request, err := s.repo.Get(ctx, shared.FilterByOwnerAndKey(owner, id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking request")

		return request, fmt.Errorf("failed to get booking request: %w", err)
	}

	if request.ID == constant.Empty {
		return request, failure.NotFound("booking request not found") //nolint:wrapcheck
	}

	if request.Status != model.StatusPending {
		return request, failure.InvalidState(fmt.Sprintf("booking request is already %s", request.Status)) //nolint:wrapcheck
	}

	return request, nil
}

func (s *serviceImpl) close(ctx context.Context, owner, id, status string) error {
	fields := map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: owner,
	}

	if err := s.repo.Update(ctx, fields, shared.FilterByOwnerAndKey(owner, id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update booking request status")

		return fmt.Errorf("failed to update booking request status: %w", err)
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context) {
	c := context.WithoutCancel(ctx)

	shared.InvalidateCaches(c, s.cache, cacheGetRequest)
	shared.InvalidateCaches(c, s.cache, cacheGetAllRequest)
	shared.InvalidateCaches(c, s.cache, cacheCountRequest)
}

func requestLockKey(id string) string {
	return model.EntityName + ":" + id
}

func ownerFromContext(ctx context.Context) (string, error) {
	owner, _ := ctx.Value(constant.ContextKeyOwner).(string)
	if owner == "" {
		return "", failure.Unauthorized("owner not resolved") //nolint:wrapcheck
	}

	return owner, nil
}
