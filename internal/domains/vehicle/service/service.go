package service

import (
	"context"
	"fmt"

	"fleet/config"
	"fleet/infras/otel"
	bookingModel "fleet/internal/domains/booking/model"
	bookingRepo "fleet/internal/domains/booking/repository"
	"fleet/internal/domains/vehicle/model"
	"fleet/internal/domains/vehicle/model/dto"
	"fleet/internal/domains/vehicle/repository"
	"fleet/shared"
	"fleet/shared/cache"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	"fleet/shared/lock"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetVehicle         = "vehicle:get"
	cacheGetAllVehicle      = "vehicle:gets"
	cacheCountVehicle       = "vehicle:count"
	cacheMaintenanceVehicle = "vehicle:maintenance"
)

type Vehicle interface {
	Create(ctx context.Context, req dto.CreateVehicleRequest) (dto.VehicleResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetVehiclesResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id int64) (dto.VehicleResponse, error)
	Update(ctx context.Context, req dto.UpdateVehicleRequest, id int64) error
	MaintenanceSchedule(ctx context.Context) ([]dto.MaintenanceEntry, error)
}

type serviceImpl struct {
	repo        repository.Vehicle
	bookingRepo bookingRepo.Booking
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	locks       *lock.KeyedMutex
}

func New(repo repository.Vehicle, bookingRepo bookingRepo.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, locks *lock.KeyedMutex) Vehicle {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		locks:       locks,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateVehicleRequest) (res dto.VehicleResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".vehicle.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	// Sequential ids are assigned under the owner lock so two inserts
	// cannot draw the same id.
	unlock := s.locks.Lock(owner)
	defer unlock()

	id, err := s.repo.NextID(ctx, shared.FilterByOwner(owner, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to allocate vehicle id")

		return res, fmt.Errorf("failed to allocate vehicle id: %w", err)
	}

	vehicle, err := req.ToModel(owner, id)
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, vehicle); err != nil {
		log.Error().Err(err).Msg("failed to create vehicle")

		return res, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.invalidate(ctx)

	res.FromModel(vehicle)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetVehiclesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".vehicle.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllVehicle, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count vehicles: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get vehicles")

		return res, fmt.Errorf("failed to get vehicles: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save vehicles to cache")
	}

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".vehicle.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountVehicle, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count vehicles")

		return res, fmt.Errorf("failed to count vehicles: %w", err)
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save vehicle count to cache")
	}

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id int64) (res dto.VehicleResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".vehicle.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetVehicle, owner, fmt.Sprintf("%d", id))

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	vehicle, err := s.repo.Get(ctx, shared.FilterByOwnerAndID(owner, id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get vehicle")

		return res, fmt.Errorf("failed to get vehicle: %w", err)
	}

	if vehicle.ID == 0 {
		return res, failure.NotFound("vehicle not found") //nolint:wrapcheck
	}

	res.FromModel(vehicle)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save vehicle to cache")
	}

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateVehicleRequest, id int64) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".vehicle.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateVehicleRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	filter := shared.FilterByOwnerAndID(owner, id, model.FieldID, model.TableName)

	vehicle, err := s.repo.Get(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get vehicle: %w", err)
	}

	if vehicle.ID == 0 {
		return failure.NotFound("vehicle not found") //nolint:wrapcheck
	}

	fields, err := req.ToUpdateMap(owner)
	if err != nil {
		return failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	// Status can only be moved between Available and Maintenance by hand;
	// Booked is owned by the booking engine. A vehicle with active bookings
	// keeps its engine-derived status until those bookings finish.
	if req.Status != "" && req.Status != vehicle.Status {
		active, err := s.bookingRepo.Exist(ctx, activeBookingFilter(owner, id))
		if err != nil {
			return fmt.Errorf("failed to check active bookings: %w", err)
		}

		if active {
			return failure.Conflict("vehicle has active bookings; status is managed by the booking engine") //nolint:wrapcheck
		}

		fields[model.FieldStatus] = req.Status
	}

	if err := s.repo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update vehicle")

		return fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) MaintenanceSchedule(ctx context.Context) (res []dto.MaintenanceEntry, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".vehicle.MaintenanceSchedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheMaintenanceVehicle, owner)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	params := gDto.QueryParams{SortBy: model.FieldNextServiceDate, SortDir: gDto.SortDirAsc}

	models, err := s.repo.GetAll(ctx, params, shared.FilterByOwner(owner, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get maintenance schedule")

		return res, fmt.Errorf("failed to get maintenance schedule: %w", err)
	}

	res = make([]dto.MaintenanceEntry, len(models))
	for i, mod := range models {
		res[i].FromModel(mod)
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save maintenance schedule to cache")
	}

	return res, nil
}

func (s *serviceImpl) invalidate(ctx context.Context) {
	c := context.WithoutCancel(ctx)

	shared.InvalidateCaches(c, s.cache, cacheGetVehicle)
	shared.InvalidateCaches(c, s.cache, cacheGetAllVehicle)
	shared.InvalidateCaches(c, s.cache, cacheCountVehicle)
	shared.InvalidateCaches(c, s.cache, cacheMaintenanceVehicle)
}

func ownerFromContext(ctx context.Context) (string, error) {
	owner, _ := ctx.Value(constant.ContextKeyOwner).(string)
	if owner == "" {
		return "", failure.Unauthorized("owner not resolved") //nolint:wrapcheck
	}

	return owner, nil
}

func activeBookingFilter(owner string, vehicleID int64) gDto.FilterGroup {
	filter := shared.FilterByOwner(owner, bookingModel.TableName)
	filter.Filters = append(filter.Filters,
		gDto.Filter{
			Field:    bookingModel.FieldVehicleID,
			Value:    vehicleID,
			Operator: gDto.FilterOperatorEq,
			Table:    bookingModel.TableName,
		},
		gDto.Filter{
			Field:    bookingModel.FieldStatus,
			Value:    bookingModel.StatusBooked,
			Operator: gDto.FilterOperatorEq,
			Table:    bookingModel.TableName,
		},
	)

	return filter
}
