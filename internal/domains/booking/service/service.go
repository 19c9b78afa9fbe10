package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"fleet/config"
	"fleet/infras/kafka"
	"fleet/infras/otel"
	"fleet/internal/domains/booking/model"
	"fleet/internal/domains/booking/model/dto"
	"fleet/internal/domains/booking/repository"
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
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
	cacheAvailability  = "booking:availability"
	cacheVehicle       = "vehicle"

	EventBookingCreated   = "booking.created"
	EventBookingCompleted = "booking.completed"
	EventBookingCancelled = "booking.cancelled"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id int64) (dto.BookingResponse, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest, id int64) error
	Complete(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64) error
	CheckOverlap(ctx context.Context, vehicleID int64, startDate, endDate string, excludeID int64) (dto.OverlapResponse, error)
	Availability(ctx context.Context, vehicleID int64, asOf string) (dto.AvailabilityResponse, error)
}

type serviceImpl struct {
	repo        repository.Booking
	vehicleRepo vehicleRepo.Vehicle
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	kafka       kafka.Client
	locks       *lock.KeyedMutex
}

func New(repo repository.Booking, vehicleRepo vehicleRepo.Vehicle, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, kafka kafka.Client, locks *lock.KeyedMutex) Booking {
	return &serviceImpl{
		repo:        repo,
		vehicleRepo: vehicleRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		kafka:       kafka,
		locks:       locks,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return res, err
	}

	// The overlap check and the insert must see a consistent view of the
	// owner's bookings, so the whole section runs under the owner lock.
	unlock := s.locks.Lock(owner)
	defer unlock()

	vehicle, err := s.vehicleRepo.Get(ctx, shared.FilterByOwnerAndID(owner, req.VehicleID, vehicleModel.FieldID, vehicleModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get vehicle")

		return res, fmt.Errorf("failed to get vehicle: %w", err)
	}

	if vehicle.ID == 0 {
		return res, failure.NotFound("vehicle not found") //nolint:wrapcheck
	}

	if vehicle.Status == vehicleModel.StatusMaintenance && !req.AllowOverlap {
		return res, failure.Conflict("vehicle is under maintenance") //nolint:wrapcheck
	}

	if !req.AllowOverlap {
		conflicts, err := s.findConflicts(ctx, owner, req.VehicleID, start, end, 0)
		if err != nil {
			return res, err
		}

		if len(conflicts) > 0 {
			return res, failure.ConflictWithDetails("vehicle is already booked for the requested dates", conflicts) //nolint:wrapcheck
		}
	}

	id, err := s.repo.NextID(ctx, shared.FilterByOwner(owner, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to allocate booking id")

		return res, fmt.Errorf("failed to allocate booking id: %w", err)
	}

	booking, err := req.ToModel(owner, id)
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	if vehicle.Status != vehicleModel.StatusBooked {
		if err := s.setVehicleStatus(ctx, owner, vehicle.ID, vehicleModel.StatusBooked); err != nil {
			return res, err
		}
	}

	s.publish(ctx, EventBookingCreated, booking)
	s.invalidate(ctx)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save bookings to cache")
	}

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save booking count to cache")
	}

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id int64) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetBooking, owner, fmt.Sprintf("%d", id))

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByOwnerAndID(owner, id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == 0 {
		return res, failure.NotFound("booking not found") //nolint:wrapcheck
	}

	res.FromModel(booking)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save booking to cache")
	}

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateBookingRequest, id int64) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.IsEmpty() {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	filter := shared.FilterByOwnerAndID(owner, id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == 0 {
		return failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if booking.Status != model.StatusBooked {
		return failure.InvalidState(fmt.Sprintf("booking is already %s", booking.Status)) //nolint:wrapcheck
	}

	start := booking.StartDate
	end := booking.EndDate

	if req.StartDate != "" {
		if start, err = timezone.ParseDate(req.StartDate); err != nil {
			return failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
		}
	}

	if req.EndDate != "" {
		if end, err = timezone.ParseDate(req.EndDate); err != nil {
			return failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
		}
	}

	if end.Before(start) {
		return failure.BadRequestFromString("end_date must be on or after start_date") //nolint:wrapcheck
	}

	if !req.AllowOverlap {
		conflicts, err := s.findConflicts(ctx, owner, booking.VehicleID, start, end, booking.ID)
		if err != nil {
			return err
		}

		if len(conflicts) > 0 {
			return failure.ConflictWithDetails("vehicle is already booked for the requested dates", conflicts) //nolint:wrapcheck
		}
	}

	fields, err := req.ToUpdateMap(owner)
	if err != nil {
		return failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if err := s.repo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking")

		return fmt.Errorf("failed to update booking: %w", err)
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, model.StatusCompleted, EventBookingCompleted)
}

func (s *serviceImpl) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, model.StatusCancelled, EventBookingCancelled)
}

func (s *serviceImpl) CheckOverlap(ctx context.Context, vehicleID int64, startDate, endDate string, excludeID int64) (res dto.OverlapResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.CheckOverlap")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return res, err
	}

	exists, err := s.vehicleRepo.Exist(ctx, shared.FilterByOwnerAndID(owner, vehicleID, vehicleModel.FieldID, vehicleModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if vehicle exists")

		return res, fmt.Errorf("failed to check if vehicle exists: %w", err)
	}

	if !exists {
		return res, failure.NotFound("vehicle not found") //nolint:wrapcheck
	}

	conflicts, err := s.findConflicts(ctx, owner, vehicleID, start, end, excludeID)
	if err != nil {
		return res, err
	}

	res.Overlaps = len(conflicts) > 0
	res.Conflicts = conflicts

	return res, nil
}

func (s *serviceImpl) Availability(ctx context.Context, vehicleID int64, asOf string) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Availability")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	reference := timezone.Today()

	if asOf != "" {
		if reference, err = timezone.ParseDate(asOf); err != nil {
			return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
		}
	}

	cacheKey := shared.BuildCacheKey(cacheAvailability, owner, fmt.Sprintf("%d", vehicleID), timezone.FormatDate(reference))

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	exists, err := s.vehicleRepo.Exist(ctx, shared.FilterByOwnerAndID(owner, vehicleID, vehicleModel.FieldID, vehicleModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if vehicle exists")

		return res, fmt.Errorf("failed to check if vehicle exists: %w", err)
	}

	if !exists {
		return res, failure.NotFound("vehicle not found") //nolint:wrapcheck
	}

	// Bookings fully in the past do not occupy the vehicle.
	filter := activeVehicleFilter(owner, vehicleID)
	filter.Filters = append(filter.Filters, gDto.Filter{
		Field:    model.FieldEndDate,
		Value:    reference,
		Operator: gDto.FilterOperatorGreaterEq,
		Table:    model.TableName,
	})

	params := gDto.QueryParams{SortBy: model.FieldStartDate, SortDir: gDto.SortDirAsc}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get occupying bookings")

		return res, fmt.Errorf("failed to get occupying bookings: %w", err)
	}

	res.FromModels(vehicleID, models)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save availability to cache")
	}

	return res, nil
}

func (s *serviceImpl) transition(ctx context.Context, id int64, target, event string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.transition")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	filter := shared.FilterByOwnerAndID(owner, id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == 0 {
		return failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if booking.Status != model.StatusBooked {
		return failure.InvalidState(fmt.Sprintf("booking is already %s", booking.Status)) //nolint:wrapcheck
	}

	fields := map[string]any{
		model.FieldStatus:        target,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: owner,
	}

	if err := s.repo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	// The vehicle's status is a summary over its remaining active bookings.
	active, err := s.repo.Exist(ctx, activeVehicleFilter(owner, booking.VehicleID))
	if err != nil {
		log.Error().Err(err).Msg("failed to check remaining bookings")

		return fmt.Errorf("failed to check remaining bookings: %w", err)
	}

	if !active {
		if err := s.setVehicleStatus(ctx, owner, booking.VehicleID, vehicleModel.StatusAvailable); err != nil {
			return err
		}
	}

	booking.Status = target

	s.publish(ctx, event, booking)
	s.invalidate(ctx)

	return nil
}

// findConflicts returns the active bookings of a vehicle whose inclusive day
// range touches [start, end], skipping excludeID when it is non-zero.
func (s *serviceImpl) findConflicts(ctx context.Context, owner string, vehicleID int64, start, end time.Time, excludeID int64) ([]dto.Conflict, error) {
	models, err := s.repo.GetAll(ctx, gDto.QueryParams{}, activeVehicleFilter(owner, vehicleID))
	if err != nil {
		log.Error().Err(err).Msg("failed to get active bookings")

		return nil, fmt.Errorf("failed to get active bookings: %w", err)
	}

	conflicts := make([]dto.Conflict, 0)

	for _, mod := range models {
		if mod.ID == excludeID {
			continue
		}

		if mod.Overlaps(start, end) {
			var conflict dto.Conflict
			conflict.FromModel(mod)
			conflicts = append(conflicts, conflict)
		}
	}

	return conflicts, nil
}

func (s *serviceImpl) setVehicleStatus(ctx context.Context, owner string, vehicleID int64, status string) error {
	fields := map[string]any{
		vehicleModel.FieldStatus: status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: owner,
	}

	filter := shared.FilterByOwnerAndID(owner, vehicleID, vehicleModel.FieldID, vehicleModel.TableName)

	if err := s.vehicleRepo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update vehicle status")

		return fmt.Errorf("failed to update vehicle status: %w", err)
	}

	return nil
}

func (s *serviceImpl) publish(ctx context.Context, event string, booking model.Booking) {
	message := kafka.Message{
		Key:   fmt.Sprintf("%s:%d", booking.Owner, booking.ID),
		Value: dto.NewBookingEvent(event, booking),
	}

	if err := s.kafka.SendMessages(ctx, s.cfg.Kafka.Topics.BookingEvents, message); err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to publish booking event")
	}
}

func (s *serviceImpl) invalidate(ctx context.Context) {
	c := context.WithoutCancel(ctx)

	shared.InvalidateCaches(c, s.cache, cacheGetBooking)
	shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
	shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	shared.InvalidateCaches(c, s.cache, cacheAvailability)
	shared.InvalidateCaches(c, s.cache, cacheVehicle)
}

func ownerFromContext(ctx context.Context) (string, error) {
	owner, _ := ctx.Value(constant.ContextKeyOwner).(string)
	if owner == "" {
		return "", failure.Unauthorized("owner not resolved") //nolint:wrapcheck
	}

	return owner, nil
}

func parseRange(startDate, endDate string) (start, end time.Time, err error) {
	if start, err = timezone.ParseDate(startDate); err != nil {
		return start, end, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if end, err = timezone.ParseDate(endDate); err != nil {
		return start, end, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if end.Before(start) {
		return start, end, failure.BadRequestFromString("end_date must be on or after start_date") //nolint:wrapcheck
	}

	return start, end, nil
}

func activeVehicleFilter(owner string, vehicleID int64) gDto.FilterGroup {
	filter := shared.FilterByOwner(owner, model.TableName)
	filter.Filters = append(filter.Filters,
		gDto.Filter{
			Field:    model.FieldVehicleID,
			Value:    vehicleID,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		},
		gDto.Filter{
			Field:    model.FieldStatus,
			Value:    model.StatusBooked,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		},
	)

	return filter
}
