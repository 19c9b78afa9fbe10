package service

import (
	"context"
	"fmt"

	"fleet/config"
	"fleet/infras/otel"
	"fleet/internal/domains/expense/model"
	"fleet/internal/domains/expense/model/dto"
	"fleet/internal/domains/expense/repository"
	vehicleModel "fleet/internal/domains/vehicle/model"
	vehicleRepo "fleet/internal/domains/vehicle/repository"
	"fleet/shared"
	"fleet/shared/cache"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	"fleet/shared/lock"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetExpense    = "expense:get"
	cacheGetAllExpense = "expense:gets"
	cacheCountExpense  = "expense:count"
)

type Expense interface {
	Create(ctx context.Context, req dto.CreateExpenseRequest) (dto.ExpenseResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetExpensesResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id int64) (dto.ExpenseResponse, error)
	Delete(ctx context.Context, id int64) error
}

type serviceImpl struct {
	repo        repository.Expense
	vehicleRepo vehicleRepo.Vehicle
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	locks       *lock.KeyedMutex
}

func New(repo repository.Expense, vehicleRepo vehicleRepo.Vehicle, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, locks *lock.KeyedMutex) Expense {
	return &serviceImpl{
		repo:        repo,
		vehicleRepo: vehicleRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		locks:       locks,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateExpenseRequest) (res dto.ExpenseResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".expense.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	exists, err := s.vehicleRepo.Exist(ctx, shared.FilterByOwnerAndID(owner, req.VehicleID, vehicleModel.FieldID, vehicleModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if vehicle exists")

		return res, fmt.Errorf("failed to check if vehicle exists: %w", err)
	}

	if !exists {
		return res, failure.NotFound("vehicle not found") //nolint:wrapcheck
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	id, err := s.repo.NextID(ctx, shared.FilterByOwner(owner, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to allocate expense id")

		return res, fmt.Errorf("failed to allocate expense id: %w", err)
	}

	expense, err := req.ToModel(owner, id)
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, expense); err != nil {
		log.Error().Err(err).Msg("failed to create expense")

		return res, fmt.Errorf("failed to create expense: %w", err)
	}

	s.invalidate(ctx)

	res.FromModel(expense)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetExpensesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".expense.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllExpense, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count expenses: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get expenses")

		return res, fmt.Errorf("failed to get expenses: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save expenses to cache")
	}

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".expense.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountExpense, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count expenses")

		return res, fmt.Errorf("failed to count expenses: %w", err)
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save expense count to cache")
	}

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id int64) (res dto.ExpenseResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".expense.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetExpense, owner, fmt.Sprintf("%d", id))

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	expense, err := s.repo.Get(ctx, shared.FilterByOwnerAndID(owner, id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get expense")

		return res, fmt.Errorf("failed to get expense: %w", err)
	}

	if expense.ID == 0 {
		return res, failure.NotFound("expense not found") //nolint:wrapcheck
	}

	res.FromModel(expense)

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save expense to cache")
	}

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id int64) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".expense.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	filter := shared.FilterByOwnerAndID(owner, id, model.FieldID, model.TableName)

	exists, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if expense exists")

		return fmt.Errorf("failed to check if expense exists: %w", err)
	}

	if !exists {
		return failure.NotFound("expense not found") //nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete expense")

		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context) {
	c := context.WithoutCancel(ctx)

	shared.InvalidateCaches(c, s.cache, cacheGetExpense)
	shared.InvalidateCaches(c, s.cache, cacheGetAllExpense)
	shared.InvalidateCaches(c, s.cache, cacheCountExpense)
}

func ownerFromContext(ctx context.Context) (string, error) {
	owner, _ := ctx.Value(constant.ContextKeyOwner).(string)
	if owner == "" {
		return "", failure.Unauthorized("owner not resolved") //nolint:wrapcheck
	}

	return owner, nil
}
