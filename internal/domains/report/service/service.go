package service

import (
	"context"
	"encoding/json"
	"fmt"

	"fleet/config"
	"fleet/infras/otel"
	"fleet/infras/s3"
	bookingModel "fleet/internal/domains/booking/model"
	bookingDto "fleet/internal/domains/booking/model/dto"
	bookingRepo "fleet/internal/domains/booking/repository"
	expenseModel "fleet/internal/domains/expense/model"
	expenseRepo "fleet/internal/domains/expense/repository"
	"fleet/internal/domains/report/model/dto"
	requestModel "fleet/internal/domains/request/model"
	requestRepo "fleet/internal/domains/request/repository"
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
	cacheSummary = "report:summary"

	backupDirectory   = "backups"
	backupContentType = "application/json"

	recentBookingLimit = 5
)

type Report interface {
	Summary(ctx context.Context) (dto.SummaryResponse, error)
	Export(ctx context.Context) (dto.ExportResponse, error)
	Restore(ctx context.Context, snapshot dto.Snapshot) error
}

type serviceImpl struct {
	vehicleRepo vehicleRepo.Vehicle
	bookingRepo bookingRepo.Booking
	expenseRepo expenseRepo.Expense
	requestRepo requestRepo.Request
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	s3          s3.S3
	locks       *lock.KeyedMutex
}

func New(vehicleRepo vehicleRepo.Vehicle, bookingRepo bookingRepo.Booking, expenseRepo expenseRepo.Expense, requestRepo requestRepo.Request, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3, locks *lock.KeyedMutex) Report {
	return &serviceImpl{
		vehicleRepo: vehicleRepo,
		bookingRepo: bookingRepo,
		expenseRepo: expenseRepo,
		requestRepo: requestRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		s3:          s3,
		locks:       locks,
	}
}

func (s *serviceImpl) Summary(ctx context.Context) (res dto.SummaryResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".report.Summary")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheSummary, owner)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	income, err := s.bookingRepo.SumColumn(ctx, bookingModel.FieldAmountPaid, shared.FilterByOwner(owner, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to sum booking income")

		return res, fmt.Errorf("failed to sum booking income: %w", err)
	}

	expenses, err := s.expenseRepo.SumColumn(ctx, expenseModel.FieldAmount, shared.FilterByOwner(owner, expenseModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to sum expenses")

		return res, fmt.Errorf("failed to sum expenses: %w", err)
	}

	params := gDto.QueryParams{
		Page:    1,
		Limit:   recentBookingLimit,
		SortBy:  constant.FieldCreatedAt,
		SortDir: gDto.SortDirDesc,
	}

	recent, err := s.bookingRepo.GetAll(ctx, params, shared.FilterByOwner(owner, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get recent bookings")

		return res, fmt.Errorf("failed to get recent bookings: %w", err)
	}

	res.TotalIncome = income
	res.TotalExpenses = expenses
	res.Profit = income - expenses

	res.RecentBookings = make([]bookingDto.BookingResponse, len(recent))
	for i, mod := range recent {
		res.RecentBookings[i].FromModel(mod)
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save summary to cache")
	}

	return res, nil
}

// Export dumps the owner's collections into a snapshot and, when enabled,
// uploads it to the backup bucket.
func (s *serviceImpl) Export(ctx context.Context) (res dto.ExportResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".report.Export")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return res, err
	}

	snapshot := dto.Snapshot{
		Owner:      owner,
		ExportedAt: timezone.Now().Format(constant.TimestampFormat),
	}

	if snapshot.Vehicles, err = s.vehicleRepo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByOwner(owner, vehicleModel.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to export vehicles")

		return res, fmt.Errorf("failed to export vehicles: %w", err)
	}

	if snapshot.Bookings, err = s.bookingRepo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByOwner(owner, bookingModel.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to export bookings")

		return res, fmt.Errorf("failed to export bookings: %w", err)
	}

	if snapshot.Expenses, err = s.expenseRepo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByOwner(owner, expenseModel.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to export expenses")

		return res, fmt.Errorf("failed to export expenses: %w", err)
	}

	if snapshot.Requests, err = s.requestRepo.GetAll(ctx, gDto.QueryParams{}, shared.FilterByOwner(owner, requestModel.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to export booking requests")

		return res, fmt.Errorf("failed to export booking requests: %w", err)
	}

	res.Snapshot = snapshot

	if !s.cfg.Backup.UploadToS3 {
		return res, nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return res, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	objectName := fmt.Sprintf("%s_backup_%s.json", owner, timezone.Now().Format("20060102T150405"))

	url, err := s.s3.UploadBytes(ctx, s.cfg.External.S3.BucketName, backupDirectory, objectName, backupContentType, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload snapshot")

		return res, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	res.S3URL = url

	return res, nil
}

// Restore replaces the owner's collections with a snapshot's contents. It
// runs under the owner lock so no booking write can interleave with the
// delete and reinsert.
func (s *serviceImpl) Restore(ctx context.Context, snapshot dto.Snapshot) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".report.Restore")
	defer scope.End()
	defer scope.TraceIfError(err)

	owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	for _, row := range snapshot.Vehicles {
		if row.Owner != owner {
			return failure.BadRequestFromString("snapshot contains rows for another owner") //nolint:wrapcheck
		}
	}

	for _, row := range snapshot.Bookings {
		if row.Owner != owner {
			return failure.BadRequestFromString("snapshot contains rows for another owner") //nolint:wrapcheck
		}
	}

	for _, row := range snapshot.Expenses {
		if row.Owner != owner {
			return failure.BadRequestFromString("snapshot contains rows for another owner") //nolint:wrapcheck
		}
	}

	for _, row := range snapshot.Requests {
		if row.Owner != owner {
			return failure.BadRequestFromString("snapshot contains rows for another owner") //nolint:wrapcheck
		}
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	if err := s.vehicleRepo.Delete(ctx, shared.FilterByOwner(owner, vehicleModel.TableName)); err != nil {
		return fmt.Errorf("failed to clear vehicles: %w", err)
	}

	if err := s.bookingRepo.Delete(ctx, shared.FilterByOwner(owner, bookingModel.TableName)); err != nil {
		return fmt.Errorf("failed to clear bookings: %w", err)
	}

	if err := s.expenseRepo.Delete(ctx, shared.FilterByOwner(owner, expenseModel.TableName)); err != nil {
		return fmt.Errorf("failed to clear expenses: %w", err)
	}

	if err := s.requestRepo.Delete(ctx, shared.FilterByOwner(owner, requestModel.TableName)); err != nil {
		return fmt.Errorf("failed to clear booking requests: %w", err)
	}

	if len(snapshot.Vehicles) > 0 {
		if err := s.vehicleRepo.InsertBulk(ctx, snapshot.Vehicles); err != nil {
			return fmt.Errorf("failed to restore vehicles: %w", err)
		}
	}

	if len(snapshot.Bookings) > 0 {
		if err := s.bookingRepo.InsertBulk(ctx, snapshot.Bookings); err != nil {
			return fmt.Errorf("failed to restore bookings: %w", err)
		}
	}

	if len(snapshot.Expenses) > 0 {
		if err := s.expenseRepo.InsertBulk(ctx, snapshot.Expenses); err != nil {
			return fmt.Errorf("failed to restore expenses: %w", err)
		}
	}

	if len(snapshot.Requests) > 0 {
		if err := s.requestRepo.InsertBulk(ctx, snapshot.Requests); err != nil {
			return fmt.Errorf("failed to restore booking requests: %w", err)
		}
	}

	// Everything cached may now be stale.
	for _, prefix := range []string{"vehicle", "booking", "request", "expense", "report"} {
		shared.InvalidateCaches(context.WithoutCancel(ctx), s.cache, prefix)
	}

	return nil
}

func ownerFromContext(ctx context.Context) (string, error) {
	owner, _ := ctx.Value(constant.ContextKeyOwner).(string)
	if owner == "" {
		return "", failure.Unauthorized("owner not resolved") //nolint:wrapcheck
	}

	return owner, nil
}
