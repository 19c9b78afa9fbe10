//go:build wireinject
// +build wireinject

package di

import (
	"fleet/config"
	"fleet/infras/jwt"
	"fleet/infras/kafka"
	"fleet/infras/otel"
	"fleet/infras/postgres"
	"fleet/infras/redis"
	"fleet/infras/s3"
	"fleet/shared/cache"
	"fleet/shared/lock"
	"fleet/transport/http"
	"fleet/transport/http/middleware"
	"fleet/transport/http/router"

	bookingRepository "fleet/internal/domains/booking/repository"
	bookingService "fleet/internal/domains/booking/service"
	expenseRepository "fleet/internal/domains/expense/repository"
	expenseService "fleet/internal/domains/expense/service"
	reportService "fleet/internal/domains/report/service"
	requestRepository "fleet/internal/domains/request/repository"
	requestService "fleet/internal/domains/request/service"
	vehicleRepository "fleet/internal/domains/vehicle/repository"
	vehicleService "fleet/internal/domains/vehicle/service"

	bookingHandler "fleet/internal/handlers/booking"
	expenseHandler "fleet/internal/handlers/expense"
	reportHandler "fleet/internal/handlers/report"
	requestHandler "fleet/internal/handlers/request"
	vehicleHandler "fleet/internal/handlers/vehicle"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.NewKeyedMutex,
)

var vehicleDomain = wire.NewSet(
	vehicleRepository.New,
	vehicleService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var requestDomain = wire.NewSet(
	requestRepository.New,
	requestService.New,
)

var expenseDomain = wire.NewSet(
	expenseRepository.New,
	expenseService.New,
)

var reportDomain = wire.NewSet(
	reportService.New,
)

var domains = wire.NewSet(
	vehicleDomain,
	bookingDomain,
	requestDomain,
	expenseDomain,
	reportDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	vehicleHandler.New,
	bookingHandler.New,
	requestHandler.New,
	expenseHandler.New,
	reportHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
