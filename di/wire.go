//go:build wireinject
// +build wireinject

package di

import (
	"roombook/config"
	"roombook/infras/jwt"
	"roombook/infras/otel"
	"roombook/infras/postgres"
	"roombook/infras/redis"
	"roombook/infras/s3"
	"roombook/internal/scheduler"
	"roombook/permissions"
	"roombook/shared/cache"
	"roombook/shared/clock"
	"roombook/shared/event"
	"roombook/shared/transaction"
	"roombook/transport/http"
	"roombook/transport/http/middleware"
	"roombook/transport/http/router"

	authService "roombook/internal/domains/auth/service"
	bookingRepository "roombook/internal/domains/booking/repository"
	bookingService "roombook/internal/domains/booking/service"
	historyRepository "roombook/internal/domains/history/repository"
	historyService "roombook/internal/domains/history/service"
	roomRepository "roombook/internal/domains/room/repository"
	roomService "roombook/internal/domains/room/service"
	userRepository "roombook/internal/domains/user/repository"
	userService "roombook/internal/domains/user/service"

	authHandler "roombook/internal/handlers/auth"
	bookingHandler "roombook/internal/handlers/booking"
	roomHandler "roombook/internal/handlers/room"
	userHandler "roombook/internal/handlers/user"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	clock.New,
	event.New,
	transaction.New,
)

var authDomain = wire.NewSet(
	authService.New,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	historyRepository.New,
	historyService.New,
	bookingService.New,
	bookingService.NewStatusSync,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	roomDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	roomHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() (*Application, func(), error) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		scheduler.New,
		wire.Struct(new(Application), "*"),
	)

	return nil, nil, nil
}

func InitializeWorker() (*scheduler.Scheduler, func(), error) {
	wire.Build(
		config.Get,
		otel.New,
		postgres.New,
		redis.New,
		sharedHelpers,
		bookingRepository.New,
		historyRepository.New,
		roomRepository.New,
		bookingService.NewStatusSync,
		scheduler.New,
	)

	return nil, nil, nil
}
