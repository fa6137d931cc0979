package service

import (
	"context"
	"fmt"

	"roombook/config"
	"roombook/infras/otel"
	"roombook/internal/domains/history/model"
	"roombook/internal/domains/history/model/dto"
	"roombook/internal/domains/history/repository"
	"roombook/shared"
	"roombook/shared/cache"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"

	"github.com/rs/zerolog/log"
)

type History interface {
	GetByBooking(ctx context.Context, bookingID string, params gDto.QueryParams) (dto.GetHistoriesResponse, error)
}

type serviceImpl struct {
	repo  repository.History
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.History, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) History {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

// GetByBooking lists entries oldest first.
func (s *serviceImpl) GetByBooking(ctx context.Context, bookingID string, params gDto.QueryParams) (res dto.GetHistoriesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetByBooking")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	params.SortBy = model.FieldCreatedAt
	params.SortDir = gDto.SortDirAsc

	filter := shared.FilterByID(bookingID, model.FieldBookingID, model.TableName)
	cacheKey := shared.BuildCacheKeyWithQuery(shared.BuildCacheKey(constant.CacheKeyHistory, bookingID), params, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("booking", bookingID).Msg("failed to count booking histories")

		return res, fmt.Errorf("failed to count histories: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Str("booking", bookingID).Msg("failed to get booking histories")

		return res, fmt.Errorf("failed to get histories: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save histories to cache")
		}
	}()

	return res, nil
}
