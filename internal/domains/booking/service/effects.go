package service

import (
	"context"

	"roombook/config"
	"roombook/internal/domains/booking/model/dto"
	"roombook/shared"
	"roombook/shared/cache"
	"roombook/shared/constant"
	"roombook/shared/event"

	"github.com/rs/zerolog/log"
)

// effects holds the work done after a booking change has committed. Failures
// are logged and never reported to the caller.
type effects struct {
	cfg    *config.Config
	cache  cache.RedisCache
	events event.Publisher
}

func (e effects) afterCommit(ctx context.Context, changes []dto.StatusChangedEvent, roomIDs ...string) {
	bookingIDs := make([]string, 0, len(changes))
	for _, change := range changes {
		bookingIDs = append(bookingIDs, change.BookingID)
	}

	e.invalidate(ctx, bookingIDs, roomIDs)
	e.publish(ctx, changes)
}

func (e effects) invalidate(ctx context.Context, bookingIDs, roomIDs []string) {
	for _, id := range bookingIDs {
		if err := e.cache.Delete(ctx, shared.BuildCacheKey(constant.CacheKeyBookingGet, id)); err != nil {
			log.Error().Err(err).Str("booking", id).Msg("failed to delete booking cache")
		}

		shared.InvalidateCaches(ctx, e.cache, shared.BuildCacheKey(constant.CacheKeyHistory, id))
	}

	shared.InvalidateCaches(ctx, e.cache, constant.CacheKeyBookingGetAll)
	shared.InvalidateCaches(ctx, e.cache, constant.CacheKeyBookingCount)

	if len(roomIDs) == 0 {
		return
	}

	for _, id := range roomIDs {
		if err := e.cache.Delete(ctx, shared.BuildCacheKey(constant.CacheKeyRoomGet, id)); err != nil {
			log.Error().Err(err).Str("room", id).Msg("failed to delete room cache")
		}
	}

	shared.InvalidateCaches(ctx, e.cache, constant.CacheKeyRoomGetAll)
	shared.InvalidateCaches(ctx, e.cache, constant.CacheKeyRoomCount)
}

const headerAction = "booking-action"

func (e effects) publish(ctx context.Context, changes []dto.StatusChangedEvent) {
	if len(changes) == 0 {
		return
	}

	messages := make([]event.Message, len(changes))
	for i, change := range changes {
		messages[i] = event.Message{
			Key:     change.BookingID,
			Value:   change,
			Headers: map[string]string{headerAction: change.Action},
		}
	}

	if err := e.events.Publish(ctx, e.cfg.Event.Topic, messages...); err != nil {
		log.Error().Err(err).Int("events", len(messages)).Msg("failed to publish booking status events")
	}
}

func (e effects) save(ctx context.Context, key string, value any) {
	if err := e.cache.Save(ctx, key, value, e.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Str("cacheKey", key).Msg("failed to save booking cache")
	}
}
