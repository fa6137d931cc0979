package service

import (
	"context"
	"fmt"
	"strings"

	"roombook/config"
	"roombook/infras/otel"
	"roombook/infras/s3"
	"roombook/internal/domains/room/model"
	"roombook/internal/domains/room/model/dto"
	"roombook/internal/domains/room/repository"
	"roombook/shared"
	"roombook/shared/cache"
	"roombook/shared/clock"
	"roombook/shared/constant"
	gDto "roombook/shared/dto"
	"roombook/shared/failure"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	errRoomNotFound    = failure.NotFound("room not found")
	errRoomCodeTaken   = failure.Conflict("room code already exists")
	errRoomHasBookings = failure.Conflict("room still has bookings")
)

type Room interface {
	Create(ctx context.Context, req dto.CreateRoomRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetRoomsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.RoomResponse, error)
	Update(ctx context.Context, req dto.UpdateRoomRequest, id string) error
	// UpdateStatus is the manual override, e.g. putting a room under maintenance.
	// It stays authoritative until the next booking activation.
	UpdateStatus(ctx context.Context, req dto.UpdateRoomStatusRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.Room
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	s3    s3.S3
	clock clock.Clock
}

func New(repo repository.Room, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3, clock clock.Clock) Room {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		s3:    s3,
		clock: clock,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateRoomRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	imageURL := constant.Empty
	objectName := constant.Empty

	if req.Image != nil {
		imageURL, objectName, err = s.s3.UploadFile(ctx, model.EntityName, req.ImageFile, req.Image)
		if err != nil {
			log.Error().Err(err).Msg("failed to upload room image")

			return fmt.Errorf("failed to upload image: %w", err)
		}
	}

	if err = s.repo.Insert(ctx, req.ToModel(user, imageURL, s.clock.Now())); err != nil {
		s.discardImage(ctx, objectName)

		if shared.PqErrorCode(err) == constant.PqErrorCodeUniqueViolation {
			return errRoomCodeTaken
		}

		return fmt.Errorf("failed to create room: %w", err)
	}

	go s.invalidateLists(context.WithoutCancel(ctx))

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetRoomsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CacheKeyRoomGetAll, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for rooms")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get rooms")

		return res, fmt.Errorf("failed to get rooms: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go s.save(context.WithoutCancel(ctx), cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CacheKeyRoomCount, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")

		return res, fmt.Errorf("failed to count rooms: %w", err)
	}

	go s.save(context.WithoutCancel(ctx), cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.RoomResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(constant.CacheKeyRoomGet, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for room")

		return res, nil
	}

	room, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return res, errRoomNotFound
	}

	res.FromModel(room)

	go s.save(context.WithoutCancel(ctx), cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateRoomRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	current, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check room existence")

		return fmt.Errorf("failed to get room: %w", err)
	}

	if current.ID == constant.Empty {
		return errRoomNotFound
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	updatedFields := shared.TransformFields(req, user)
	updatedFields[constant.FieldModifiedAt] = s.clock.Now()

	if req.Facilities != nil {
		updatedFields[model.FieldFacilities] = pq.StringArray(req.Facilities)
	}

	objectName := constant.Empty

	if req.Image != nil {
		var imageURL string

		imageURL, objectName, err = s.s3.UploadFile(ctx, model.EntityName, req.ImageFile, req.Image)
		if err != nil {
			return fmt.Errorf("failed to upload image: %w", err)
		}

		updatedFields[model.FieldImage] = imageURL
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update room")
		s.discardImage(ctx, objectName)

		if shared.PqErrorCode(err) == constant.PqErrorCodeUniqueViolation {
			return errRoomCodeTaken
		}

		return fmt.Errorf("failed to update room: %w", err)
	}

	if objectName != constant.Empty && current.Image != constant.Empty {
		s.discardImage(ctx, s.s3.GetObjectNameFromURL(current.Image))
	}

	go s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, req dto.UpdateRoomStatusRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return errRoomNotFound
	}

	fields := map[string]any{
		model.FieldStatus:        req.Status,
		constant.FieldModifiedAt: s.clock.Now(),
		constant.FieldModifiedBy: user,
	}

	if err = s.repo.Update(ctx, fields, filter); err != nil {
		log.Error().Err(err).Str("room", id).Msg("failed to update room status")

		return fmt.Errorf("failed to update room status: %w", err)
	}

	log.Info().Str("room", id).Str("status", req.Status).Str("by", user).Msg("room status overridden")

	go s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	room, err := s.repo.Get(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return errRoomNotFound
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		if shared.PqErrorCode(err) == constant.PqErrorCodeFkViolation {
			return errRoomHasBookings
		}

		log.Error().Err(err).Msg("failed to delete room")

		return fmt.Errorf("failed to delete room: %w", err)
	}

	if room.Image != constant.Empty {
		s.discardImage(ctx, s.s3.GetObjectNameFromURL(room.Image))
	}

	go s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) discardImage(ctx context.Context, objectName string) {
	if objectName == constant.Empty {
		return
	}

	if err := s.s3.DeleteFile(ctx, model.EntityName, objectName); err != nil {
		log.Warn().Err(err).Str("object", objectName).Msg("failed to remove room image")
	}
}

func (s *serviceImpl) save(ctx context.Context, key string, value any) {
	if err := s.cache.Save(ctx, key, value, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Str("cacheKey", key).Msg("failed to save room cache")
	}
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(constant.CacheKeyRoomGet, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete room cache")
	}

	s.invalidateLists(ctx)
}

func (s *serviceImpl) invalidateLists(ctx context.Context) {
	shared.InvalidateCaches(ctx, s.cache, constant.CacheKeyRoomGetAll)
	shared.InvalidateCaches(ctx, s.cache, constant.CacheKeyRoomCount)
}
