package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

// The catalog changes rarely; cache it aggressively.
const (
	cacheTTL     = 15 * time.Minute
	cacheCleanup = 30 * time.Minute

	makesCacheKey = "catalog:makes"
	namesCacheKey = "catalog:names"
)

type CatalogService interface {
	Makes(ctx context.Context) ([]models.TractorMake, error)
	Models(ctx context.Context, makeID uuid.UUID) ([]models.TractorModel, error)
	Names(ctx context.Context) ([]string, error)
}

type CatalogServiceImpl struct {
	logger *zap.Logger
	repo   CatalogRepo
	cache  *cache.Cache
}

func NewCatalogService(repo CatalogRepo, logger *zap.Logger) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(cacheTTL, cacheCleanup),
	}
}

func (s *CatalogServiceImpl) Makes(ctx context.Context) ([]models.TractorMake, error) {
	if cached, found := s.cache.Get(makesCacheKey); found {
		return cached.([]models.TractorMake), nil
	}
	makes, err := s.repo.ListMakes(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(makesCacheKey, makes, cache.DefaultExpiration)
	return makes, nil
}

func (s *CatalogServiceImpl) Models(ctx context.Context, makeID uuid.UUID) ([]models.TractorModel, error) {
	key := fmt.Sprintf("catalog:models:%s", makeID)
	if cached, found := s.cache.Get(key); found {
		return cached.([]models.TractorModel), nil
	}
	out, err := s.repo.ListModels(ctx, makeID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

// Names feeds the keyword matcher used by vehicle search.
func (s *CatalogServiceImpl) Names(ctx context.Context) ([]string, error) {
	if cached, found := s.cache.Get(namesCacheKey); found {
		return cached.([]string), nil
	}
	names, err := s.repo.AllNames(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(namesCacheKey, names, cache.DefaultExpiration)
	return names, nil
}
