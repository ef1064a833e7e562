package company

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

const (
	cacheTTL     = 10 * time.Minute
	cacheCleanup = 20 * time.Minute
)

type CompanyService interface {
	Info(ctx context.Context) (*models.CompanyInfo, error)
	Leadership(ctx context.Context) ([]models.LeadershipMember, error)
	Awards(ctx context.Context) ([]models.CompanyAward, error)
	Branches(ctx context.Context) ([]models.BranchLocation, error)
}

type CompanyServiceImpl struct {
	logger *zap.Logger
	repo   CompanyRepo
	cache  *cache.Cache
}

func NewCompanyService(repo CompanyRepo, logger *zap.Logger) *CompanyServiceImpl {
	return &CompanyServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(cacheTTL, cacheCleanup),
	}
}

func (s *CompanyServiceImpl) Info(ctx context.Context) (*models.CompanyInfo, error) {
	if cached, found := s.cache.Get("info"); found {
		return cached.(*models.CompanyInfo), nil
	}
	info, err := s.repo.GetInfo(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set("info", info, cache.DefaultExpiration)
	return info, nil
}

func (s *CompanyServiceImpl) Leadership(ctx context.Context) ([]models.LeadershipMember, error) {
	if cached, found := s.cache.Get("leadership"); found {
		return cached.([]models.LeadershipMember), nil
	}
	out, err := s.repo.ListLeadership(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set("leadership", out, cache.DefaultExpiration)
	return out, nil
}

func (s *CompanyServiceImpl) Awards(ctx context.Context) ([]models.CompanyAward, error) {
	if cached, found := s.cache.Get("awards"); found {
		return cached.([]models.CompanyAward), nil
	}
	out, err := s.repo.ListAwards(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set("awards", out, cache.DefaultExpiration)
	return out, nil
}

func (s *CompanyServiceImpl) Branches(ctx context.Context) ([]models.BranchLocation, error) {
	if cached, found := s.cache.Get("branches"); found {
		return cached.([]models.BranchLocation), nil
	}
	out, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set("branches", out, cache.DefaultExpiration)
	return out, nil
}
