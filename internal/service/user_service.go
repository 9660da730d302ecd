package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type userRepository interface {
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Leaderboard(ctx context.Context, branch string, limit int) ([]models.User, error)
}

// UserService serves read access to the participant directory and the
// karma leaderboard. The leaderboard is cached; the ledger invalidates
// the cache on every reward mutation.
type UserService struct {
	repo           userRepository
	cache          *CacheService
	logger         *zap.Logger
	leaderboardTTL time.Duration
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, cache *CacheService, logger *zap.Logger, leaderboardTTL time.Duration) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if leaderboardTTL <= 0 {
		leaderboardTTL = 2 * time.Minute
	}
	return &UserService{repo: repo, cache: cache, logger: logger, leaderboardTTL: leaderboardTTL}
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Leaderboard returns ranked entries, optionally scoped to a branch.
// The second return reports whether the result came from cache.
func (s *UserService) Leaderboard(ctx context.Context, branch string, limit int) ([]models.LeaderboardEntry, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	key := leaderboardCacheKey(branch, limit)

	if s.cache != nil {
		var cached []models.LeaderboardEntry
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, true, nil
		}
	}

	users, err := s.repo.Leaderboard(ctx, branch, limit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load leaderboard")
	}

	entries := make([]models.LeaderboardEntry, len(users))
	for i, user := range users {
		entries[i] = models.LeaderboardEntry{
			Rank:         i + 1,
			EnrollmentID: user.EnrollmentID,
			Branch:       user.Branch,
			KarmaPoints:  user.KarmaPoints,
			Level:        user.Level,
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries, s.leaderboardTTL); err != nil {
			s.logger.Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return entries, false, nil
}

func leaderboardCacheKey(branch string, limit int) string {
	if branch == "" {
		branch = "all"
	}
	return fmt.Sprintf("leaderboard:%s:%d", branch, limit)
}
