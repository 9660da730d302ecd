package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/pkg/config"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type ledgerRepository interface {
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error)
	UpdateCounters(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

type userPublisher interface {
	Publish(user models.User)
}

type leaderboardInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// LedgerService mutates the per-user reward counters. XP rolls over
// into levels in fixed steps; karma accumulates without bound. Every
// successful mutation publishes the fresh user record so connected
// sessions can resync.
//
// Counter updates are read-modify-write: the row is loaded, rollover is
// computed in Go, and absolute values are written back. mu serializes
// those mutations so concurrent grants for the same uploader (a
// submission racing a verification reward) cannot interleave reads and
// clobber each other's write.
type LedgerService struct {
	mu     sync.Mutex
	repo   ledgerRepository
	bus    userPublisher
	cache  leaderboardInvalidator
	logger *zap.Logger
	cfg    config.EngineConfig
}

// NewLedgerService constructs the ledger.
func NewLedgerService(repo ledgerRepository, bus userPublisher, cache leaderboardInvalidator, logger *zap.Logger, cfg config.EngineConfig) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LevelStep <= 0 {
		cfg.LevelStep = 500
	}
	return &LedgerService{repo: repo, bus: bus, cache: cache, logger: logger, cfg: cfg}
}

// Get returns a user's current ledger state.
func (s *LedgerService) Get(ctx context.Context, enrollmentID string) (*models.User, error) {
	user, err := s.repo.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load user")
	}
	return user, nil
}

// AddXP grants experience points, rolling the balance over into levels.
// A single large grant can advance several levels; the residual XP is
// carried into the new level.
func (s *LedgerService) AddXP(ctx context.Context, enrollmentID string, amount int) error {
	if amount <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return err
	}

	user.XP += amount
	for user.XP >= s.cfg.LevelStep {
		user.XP -= s.cfg.LevelStep
		user.Level++
	}

	return s.persistCounters(ctx, user)
}

// RewardKarma grants reputation points.
func (s *LedgerService) RewardKarma(ctx context.Context, enrollmentID string, amount int) error {
	if amount <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return err
	}

	user.KarmaPoints += amount

	return s.persistCounters(ctx, user)
}

// UpdateProfile merges the supplied profile fields into the user record
// and returns the updated user.
func (s *LedgerService) UpdateProfile(ctx context.Context, enrollmentID string, req dto.UpdateProfileRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	if req.Mobile != nil {
		user.Mobile = *req.Mobile
	}
	if req.ProfilePic != nil {
		user.ProfilePic = req.ProfilePic
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update profile")
	}

	s.publish(*user)
	return user, nil
}

func (s *LedgerService) persistCounters(ctx context.Context, user *models.User) error {
	if err := s.repo.UpdateCounters(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist reward counters")
	}

	// Stale ranking is acceptable; a failed invalidation only delays it
	// until the TTL expires.
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "leaderboard:*"); err != nil {
			s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}

	s.publish(*user)
	return nil
}

func (s *LedgerService) publish(user models.User) {
	if s.bus != nil {
		s.bus.Publish(user)
	}
}
