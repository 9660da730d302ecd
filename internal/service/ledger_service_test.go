package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/pkg/config"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type mockLedgerRepo struct {
	users       map[string]models.User
	counterErrs error
}

func (m *mockLedgerRepo) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error) {
	if user, ok := m.users[enrollmentID]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedgerRepo) UpdateCounters(ctx context.Context, user *models.User) error {
	if m.counterErrs != nil {
		return m.counterErrs
	}
	if _, ok := m.users[user.EnrollmentID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.EnrollmentID] = *user
	return nil
}

func (m *mockLedgerRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.EnrollmentID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.EnrollmentID] = *user
	return nil
}

type mockUserBus struct {
	published []models.User
}

func (m *mockUserBus) Publish(user models.User) {
	m.published = append(m.published, user)
}

type mockInvalidator struct {
	patterns []string
}

func (m *mockInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func ledgerFixture(seed map[string]models.User) (*LedgerService, *mockLedgerRepo, *mockUserBus, *mockInvalidator) {
	repo := &mockLedgerRepo{users: seed}
	bus := &mockUserBus{}
	cache := &mockInvalidator{}
	svc := NewLedgerService(repo, bus, cache, zap.NewNop(), config.EngineConfig{LevelStep: 500})
	return svc, repo, bus, cache
}

func TestAddXPRollsOverLevels(t *testing.T) {
	svc, repo, bus, cache := ledgerFixture(map[string]models.User{
		"u1": {EnrollmentID: "u1", XP: 480, Level: 1},
	})

	require.NoError(t, svc.AddXP(context.Background(), "u1", 100))

	user := repo.users["u1"]
	assert.Equal(t, 80, user.XP)
	assert.Equal(t, 2, user.Level)
	require.Len(t, bus.published, 1)
	assert.Equal(t, 2, bus.published[0].Level)
	assert.Equal(t, []string{"leaderboard:*"}, cache.patterns)
}

func TestAddXPMultiLevelRollover(t *testing.T) {
	svc, repo, _, _ := ledgerFixture(map[string]models.User{
		"u1": {EnrollmentID: "u1", XP: 490, Level: 1},
	})

	require.NoError(t, svc.AddXP(context.Background(), "u1", 1020))

	user := repo.users["u1"]
	assert.Equal(t, 10, user.XP)
	assert.Equal(t, 4, user.Level)
}

func TestAddXPNonPositiveIsNoop(t *testing.T) {
	svc, repo, bus, _ := ledgerFixture(map[string]models.User{
		"u1": {EnrollmentID: "u1", XP: 100, Level: 1},
	})

	require.NoError(t, svc.AddXP(context.Background(), "u1", 0))
	assert.Equal(t, 100, repo.users["u1"].XP)
	assert.Empty(t, bus.published)
}

func TestAddXPUnknownUser(t *testing.T) {
	svc, _, _, _ := ledgerFixture(map[string]models.User{})

	err := svc.AddXP(context.Background(), "ghost", 50)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRewardKarmaAccumulates(t *testing.T) {
	svc, repo, bus, _ := ledgerFixture(map[string]models.User{
		"u1": {EnrollmentID: "u1", KarmaPoints: 30},
	})

	require.NoError(t, svc.RewardKarma(context.Background(), "u1", 10))
	require.NoError(t, svc.RewardKarma(context.Background(), "u1", 10))

	assert.Equal(t, 50, repo.users["u1"].KarmaPoints)
	assert.Len(t, bus.published, 2)
}

func TestRewardKarmaNeverTouchesLevel(t *testing.T) {
	svc, repo, _, _ := ledgerFixture(map[string]models.User{
		"u1": {EnrollmentID: "u1", XP: 499, Level: 1, KarmaPoints: 0},
	})

	require.NoError(t, svc.RewardKarma(context.Background(), "u1", 10))

	user := repo.users["u1"]
	assert.Equal(t, 499, user.XP)
	assert.Equal(t, 1, user.Level)
	assert.Equal(t, 10, user.KarmaPoints)
}

// laggyLedgerRepo pauses between the row read and its return so that
// unserialized callers would interleave reads and lose counter updates.
type laggyLedgerRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (m *laggyLedgerRepo) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error) {
	m.mu.Lock()
	user, ok := m.users[enrollmentID]
	m.mu.Unlock()
	if !ok {
		return nil, sql.ErrNoRows
	}
	time.Sleep(2 * time.Millisecond)
	return &user, nil
}

func (m *laggyLedgerRepo) UpdateCounters(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.EnrollmentID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.EnrollmentID] = *user
	return nil
}

func (m *laggyLedgerRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	return m.UpdateCounters(ctx, user)
}

func TestConcurrentGrantsDoNotLoseUpdates(t *testing.T) {
	repo := &laggyLedgerRepo{users: map[string]models.User{
		"u1": {EnrollmentID: "u1"},
	}}
	svc := NewLedgerService(repo, nil, nil, zap.NewNop(), config.EngineConfig{LevelStep: 500})

	// A submission grant racing a verification grant for the same uploader.
	var wg sync.WaitGroup
	for _, amount := range []int{20, 100} {
		wg.Add(1)
		go func(amount int) {
			defer wg.Done()
			assert.NoError(t, svc.AddXP(context.Background(), "u1", amount))
		}(amount)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.RewardKarma(context.Background(), "u1", 10))
		}()
	}
	wg.Wait()

	repo.mu.Lock()
	user := repo.users["u1"]
	repo.mu.Unlock()
	assert.Equal(t, 120, user.XP)
	assert.Equal(t, 0, user.Level)
	assert.Equal(t, 50, user.KarmaPoints)
}

func TestUpdateProfileMergesFields(t *testing.T) {
	svc, repo, bus, _ := ledgerFixture(map[string]models.User{
		"u1": {EnrollmentID: "u1", Mobile: "000"},
	})

	mobile := "9876543210"
	user, err := svc.UpdateProfile(context.Background(), "u1", dto.UpdateProfileRequest{Mobile: &mobile})
	require.NoError(t, err)

	assert.Equal(t, "9876543210", user.Mobile)
	assert.Equal(t, "9876543210", repo.users["u1"].Mobile)
	assert.Nil(t, user.ProfilePic)
	assert.Len(t, bus.published, 1)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _, _, _ := ledgerFixture(map[string]models.User{})

	mobile := "123"
	_, err := svc.UpdateProfile(context.Background(), "ghost", dto.UpdateProfileRequest{Mobile: &mobile})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPersistCountersStorageFailure(t *testing.T) {
	svc, repo, bus, _ := ledgerFixture(map[string]models.User{
		"u1": {EnrollmentID: "u1", XP: 0, Level: 1},
	})
	repo.counterErrs = assert.AnError

	err := svc.AddXP(context.Background(), "u1", 50)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
	assert.Empty(t, bus.published)
}
