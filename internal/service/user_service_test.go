package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type mockUserRepo struct {
	users      []models.User
	listErr    error
	boardErr   error
	boardCalls int
	lastBranch string
	lastLimit  int
}

func (m *mockUserRepo) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error) {
	for _, u := range m.users {
		if u.EnrollmentID == enrollmentID {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.User
	for _, u := range m.users {
		if filter.Branch != "" && u.Branch != filter.Branch {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) Leaderboard(ctx context.Context, branch string, limit int) ([]models.User, error) {
	if m.boardErr != nil {
		return nil, m.boardErr
	}
	m.boardCalls++
	m.lastBranch = branch
	m.lastLimit = limit
	var out []models.User
	for _, u := range m.users {
		if branch != "" && u.Branch != branch {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = nil
	return nil
}

func TestUserListPaginationDefaults(t *testing.T) {
	repo := &mockUserRepo{users: []models.User{
		{EnrollmentID: "u1", Branch: "Computer Science"},
		{EnrollmentID: "u2", Branch: "Mechanical"},
	}}
	svc := NewUserService(repo, nil, zap.NewNop(), 0)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestUserListStorageFailure(t *testing.T) {
	repo := &mockUserRepo{listErr: assert.AnError}
	svc := NewUserService(repo, nil, zap.NewNop(), 0)

	_, _, err := svc.List(context.Background(), models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
}

func TestLeaderboardRanksAndCaches(t *testing.T) {
	repo := &mockUserRepo{users: []models.User{
		{EnrollmentID: "u1", Branch: "Computer Science", KarmaPoints: 90, Level: 3},
		{EnrollmentID: "u2", Branch: "Computer Science", KarmaPoints: 40, Level: 2},
	}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewUserService(repo, cache, zap.NewNop(), time.Minute)

	entries, cached, err := svc.Leaderboard(context.Background(), "", 10)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "u1", entries[0].EnrollmentID)
	assert.Equal(t, 2, entries[1].Rank)

	entries, cached, err = svc.Leaderboard(context.Background(), "", 10)
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, repo.boardCalls)
}

func TestLeaderboardBranchScope(t *testing.T) {
	repo := &mockUserRepo{users: []models.User{
		{EnrollmentID: "u1", Branch: "Computer Science", KarmaPoints: 90},
		{EnrollmentID: "u2", Branch: "Mechanical", KarmaPoints: 100},
	}}
	svc := NewUserService(repo, nil, zap.NewNop(), time.Minute)

	entries, _, err := svc.Leaderboard(context.Background(), "Mechanical", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u2", entries[0].EnrollmentID)
	assert.Equal(t, "Mechanical", repo.lastBranch)
}

func TestLeaderboardLimitClamp(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop(), time.Minute)

	_, _, err := svc.Leaderboard(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)

	_, _, err = svc.Leaderboard(context.Background(), "", 500)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)
}

func TestLeaderboardStorageFailure(t *testing.T) {
	repo := &mockUserRepo{boardErr: assert.AnError}
	svc := NewUserService(repo, nil, zap.NewNop(), time.Minute)

	_, _, err := svc.Leaderboard(context.Background(), "", 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
}
