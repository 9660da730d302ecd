package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/internal/service"
	"github.com/openverse/campus-api/pkg/config"
)

type memoryUserRepo struct {
	users map[string]models.User
}

func (m *memoryUserRepo) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error) {
	user, ok := m.users[enrollmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (m *memoryUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := []models.User{}
	for _, user := range m.users {
		if filter.Branch != "" && user.Branch != filter.Branch {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentID < out[j].EnrollmentID })
	return out, len(out), nil
}

func (m *memoryUserRepo) Leaderboard(ctx context.Context, branch string, limit int) ([]models.User, error) {
	users, _, _ := m.List(ctx, models.UserFilter{Branch: branch})
	sort.Slice(users, func(i, j int) bool { return users[i].KarmaPoints > users[j].KarmaPoints })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (m *memoryUserRepo) UpdateCounters(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.EnrollmentID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.EnrollmentID] = *user
	return nil
}

func (m *memoryUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	return m.UpdateCounters(ctx, user)
}

func newUserHandlerForTest(seed ...models.User) *UserHandler {
	repo := &memoryUserRepo{users: map[string]models.User{}}
	for _, user := range seed {
		repo.users[user.EnrollmentID] = user
	}
	users := service.NewUserService(repo, nil, nil, 0)
	ledger := service.NewLedgerService(repo, nil, nil, nil, config.EngineConfig{})
	return NewUserHandler(users, ledger)
}

func TestUserHandlerMe(t *testing.T) {
	h := newUserHandlerForTest(models.User{EnrollmentID: "EN-1", Branch: "CSE", KarmaPoints: 30})

	c, w := testContext(t, http.MethodGet, "/users/me", nil)
	asStudent(c, "EN-1")

	h.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "EN-1", envelope.Data.EnrollmentID)
	assert.Equal(t, 30, envelope.Data.KarmaPoints)
}

func TestUserHandlerMeRequiresIdentity(t *testing.T) {
	h := newUserHandlerForTest()

	c, w := testContext(t, http.MethodGet, "/users/me", nil)

	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandlerGetUnknownUser(t *testing.T) {
	h := newUserHandlerForTest()

	c, w := testContext(t, http.MethodGet, "/users/EN-404", nil)
	c.Params = gin.Params{{Key: "enrollmentId", Value: "EN-404"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandlerUpdateProfile(t *testing.T) {
	h := newUserHandlerForTest(models.User{EnrollmentID: "EN-1", Branch: "CSE"})

	mobile := "9876543210"
	c, w := testContext(t, http.MethodPatch, "/users/EN-1/profile", dto.UpdateProfileRequest{Mobile: &mobile})
	c.Params = gin.Params{{Key: "enrollmentId", Value: "EN-1"}}
	asStudent(c, "EN-1")

	h.UpdateProfile(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "9876543210", envelope.Data.Mobile)
}

func TestUserHandlerList(t *testing.T) {
	h := newUserHandlerForTest(
		models.User{EnrollmentID: "EN-1", Branch: "CSE"},
		models.User{EnrollmentID: "EN-2", Branch: "ECE"},
	)

	c, w := testContext(t, http.MethodGet, "/users?branch=CSE", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data       []models.User      `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "EN-1", envelope.Data[0].EnrollmentID)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestUserHandlerLeaderboard(t *testing.T) {
	h := newUserHandlerForTest(
		models.User{EnrollmentID: "EN-1", Branch: "CSE", KarmaPoints: 10},
		models.User{EnrollmentID: "EN-2", Branch: "CSE", KarmaPoints: 40},
	)

	c, w := testContext(t, http.MethodGet, "/leaderboard", nil)

	h.Leaderboard(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.LeaderboardEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "EN-2", envelope.Data[0].EnrollmentID)
	assert.Equal(t, 1, envelope.Data[0].Rank)
}
