package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/internal/service"
)

type memorySubjectRepo struct {
	subjects map[string]models.Subject
}

func (m *memorySubjectRepo) List(ctx context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(m.subjects))
	for _, subject := range m.subjects {
		out = append(out, subject)
	}
	return out, nil
}

func (m *memorySubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

func (m *memorySubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *memorySubjectRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.subjects, id)
	return nil
}

func newSubjectHandlerForTest(t *testing.T, seed ...models.Subject) *SubjectHandler {
	t.Helper()
	repo := &memorySubjectRepo{subjects: map[string]models.Subject{}}
	for _, subject := range seed {
		repo.subjects[subject.ID] = subject
	}
	subjects := service.NewSubjectService(repo, nil, nil)

	engineHandler, _ := newContentHandlerForTest(t, models.ContentItem{
		ID: "c1", SubjectID: "CS301", Title: "verified", Type: models.ContentNote,
		UploaderID: "EN-1", IsVerified: true,
	})
	return NewSubjectHandler(subjects, engineHandler.engine)
}

func TestSubjectHandlerCreate(t *testing.T) {
	h := newSubjectHandlerForTest(t)

	c, w := testContext(t, http.MethodPost, "/subjects", dto.CreateSubjectRequest{
		ID: "CS301", Name: "Operating Systems", Code: "OS",
	})
	asAdmin(c)

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope struct {
		Data models.Subject `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "CS301", envelope.Data.ID)
}

func TestSubjectHandlerCreateDuplicate(t *testing.T) {
	h := newSubjectHandlerForTest(t, models.Subject{ID: "CS301", Name: "OS", Code: "OS"})

	c, w := testContext(t, http.MethodPost, "/subjects", dto.CreateSubjectRequest{
		ID: "CS301", Name: "Operating Systems", Code: "OS",
	})
	asAdmin(c)

	h.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubjectHandlerGetNotFound(t *testing.T) {
	h := newSubjectHandlerForTest(t)

	c, w := testContext(t, http.MethodGet, "/subjects/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubjectHandlerDelete(t *testing.T) {
	h := newSubjectHandlerForTest(t, models.Subject{ID: "CS301", Name: "OS", Code: "OS"})

	c, w := testContext(t, http.MethodDelete, "/subjects/CS301", nil)
	c.Params = gin.Params{{Key: "id", Value: "CS301"}}
	asAdmin(c)

	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSubjectHandlerDirectory(t *testing.T) {
	h := newSubjectHandlerForTest(t, models.Subject{ID: "CS301", Name: "OS", Code: "OS"})

	c, w := testContext(t, http.MethodGet, "/subjects/CS301/directory", nil)
	c.Params = gin.Params{{Key: "id", Value: "CS301"}}

	h.Directory(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []dto.ContentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "c1", envelope.Data[0].ID)
}
