package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/models"
	"github.com/strove-app/strove/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdfRequest() *dtos.ApplicationRequest {
	return &dtos.ApplicationRequest{
		Resume:   "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 resume")),
		FileName: "Jane_Doe.pdf",
		FileType: "application/pdf",
		Answers:  map[string]string{"why": "I like graphs"},
	}
}

func TestApplyStoresResumeAndEvent(t *testing.T) {
	db := testutil.NewSeededDB(t)
	store := &fakeResumeStore{}
	exporter := &fakeExporter{pageID: "page-123"}
	s := NewApplicationService(db, store, exporter)
	ctx := context.Background()
	student := uuid.New()

	app, err := s.Apply(ctx, student, 1, pdfRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.True(t, strings.HasPrefix(app.ResumeKey, "applications/"))
	assert.True(t, strings.HasSuffix(app.ResumeKey, ".pdf"))
	assert.Equal(t, []byte("%PDF-1.4 resume"), store.puts[app.ResumeKey])
	assert.Equal(t, "Machine Learning Research Assistant", app.Posting.Title)

	require.Len(t, exporter.apps, 1)
	var saved models.Application
	require.NoError(t, db.First(&saved, app.ID).Error)
	assert.Equal(t, "page-123", saved.NotionPageID)
	assert.Equal(t, "I like graphs", saved.Answers["why"])

	events, err := s.Events(ctx, student, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "SUBMITTED", events[0].EventType)

	_, err = s.UpdateStatus(ctx, student, app.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, []string{"page-123=accepted"}, exporter.statuses)
}

func TestApplyRejectsDuplicatesAndFullPostings(t *testing.T) {
	db := testutil.NewSeededDB(t)
	s := NewApplicationService(db, nil, nil)
	ctx := context.Background()
	student := uuid.New()

	_, err := s.Apply(ctx, student, 1, pdfRequest())
	require.NoError(t, err)
	_, err = s.Apply(ctx, student, 1, pdfRequest())
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	require.NoError(t, db.Model(&models.Posting{}).Where("id = ?", 3).Update("spots_filled", 1).Error)
	_, err = s.Apply(ctx, student, 3, pdfRequest())
	assert.ErrorIs(t, err, ErrNoSpots)

	_, err = s.Apply(ctx, student, 999, pdfRequest())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyWithoutStorageOrExport(t *testing.T) {
	s := NewApplicationService(testutil.NewSeededDB(t), nil, &fakeExporter{err: errors.New("notion down")})
	app, err := s.Apply(context.Background(), uuid.New(), 2, pdfRequest())
	require.NoError(t, err)
	assert.Empty(t, app.ResumeKey)
	assert.Empty(t, app.NotionPageID)
	assert.Equal(t, "Jane_Doe.pdf", app.ResumeFileName)
}

func TestApplyFailsWhenStorageFails(t *testing.T) {
	db := testutil.NewSeededDB(t)
	s := NewApplicationService(db, &fakeResumeStore{err: errors.New("bucket gone")}, nil)
	_, err := s.Apply(context.Background(), uuid.New(), 2, pdfRequest())
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&models.Application{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestApplyRequiresResume(t *testing.T) {
	s := NewApplicationService(testutil.NewSeededDB(t), nil, nil)
	_, err := s.Apply(context.Background(), uuid.New(), 2, &dtos.ApplicationRequest{})
	assert.ErrorIs(t, err, ErrResumeRequired)
}

func TestListAndUpdateStatus(t *testing.T) {
	db := testutil.NewSeededDB(t)
	s := NewApplicationService(db, nil, nil)
	ctx := context.Background()
	student := uuid.New()

	first, err := s.Apply(ctx, student, 1, pdfRequest())
	require.NoError(t, err)
	_, err = s.Apply(ctx, student, 4, pdfRequest())
	require.NoError(t, err)
	_, err = s.Apply(ctx, uuid.New(), 4, pdfRequest())
	require.NoError(t, err)

	apps, err := s.List(ctx, student)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "Quantum Computing Research", apps[0].Posting.Title)

	updated, err := s.UpdateStatus(ctx, student, first.ID, "UNDER_REVIEW")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, updated.Status)

	_, err = s.UpdateStatus(ctx, student, first.ID, "hired")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = s.UpdateStatus(ctx, uuid.New(), first.ID, "accepted")
	assert.ErrorIs(t, err, ErrNotFound)

	events, err := s.Events(ctx, student, first.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "STATUS_UPDATE", events[1].EventType)

	_, err = s.Events(ctx, uuid.New(), first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEmpty(t *testing.T) {
	s := NewApplicationService(testutil.NewSeededDB(t), nil, nil)
	apps, err := s.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestApplyRaceReportsConflict(t *testing.T) {
	db := testutil.NewSeededDB(t)
	s := NewApplicationService(db, nil, nil)
	student := uuid.New()

	insertBeforeCreate(t, db, "applications", "INSERT INTO applications (profile_id, posting_id, status) VALUES (?, ?, ?)", student, 1, models.StatusPending)
	_, err := s.Apply(context.Background(), student, 1, pdfRequest())
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	assert.Zero(t, count)
}
