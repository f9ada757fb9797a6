package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/models"
	"github.com/strove-app/strove/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(day string) func() time.Time {
	t, _ := time.Parse("2006-01-02", day)
	return func() time.Time { return t }
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntil(now.Add(2*time.Hour), now))
	assert.Equal(t, 5, DaysUntil(now.Add(5*24*time.Hour), now))
	assert.Equal(t, 0, DaysUntil(now, now))
	assert.Equal(t, -2, DaysUntil(now.Add(-50*time.Hour), now))
}

func TestListPostings(t *testing.T) {
	db := testutil.NewSeededDB(t)
	s := NewPostingService(db)
	s.Now = fixedClock("2026-01-15")
	ctx := context.Background()

	viewer := uuid.New()
	require.NoError(t, db.Create(&models.Star{ProfileID: viewer, PostingID: 1}).Error)
	require.NoError(t, db.Create(&models.Application{ProfileID: viewer, PostingID: 2, Status: models.StatusPending}).Error)

	views, err := s.List(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, views, 6)
	// newest posting first
	assert.Equal(t, "Human-Computer Interaction Research", views[0].Title)

	byID := map[uint]int{}
	for i, v := range views {
		byID[v.ID] = i
	}
	ml := views[byID[1]]
	assert.True(t, ml.Starred)
	assert.False(t, ml.Applied)
	assert.Equal(t, 1, ml.SpotsAvailable)
	assert.Equal(t, 31, ml.DaysUntilDeadline)

	gen := views[byID[2]]
	assert.True(t, gen.Applied)
	assert.False(t, gen.Starred)

	chem := views[byID[3]]
	assert.Equal(t, 10, chem.DaysUntilDeadline)
}

func TestListPostingsAnonymous(t *testing.T) {
	s := NewPostingService(testutil.NewSeededDB(t))
	views, err := s.List(context.Background(), uuid.Nil)
	require.NoError(t, err)
	for _, v := range views {
		assert.False(t, v.Starred)
		assert.False(t, v.Applied)
	}
}

func TestGetPostingWithSimilar(t *testing.T) {
	db := testutil.NewSeededDB(t)
	s := NewPostingService(db)
	ctx := context.Background()

	detail, err := s.Get(ctx, 1, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "Machine Learning Research Assistant", detail.Title)
	require.Len(t, detail.Similar, 1)
	assert.Equal(t, uint(5), detail.Similar[0].ID)

	for i := 0; i < 4; i++ {
		require.NoError(t, db.Create(&models.Posting{
			Professor:  "Dr. Extra",
			Department: "Computer Science",
			Title:      "Extra",
			SpotsTotal: 1,
			Deadline:   time.Now().AddDate(0, 1, 0),
			PostedDate: time.Now(),
		}).Error)
	}
	detail, err = s.Get(ctx, 1, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, detail.Similar, 3)
	for _, p := range detail.Similar {
		assert.NotEqual(t, uint(1), p.ID)
		assert.Equal(t, "Computer Science", p.Department)
	}

	_, err = s.Get(ctx, 999, uuid.Nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
