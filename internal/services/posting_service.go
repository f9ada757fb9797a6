package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/models"
	"gorm.io/gorm"
)

const maxSimilarPostings = 3

type PostingService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewPostingService(db *gorm.DB) *PostingService {
	return &PostingService{DB: db, Now: time.Now}
}

// List returns every posting, newest first, annotated for viewer.
func (s *PostingService) List(ctx context.Context, viewer uuid.UUID) ([]dtos.PostingView, error) {
	var postings []models.Posting
	if err := s.DB.WithContext(ctx).Order("posted_date DESC").Order("id").Find(&postings).Error; err != nil {
		return nil, err
	}
	starred, applied, err := s.viewerSets(ctx, viewer)
	if err != nil {
		return nil, err
	}
	views := make([]dtos.PostingView, 0, len(postings))
	for _, p := range postings {
		views = append(views, s.view(p, starred, applied))
	}
	return views, nil
}

// Get returns one posting plus up to three others from the same department.
func (s *PostingService) Get(ctx context.Context, id uint, viewer uuid.UUID) (*dtos.PostingDetail, error) {
	db := s.DB.WithContext(ctx)
	var posting models.Posting
	err := db.First(&posting, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var similar []models.Posting
	if err := db.Where("department = ? AND id <> ?", posting.Department, posting.ID).
		Order("posted_date DESC").
		Limit(maxSimilarPostings).
		Find(&similar).Error; err != nil {
		return nil, err
	}

	starred, applied, err := s.viewerSets(ctx, viewer)
	if err != nil {
		return nil, err
	}
	detail := &dtos.PostingDetail{
		PostingView: s.view(posting, starred, applied),
		Similar:     make([]dtos.PostingView, 0, len(similar)),
	}
	for _, p := range similar {
		detail.Similar = append(detail.Similar, s.view(p, starred, applied))
	}
	return detail, nil
}

func (s *PostingService) view(p models.Posting, starred, applied map[uint]bool) dtos.PostingView {
	return dtos.PostingView{
		Posting:           p,
		SpotsAvailable:    p.SpotsAvailable(),
		DaysUntilDeadline: DaysUntil(p.Deadline, s.Now()),
		Starred:           starred[p.ID],
		Applied:           applied[p.ID],
	}
}

func (s *PostingService) viewerSets(ctx context.Context, viewer uuid.UUID) (starred, applied map[uint]bool, err error) {
	starred, applied = map[uint]bool{}, map[uint]bool{}
	if viewer == uuid.Nil {
		return starred, applied, nil
	}
	db := s.DB.WithContext(ctx)

	var ids []uint
	if err := db.Model(&models.Star{}).Where("profile_id = ?", viewer).Pluck("posting_id", &ids).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		starred[id] = true
	}

	ids = nil
	if err := db.Model(&models.Application{}).Where("profile_id = ?", viewer).Pluck("posting_id", &ids).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		applied[id] = true
	}
	return starred, applied, nil
}

// DaysUntil is the number of days from now to deadline, rounded up; negative
// once the deadline has passed.
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}
