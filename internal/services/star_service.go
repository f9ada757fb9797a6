package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StarCounter keeps a fast per-posting tally of stars. Counts returns the
// current tally for every posting that has one.
type StarCounter interface {
	Add(ctx context.Context, postingID uint, profileID uuid.UUID) error
	Remove(ctx context.Context, postingID uint, profileID uuid.UUID) error
	Counts(ctx context.Context) (map[uint]int64, error)
}

type StarService struct {
	DB      *gorm.DB
	Counter StarCounter
}

func NewStarService(db *gorm.DB, counter StarCounter) *StarService {
	return &StarService{DB: db, Counter: counter}
}

// Star bookmarks a posting. Starring twice is not an error.
func (s *StarService) Star(ctx context.Context, profileID uuid.UUID, postingID uint) error {
	db := s.DB.WithContext(ctx)
	var posting models.Posting
	err := db.Select("id").First(&posting, postingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	err = db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Star{ProfileID: profileID, PostingID: postingID}).Error
	if err != nil {
		return err
	}
	s.touch(ctx, postingID, func(c StarCounter) error { return c.Add(ctx, postingID, profileID) })
	return nil
}

// Unstar removes the bookmark if present.
func (s *StarService) Unstar(ctx context.Context, profileID uuid.UUID, postingID uint) error {
	err := s.DB.WithContext(ctx).
		Where("profile_id = ? AND posting_id = ?", profileID, postingID).
		Delete(&models.Star{}).Error
	if err != nil {
		return err
	}
	s.touch(ctx, postingID, func(c StarCounter) error { return c.Remove(ctx, postingID, profileID) })
	return nil
}

// Starred lists the postings profileID has bookmarked.
func (s *StarService) Starred(ctx context.Context, profileID uuid.UUID) ([]models.Posting, error) {
	postings := []models.Posting{}
	err := s.DB.WithContext(ctx).
		Joins("JOIN stars ON stars.posting_id = postings.id").
		Where("stars.profile_id = ?", profileID).
		Order("stars.created_at DESC").
		Find(&postings).Error
	return postings, err
}

func (s *StarService) touch(ctx context.Context, postingID uint, f func(StarCounter) error) {
	if s.Counter != nil {
		if err := f(s.Counter); err != nil {
			log.Printf("⚠️  Star counter update for posting %d failed: %v", postingID, err)
		}
		return
	}
	if err := s.Recount(ctx, postingID); err != nil {
		log.Printf("⚠️  Recounting stars for posting %d failed: %v", postingID, err)
	}
}

// Recount sets star_count for one posting from the stars table.
func (s *StarService) Recount(ctx context.Context, postingID uint) error {
	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Star{}).Where("posting_id = ?", postingID).Count(&n).Error; err != nil {
		return err
	}
	return db.Model(&models.Posting{}).Where("id = ?", postingID).Update("star_count", n).Error
}

// SyncCounts copies the counter's tallies into postings.star_count and
// returns how many postings were written. Postings the counter no longer
// knows about have lost their last star and are reset to zero.
func (s *StarService) SyncCounts(ctx context.Context) (int, error) {
	if s.Counter == nil {
		return 0, nil
	}
	counts, err := s.Counter.Counts(ctx)
	if err != nil {
		return 0, err
	}
	db := s.DB.WithContext(ctx)
	synced := 0
	ids := make([]uint, 0, len(counts))
	for id, n := range counts {
		ids = append(ids, id)
		if err := db.Model(&models.Posting{}).Where("id = ?", id).Update("star_count", n).Error; err != nil {
			log.Printf("⚠️  Syncing star count for posting %d failed: %v", id, err)
			continue
		}
		synced++
	}

	reset := db.Model(&models.Posting{}).Where("star_count <> 0")
	if len(ids) > 0 {
		reset = reset.Where("id NOT IN ?", ids)
	}
	res := reset.Update("star_count", 0)
	if res.Error != nil {
		return synced, res.Error
	}
	return synced + int(res.RowsAffected), nil
}

// RebuildCounter loads every star from the database into the counter, so a
// flushed cache does not overwrite good counts on the next sync.
func (s *StarService) RebuildCounter(ctx context.Context) (int, error) {
	if s.Counter == nil {
		return 0, nil
	}
	var stars []models.Star
	if err := s.DB.WithContext(ctx).Find(&stars).Error; err != nil {
		return 0, err
	}
	for _, st := range stars {
		if err := s.Counter.Add(ctx, st.PostingID, st.ProfileID); err != nil {
			return 0, fmt.Errorf("rebuild star counter: %w", err)
		}
	}
	return len(stars), nil
}

// StartSync runs SyncCounts every interval until ctx is done.
func (s *StarService) StartSync(ctx context.Context, interval time.Duration) {
	if s.Counter == nil {
		return
	}
	if n, err := s.RebuildCounter(ctx); err != nil {
		log.Printf("⚠️  Star counter rebuild failed: %v", err)
	} else {
		log.Printf("⭐ Star counter rebuilt from %d stars", n)
	}
	log.Printf("⭐ Star count sync started (every %v)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Star count sync stopped")
			return
		case <-ticker.C:
			n, err := s.SyncCounts(ctx)
			if err != nil {
				log.Printf("❌ Star count sync failed: %v", err)
				continue
			}
			log.Printf("⭐ Synced star counts for %d postings", n)
		}
	}
}
