package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Years offered during onboarding.
var StudentYears = []string{"Freshman", "Sophomore", "Junior", "Senior", "Graduate Student"}

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := s.DB.WithContext(ctx).First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertProfile writes the editable profile fields, inserting the row when it
// does not exist yet. An empty GPA or work history is stored as NULL.
func (s *ProfileService) UpsertProfile(ctx context.Context, id uuid.UUID, email string, req *dtos.ProfileUpdateRequest) (*models.Profile, error) {
	profile := models.Profile{
		ID:        id,
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		Bio:       req.Bio,
		Major:     req.Major,
		Year:      req.Year,
		UpdatedAt: time.Now().UTC(),
	}
	if gpa := strings.TrimSpace(req.GPA); gpa != "" {
		profile.GPA = &gpa
	}
	if len(req.WorkExperience) > 0 {
		profile.WorkExperience = req.WorkExperience
	}

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "name", "bio", "major", "year", "gpa", "work_experience", "updated_at",
		}),
	}).Create(&profile).Error
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// SaveOnboarding stores the answers of the three onboarding steps.
func (s *ProfileService) SaveOnboarding(ctx context.Context, id uuid.UUID, req *dtos.OnboardingRequest) (*models.Profile, error) {
	major := strings.TrimSpace(req.Major)
	if major == "" {
		return nil, invalid("Major is required")
	}
	if !validYear(req.Year) {
		return nil, invalid("Year must be one of " + strings.Join(StudentYears, ", "))
	}
	interests := dedupe(req.ResearchInterests)
	if len(interests) == 0 {
		return nil, invalid("Pick at least one research interest")
	}

	encoded, err := json.Marshal(interests)
	if err != nil {
		return nil, err
	}
	// map updates skip the json serializer, so the column gets encoded text
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"major":              major,
		"year":               req.Year,
		"research_interests": string(encoded),
		"updated_at":         time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetProfile(ctx, id)
}

// PublicProfile returns a profile together with its follow counts.
func (s *ProfileService) PublicProfile(ctx context.Context, id uuid.UUID) (*dtos.PublicProfile, error) {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.FollowStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dtos.PublicProfile{Profile: *profile, Followers: stats.Followers, Following: stats.Following}, nil
}

func (s *ProfileService) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	db := s.DB.WithContext(ctx)
	if _, err := s.GetProfile(ctx, followingID); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.Follower{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyFollowing
	}
	err := db.Create(&models.Follower{FollowerID: followerID, FollowingID: followingID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyFollowing
	}
	return err
}

func (s *ProfileService) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	res := s.DB.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follower{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// FollowStats counts who follows id and whom id follows.
func (s *ProfileService) FollowStats(ctx context.Context, id uuid.UUID) (*dtos.FollowStats, error) {
	db := s.DB.WithContext(ctx)
	stats := &dtos.FollowStats{FollowingIDs: []uuid.UUID{}}

	if err := db.Model(&models.Follower{}).Where("following_id = ?", id).Count(&stats.Followers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Follower{}).Where("follower_id = ?", id).Count(&stats.Following).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Follower{}).Where("follower_id = ?", id).Pluck("following_id", &stats.FollowingIDs).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func validYear(y string) bool {
	for _, v := range StudentYears {
		if v == y {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
