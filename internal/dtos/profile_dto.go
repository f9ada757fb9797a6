package dtos

import (
	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/models"
)

type ProfileUpdateRequest struct {
	Name           string                  `json:"name"`
	Bio            string                  `json:"bio"`
	Major          string                  `json:"major"`
	Year           string                  `json:"year"`
	GPA            string                  `json:"gpa"`
	WorkExperience []models.WorkExperience `json:"workExperience"`
}

type OnboardingRequest struct {
	Major             string   `json:"major"`
	Year              string   `json:"year"`
	ResearchInterests []string `json:"researchInterests"`
}

type FollowStats struct {
	Followers    int64       `json:"followers"`
	Following    int64       `json:"following"`
	FollowingIDs []uuid.UUID `json:"followingIds"`
}

type PublicProfile struct {
	models.Profile
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}
