package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Application statuses. Accepted and rejected are terminal.
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
)

// ValidStatus reports whether s is one of the known application statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// TerminalStatus reports whether an application in status s is closed.
func TerminalStatus(s string) bool {
	return s == StatusAccepted || s == StatusRejected
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `json:"name"`
	PasswordHash string `gorm:"not null" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// WorkExperience is one entry of a resume's work history, as returned by the
// extraction endpoint and stored on the profile.
type WorkExperience struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    *string `json:"location"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Description *string `json:"description"`
}

// UnmarshalJSON accepts numbers and booleans where strings are expected, so a
// model reply like "startDate": 2023 still decodes.
func (w *WorkExperience) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*w = WorkExperience{
		Location:    LooseString(raw["location"]),
		StartDate:   LooseString(raw["startDate"]),
		EndDate:     LooseString(raw["endDate"]),
		Description: LooseString(raw["description"]),
	}
	if s := LooseString(raw["title"]); s != nil {
		w.Title = *s
	}
	if s := LooseString(raw["company"]); s != nil {
		w.Company = *s
	}
	return nil
}

// LooseString reads a JSON string, number or boolean as text. Null, missing
// and structured values give nil.
func LooseString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var s string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil
		}
		s = strconv.FormatBool(b)
	case 'n', '{', '[':
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil
		}
		s = n.String()
	}
	return &s
}

// Profile shares its ID with the owning User.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`

	Email             string           `json:"email"`
	Name              string           `json:"name"`
	Bio               string           `json:"bio"`
	Major             string           `json:"major"`
	Year              string           `json:"year"`
	GPA               *string          `gorm:"column:gpa" json:"gpa"`
	WorkExperience    []WorkExperience `gorm:"type:jsonb;serializer:json" json:"workExperience"`
	ResearchInterests []string         `gorm:"type:jsonb;serializer:json" json:"researchInterests"`
	ProfileImage      *string          `json:"profileImage"`
}

type Follower struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	FollowerID  uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_follower_following;not null" json:"follower_id"`
	FollowingID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_follower_following;not null" json:"following_id"`
}

type Posting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Professor        string    `gorm:"not null" json:"professor"`
	ProfessorEmail   string    `json:"professorEmail"`
	Department       string    `gorm:"index" json:"department"`
	Title            string    `gorm:"not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	SpotsTotal       int       `json:"spotsTotal"`
	SpotsFilled      int       `json:"spotsFilled"`
	Deadline         time.Time `json:"deadline"`
	PostedDate       time.Time `json:"postedDate"`
	LabName          string    `json:"labName"`
	LabLocation      string    `json:"labLocation"`
	InternshipLength string    `json:"internshipLength"`
	Summary          string    `gorm:"type:text" json:"summary"`
	StarCount        int64     `json:"starCount"`
}

// SpotsAvailable is never negative.
func (p *Posting) SpotsAvailable() int {
	if n := p.SpotsTotal - p.SpotsFilled; n > 0 {
		return n
	}
	return 0
}

type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"appliedDate"`
	UpdatedAt time.Time `json:"updated_at"`

	ProfileID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_application_pair;not null" json:"profile_id"`
	PostingID uint      `gorm:"uniqueIndex:idx_application_pair;not null" json:"posting_id"`
	// Association: needs Preload()
	Posting Posting `json:"posting"`

	Status         string            `gorm:"default:'pending';not null" json:"status"`
	ResumeKey      string            `json:"resumeKey"`
	ResumeFileName string            `json:"resumeFileName"`
	ResumeFileType string            `json:"resumeFileType"`
	Answers        map[string]string `gorm:"type:jsonb;serializer:json" json:"answers"`
	NotionPageID   string            `json:"-"`
}

type ApplicationEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ApplicationID uint      `gorm:"index" json:"application_id"`
	EventType     string    `json:"event_type"`
	Details       string    `gorm:"type:text" json:"details"`
}

type Star struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ProfileID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_star_pair;not null" json:"profile_id"`
	PostingID uint      `gorm:"index;uniqueIndex:idx_star_pair;not null" json:"posting_id"`
}

// MailboxState is the mail watcher's bookmark for one student's inbox.
type MailboxState struct {
	ID            uint      `gorm:"primaryKey"`
	UpdatedAt     time.Time
	ProfileID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	LastHistoryID uint64
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}
