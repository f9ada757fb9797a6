package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/models"
	"gorm.io/gorm"
)

type MatcherService struct {
	DB *gorm.DB
}

func NewMatcherService(db *gorm.DB) *MatcherService {
	return &MatcherService{DB: db}
}

// FindApplicationsFromEmail returns profileID's open applications whose
// posting the email appears to be about.
func (s *MatcherService) FindApplicationsFromEmail(ctx context.Context, profileID uuid.UUID, subject, rawSender string) ([]models.Application, error) {
	var apps []models.Application
	err := s.DB.WithContext(ctx).Preload("Posting").
		Where("profile_id = ? AND status NOT IN ?", profileID, []string{models.StatusAccepted, models.StatusRejected}).
		Order("id").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}

	var matched []models.Application
	for _, app := range apps {
		if MatchPosting(&app.Posting, subject, rawSender) {
			matched = append(matched, app)
		}
	}
	return matched, nil
}

// MatchPosting reports whether an email with this subject and From header
// looks like it came from, or is about, the posting's lab.
func MatchPosting(p *models.Posting, subject, rawSender string) bool {
	// "Sarah Johnson <sjohnson@nd.edu>" -> name="sarah johnson", addr="sjohnson@nd.edu"
	senderName, senderAddr := "", ""
	if parsed, err := mail.ParseAddress(rawSender); err == nil {
		senderName = strings.ToLower(parsed.Name)
		senderAddr = strings.ToLower(parsed.Address)
	} else {
		senderAddr = strings.ToLower(strings.TrimSpace(rawSender))
	}
	subjectLower := strings.ToLower(subject)

	// Rule 1: the professor wrote it
	if p.ProfessorEmail != "" && senderAddr == strings.ToLower(p.ProfessorEmail) {
		return true
	}

	// Rule 2: professor's name in the subject or sender display name
	for _, name := range professorNames(p.Professor) {
		if strings.Contains(subjectLower, name) {
			return true
		}
		if senderName != "" && strings.Contains(senderName, name) {
			return true
		}
	}

	// Rule 3: lab name in the subject or sender display name
	lab := strings.ToLower(strings.TrimSpace(p.LabName))
	if len(lab) >= 3 {
		if strings.Contains(subjectLower, lab) || (senderName != "" && strings.Contains(senderName, lab)) {
			return true
		}
	}
	return false
}

// professorNames returns "sarah johnson" and "johnson" for "Dr. Sarah Johnson".
// Names shorter than three letters are dropped since they match everything.
func professorNames(professor string) []string {
	fields := strings.Fields(strings.ToLower(professor))
	for len(fields) > 0 {
		switch strings.TrimSuffix(fields[0], ".") {
		case "dr", "prof", "professor":
			fields = fields[1:]
			continue
		}
		break
	}
	if len(fields) == 0 {
		return nil
	}
	var names []string
	if full := strings.Join(fields, " "); len(full) >= 3 {
		names = append(names, full)
	}
	if last := fields[len(fields)-1]; len(fields) > 1 && len(last) >= 3 {
		names = append(names, last)
	}
	return names
}
