package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/models"
	"gorm.io/gorm"
)

// ResumeStore keeps the raw resume files attached to applications.
type ResumeStore interface {
	PutResume(ctx context.Context, key, contentType string, data []byte) error
}

// ApplicationExporter mirrors new applications into an external tracker and
// returns the external record id.
type ApplicationExporter interface {
	ExportApplication(ctx context.Context, app *models.Application) (string, error)
}

// StatusExporter is implemented by exporters that can also follow status
// changes of an exported application.
type StatusExporter interface {
	UpdateApplicationStatus(ctx context.Context, externalID, status string) error
}

type ApplicationService struct {
	DB       *gorm.DB
	Resumes  ResumeStore
	Exporter ApplicationExporter
}

func NewApplicationService(db *gorm.DB, resumes ResumeStore, exporter ApplicationExporter) *ApplicationService {
	return &ApplicationService{DB: db, Resumes: resumes, Exporter: exporter}
}

// Apply submits profileID's application to postingID. A student applies to a
// posting at most once, and only while it has open spots.
func (s *ApplicationService) Apply(ctx context.Context, profileID uuid.UUID, postingID uint, req *dtos.ApplicationRequest) (*models.Application, error) {
	db := s.DB.WithContext(ctx)

	var posting models.Posting
	err := db.First(&posting, postingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.Application{}).
		Where("profile_id = ? AND posting_id = ?", profileID, postingID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyApplied
	}
	if posting.SpotsAvailable() == 0 {
		return nil, ErrNoSpots
	}

	resume, err := DecodeResume(ResumeUpload{Resume: req.Resume, FileName: req.FileName, FileType: req.FileType})
	if err != nil {
		return nil, err
	}

	key := resumeKey(resume)
	if s.Resumes != nil {
		if err := s.Resumes.PutResume(ctx, key, resume.MIMEType, resume.Data); err != nil {
			return nil, fmt.Errorf("store resume: %w", err)
		}
	} else {
		key = ""
	}

	app := &models.Application{
		ProfileID:      profileID,
		PostingID:      postingID,
		Status:         models.StatusPending,
		ResumeKey:      key,
		ResumeFileName: resume.FileName,
		ResumeFileType: resume.MIMEType,
		Answers:        req.Answers,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: app.ID,
			EventType:     "SUBMITTED",
			Details:       fmt.Sprintf("Applied to %s with %s", posting.Title, posting.Professor),
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent apply
		return nil, ErrAlreadyApplied
	}
	if err != nil {
		return nil, err
	}
	app.Posting = posting

	if s.Exporter != nil {
		pageID, err := s.Exporter.ExportApplication(ctx, app)
		if err != nil {
			log.Printf("⚠️  Application %d export failed: %v", app.ID, err)
		} else if pageID != "" {
			app.NotionPageID = pageID
			if err := db.Model(app).Update("notion_page_id", pageID).Error; err != nil {
				log.Printf("⚠️  Saving export id for application %d failed: %v", app.ID, err)
			}
		}
	}
	return app, nil
}

// List returns profileID's applications, newest first.
func (s *ApplicationService) List(ctx context.Context, profileID uuid.UUID) ([]models.Application, error) {
	apps := []models.Application{}
	err := s.DB.WithContext(ctx).Preload("Posting").
		Where("profile_id = ?", profileID).
		Order("created_at DESC").Order("id DESC").
		Find(&apps).Error
	return apps, err
}

// UpdateStatus moves one of profileID's applications to status.
func (s *ApplicationService) UpdateStatus(ctx context.Context, profileID uuid.UUID, appID uint, status string) (*models.Application, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	var app models.Application
	err := s.DB.WithContext(ctx).Preload("Posting").
		Where("id = ? AND profile_id = ?", appID, profileID).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.ChangeStatus(ctx, &app, status, "STATUS_UPDATE", fmt.Sprintf("Status changed to %s.", status)); err != nil {
		return nil, err
	}
	return &app, nil
}

// ChangeStatus records a status move and its audit event. Moving to the
// current status is a no-op.
func (s *ApplicationService) ChangeStatus(ctx context.Context, app *models.Application, status, eventType, details string) error {
	if app.Status == status {
		return nil
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(app).Update("status", status).Error; err != nil {
			return err
		}
		return tx.Create(&models.ApplicationEvent{
			ApplicationID: app.ID,
			EventType:     eventType,
			Details:       details,
		}).Error
	})
	if err != nil {
		return err
	}
	app.Status = status

	if se, ok := s.Exporter.(StatusExporter); ok && app.NotionPageID != "" {
		if err := se.UpdateApplicationStatus(ctx, app.NotionPageID, status); err != nil {
			log.Printf("⚠️  Export status update for application %d failed: %v", app.ID, err)
		}
	}
	return nil
}

// Events returns the audit log of one of profileID's applications.
func (s *ApplicationService) Events(ctx context.Context, profileID uuid.UUID, appID uint) ([]models.ApplicationEvent, error) {
	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Application{}).Where("id = ? AND profile_id = ?", appID, profileID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	events := []models.ApplicationEvent{}
	err := db.Where("application_id = ?", appID).Order("id").Find(&events).Error
	return events, err
}

func resumeKey(r *DecodedResume) string {
	ext := strings.ToLower(filepath.Ext(r.FileName))
	if ext == "" {
		ext = mimetype.Detect(r.Data).Extension()
	}
	return "applications/" + uuid.NewString() + ext
}
