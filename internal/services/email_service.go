package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/strove-app/strove/internal/models"
	"gorm.io/gorm"
)

const maxConcurrentFetches = 4

// EmailService watches the student's inbox for replies from professors and
// moves the matching applications forward.
type EmailService struct {
	DB             *gorm.DB
	LLMService     *LLMService
	MatcherService *MatcherService
	Applications   *ApplicationService
	Mailbox        Mailbox
	// WatchEmail selects the profile that owns the mailbox. Empty means the
	// mailbox's own address.
	WatchEmail string
}

func NewEmailService(db *gorm.DB, llm *LLMService, mailbox Mailbox, matcher *MatcherService, apps *ApplicationService, watchEmail string) *EmailService {
	return &EmailService{
		DB:             db,
		LLMService:     llm,
		MatcherService: matcher,
		Applications:   apps,
		Mailbox:        mailbox,
		WatchEmail:     watchEmail,
	}
}

// StartWatcher syncs once right away and then every interval until ctx is done.
func (s *EmailService) StartWatcher(ctx context.Context, interval time.Duration) {
	if s.Mailbox == nil {
		log.Println("⚠️  Gmail watcher disabled (no client). Check credentials.")
		return
	}
	if !s.LLMService.Enabled() {
		log.Println("⚠️  Gmail watcher disabled (no LLM provider configured).")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.runCycle(ctx)
		select {
		case <-ctx.Done():
			log.Println("🛑 Gmail watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *EmailService) runCycle(ctx context.Context) {
	// a stuck cycle must not hold up the next tick forever
	cycleCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := s.SyncEmails(cycleCtx); err != nil {
		log.Printf("❌ Sync failed: %v", err)
	}
}

// SyncEmails runs one sync cycle: pick full or incremental sync, fetch the
// new messages, process each one once and advance the bookmark.
func (s *EmailService) SyncEmails(ctx context.Context) error {
	log.Println("📧 Email watcher: starting sync cycle...")

	owner, err := s.mailboxOwner(ctx)
	if err != nil {
		return err
	}

	var state models.MailboxState
	if err := s.DB.WithContext(ctx).Where(models.MailboxState{ProfileID: owner.ID}).FirstOrCreate(&state).Error; err != nil {
		return fmt.Errorf("load mailbox state: %w", err)
	}

	var ids []string
	var newHistoryID uint64
	if state.LastHistoryID == 0 {
		log.Println("🆕 First run detected. Running full bootstrap sync...")
		ids, newHistoryID, err = s.Mailbox.FullSync(ctx)
	} else {
		ids, newHistoryID, err = s.Mailbox.IncrementalSync(ctx, state.LastHistoryID)
		if errors.Is(err, ErrHistoryExpired) {
			log.Println("⚠️  History id expired. Falling back to full sync.")
			ids, newHistoryID, err = s.Mailbox.FullSync(ctx)
		}
	}
	if err != nil {
		return err
	}

	ids, err = s.unprocessed(ctx, ids)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		log.Println("✅ No new relevant emails found.")
	} else {
		log.Printf("📥 Processing %d candidate emails...", len(ids))
		for _, msg := range s.fetchAll(ctx, ids) {
			s.processSingleEmail(ctx, owner, msg)
			if err := s.DB.WithContext(ctx).Create(&models.ProcessedEmail{ID: msg.ID}).Error; err != nil {
				log.Printf("⚠️  Could not mark email %s processed: %v", msg.ID, err)
			}
		}
	}

	// advance even when nothing matched so this window is not scanned again
	if newHistoryID > state.LastHistoryID {
		if err := s.DB.WithContext(ctx).Model(&state).Update("last_history_id", newHistoryID).Error; err != nil {
			return fmt.Errorf("save history id: %w", err)
		}
		log.Printf("🔖 History updated to %d", newHistoryID)
	}
	return nil
}

func (s *EmailService) mailboxOwner(ctx context.Context) (*models.Profile, error) {
	email := s.WatchEmail
	if email == "" {
		addr, err := s.Mailbox.Address(ctx)
		if err != nil {
			return nil, fmt.Errorf("mailbox address: %w", err)
		}
		email = addr
	}
	var owner models.Profile
	err := s.DB.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no profile for mailbox %s", email)
	}
	return &owner, err
}

// unprocessed drops ids already handled in an earlier cycle.
func (s *EmailService) unprocessed(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var seen []string
	if err := s.DB.WithContext(ctx).Model(&models.ProcessedEmail{}).Where("id IN ?", ids).Pluck("id", &seen).Error; err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(seen))
	for _, id := range seen {
		done[id] = true
	}
	var out []string
	for _, id := range ids {
		if !done[id] {
			done[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// fetchAll downloads messages concurrently. Failed fetches are logged and
// skipped; they are picked up again on the next full sync.
func (s *EmailService) fetchAll(ctx context.Context, ids []string) []*MailMessage {
	p := pool.NewWithResults[*MailMessage]().WithMaxGoroutines(maxConcurrentFetches).WithContext(ctx)
	for _, id := range ids {
		p.Go(func(ctx context.Context) (*MailMessage, error) {
			msg, err := s.Mailbox.Fetch(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", id, err)
			}
			return msg, nil
		})
	}
	msgs, err := p.Wait()
	if err != nil {
		log.Printf("⚠️  Some emails could not be fetched: %v", err)
	}
	return msgs
}

// processSingleEmail matches the email to an application, asks the model what
// it means and records the new status.
func (s *EmailService) processSingleEmail(ctx context.Context, owner *models.Profile, msg *MailMessage) {
	shortSub := msg.Subject
	if len(shortSub) > 20 {
		shortSub = shortSub[:20] + "..."
	}
	logPrefix := fmt.Sprintf("[Email: %s]", shortSub)
	log.Printf("%s 📥 START processing from: %s", logPrefix, msg.From)

	apps, err := s.MatcherService.FindApplicationsFromEmail(ctx, owner.ID, msg.Subject, msg.From)
	if err != nil {
		log.Printf("%s ❌ SKIPPED: matching failed: %v", logPrefix, err)
		return
	}
	if len(apps) == 0 {
		log.Printf("%s ❌ SKIPPED: no open application matches the sender or subject.", logPrefix)
		return
	}

	var target *models.Application
	if len(apps) == 1 {
		target = &apps[0]
		log.Printf("%s 🎯 Auto-linked to single open application: %s", logPrefix, target.Posting.Title)
	} else {
		titles := make([]string, 0, len(apps))
		for _, a := range apps {
			titles = append(titles, a.Posting.Title)
		}
		log.Printf("%s ⚠️  Ambiguous: found %d applications (%v). Asking LLM to pick...", logPrefix, len(apps), titles)
		idx := s.LLMService.IdentifyApplication(ctx, titles, msg.Subject, msg.Body)
		if idx < 0 || idx >= len(apps) {
			log.Printf("%s ❌ SKIPPED: LLM could not tell which application this email is about.", logPrefix)
			return
		}
		target = &apps[idx]
		log.Printf("%s 🎯 LLM selected: %s", logPrefix, target.Posting.Title)
	}

	log.Printf("%s 🤖 Analyzing content with LLM...", logPrefix)
	decision, err := s.LLMService.AnalyzeReplyStatus(ctx, target.Posting.Title, target.Posting.Professor, msg.Subject, msg.Body)
	if err != nil {
		log.Printf("%s ❌ SKIPPED: LLM analysis error: %v", logPrefix, err)
		return
	}
	log.Printf("%s 🧠 LLM decision: status=%s | summary=%s", logPrefix, decision.Status, decision.Summary)

	status, ok := replyStatus(decision.Status)
	if !ok {
		log.Printf("%s ⏹️  No update needed (status is %s).", logPrefix, decision.Status)
		return
	}
	if models.TerminalStatus(target.Status) {
		log.Printf("%s ⏹️  Application already %s. Ignoring.", logPrefix, target.Status)
		return
	}
	if status == target.Status {
		log.Printf("%s ⏹️  Status is already %s. Ignoring.", logPrefix, status)
		return
	}

	log.Printf("%s ⚡ UPDATING: %s -> %s", logPrefix, target.Status, status)
	details := fmt.Sprintf("Status changed to %s. Summary: %s", status, decision.Summary)
	if err := s.Applications.ChangeStatus(ctx, target, status, "EMAIL_UPDATE", details); err != nil {
		log.Printf("%s ❌ Update failed: %v", logPrefix, err)
		return
	}
	log.Printf("%s ✅ Success! Event logged.", logPrefix)
}

// replyStatus maps the model's verdict to an application status. NO_CHANGE,
// UNKNOWN and anything unexpected map to nothing.
func replyStatus(verdict string) (string, bool) {
	switch verdict {
	case "UNDER_REVIEW":
		return models.StatusUnderReview, true
	case "ACCEPTED":
		return models.StatusAccepted, true
	case "REJECTED":
		return models.StatusRejected, true
	}
	return "", false
}
