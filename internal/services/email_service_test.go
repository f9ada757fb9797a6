package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/dtos"
	"github.com/strove-app/strove/internal/models"
	"github.com/strove-app/strove/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"gorm.io/gorm"
)

type fakeMailbox struct {
	mu          sync.Mutex
	address     string
	full        []string
	incremental []string
	historyID   uint64
	expired     bool
	fullSyncs   int
	messages    map[string]*MailMessage
}

func (f *fakeMailbox) Address(ctx context.Context) (string, error) { return f.address, nil }

func (f *fakeMailbox) FullSync(ctx context.Context) ([]string, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullSyncs++
	return f.full, f.historyID, nil
}

func (f *fakeMailbox) IncrementalSync(ctx context.Context, startID uint64) ([]string, uint64, error) {
	if f.expired {
		return nil, 0, ErrHistoryExpired
	}
	return f.incremental, f.historyID, nil
}

func (f *fakeMailbox) Fetch(ctx context.Context, id string) (*MailMessage, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("gone")
	}
	return msg, nil
}

// scriptedLLM answers by looking at the prompt, so the order messages are
// fetched in does not matter. The first matching needle wins.
type scriptedLLM struct {
	mu      sync.Mutex
	calls   int
	answers [][2]string
}

func (s *scriptedLLM) on(needle, answer string) {
	s.answers = append(s.answers, [2]string{needle, answer})
}

func (s *scriptedLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	prompt := messages[len(messages)-1].Parts[0].(llms.TextContent).Text
	for _, a := range s.answers {
		if strings.Contains(prompt, a[0]) {
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: a[1]}}}, nil
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: `{"status":"UNKNOWN","summary":""}`}}}, nil
}

type watcherFixture struct {
	db      *gorm.DB
	svc     *EmailService
	box     *fakeMailbox
	llm     *scriptedLLM
	owner   uuid.UUID
	appByID map[uint]uint
}

func newWatcherFixture(t *testing.T, postingIDs ...uint) *watcherFixture {
	t.Helper()
	db := testutil.NewSeededDB(t)
	ctx := context.Background()

	owner := uuid.New()
	_, err := NewProfileService(db).UpsertProfile(ctx, owner, "jdoe@nd.edu", &dtos.ProfileUpdateRequest{Name: "Jane Doe"})
	require.NoError(t, err)

	apps := NewApplicationService(db, nil, nil)
	appByID := map[uint]uint{}
	for _, pid := range postingIDs {
		app, err := apps.Apply(ctx, owner, pid, pdfRequest())
		require.NoError(t, err)
		appByID[pid] = app.ID
	}

	box := &fakeMailbox{address: "JDoe@nd.edu", historyID: 100, messages: map[string]*MailMessage{}}
	llm := &scriptedLLM{}
	svc := NewEmailService(db, newTestLLMService(llm), box, NewMatcherService(db), apps, "")
	return &watcherFixture{db: db, svc: svc, box: box, llm: llm, owner: owner, appByID: appByID}
}

func (f *watcherFixture) status(t *testing.T, postingID uint) string {
	t.Helper()
	var app models.Application
	require.NoError(t, f.db.First(&app, f.appByID[postingID]).Error)
	return app.Status
}

func (f *watcherFixture) historyID(t *testing.T) uint64 {
	t.Helper()
	var state models.MailboxState
	require.NoError(t, f.db.Where("profile_id = ?", f.owner).First(&state).Error)
	return state.LastHistoryID
}

func TestSyncEmailsUpdatesMatchedApplications(t *testing.T) {
	f := newWatcherFixture(t, 1, 2)
	f.box.full = []string{"m1", "m2", "m3", "missing"}
	f.box.messages["m1"] = &MailMessage{ID: "m1", From: "Sarah Johnson <sjohnson@nd.edu>", Subject: "Your application", Body: "Can you interview Tuesday?"}
	f.box.messages["m2"] = &MailMessage{ID: "m2", From: "Campus News <news@nd.edu>", Subject: "Weekly digest", Body: "Events"}
	f.box.messages["m3"] = &MailMessage{ID: "m3", From: "mchen@nd.edu", Subject: "Genetics position", Body: "We went with another candidate."}
	f.llm.on("interview Tuesday", `{"status":"UNDER_REVIEW","summary":"Interview invite"}`)
	f.llm.on("another candidate", "Sorry:\n{\"status\":\"rejected\",\"summary\":\"Declined\"}")

	require.NoError(t, f.svc.SyncEmails(context.Background()))

	assert.Equal(t, models.StatusUnderReview, f.status(t, 1))
	assert.Equal(t, models.StatusRejected, f.status(t, 2))
	assert.Equal(t, 2, f.llm.calls)
	assert.Equal(t, uint64(100), f.historyID(t))

	var processed int64
	require.NoError(t, f.db.Model(&models.ProcessedEmail{}).Count(&processed).Error)
	assert.Equal(t, int64(3), processed)

	events, err := f.svc.Applications.Events(context.Background(), f.owner, f.appByID[1])
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "EMAIL_UPDATE", events[1].EventType)
	assert.Contains(t, events[1].Details, "Interview invite")
}

func TestSyncEmailsIncrementalSkipsProcessedAndTerminal(t *testing.T) {
	f := newWatcherFixture(t, 2)
	ctx := context.Background()
	f.box.full = []string{"m1"}
	f.box.messages["m1"] = &MailMessage{ID: "m1", From: "Michael Chen <mchen@nd.edu>", Subject: "Decision", Body: "We went with another candidate."}
	f.llm.on("another candidate", `{"status":"REJECTED","summary":"Declined"}`)
	require.NoError(t, f.svc.SyncEmails(ctx))
	require.Equal(t, models.StatusRejected, f.status(t, 2))
	calls := f.llm.calls

	f.box.incremental = []string{"m1", "m2"}
	f.box.historyID = 120
	f.box.messages["m2"] = &MailMessage{ID: "m2", From: "Michael Chen <mchen@nd.edu>", Subject: "Update", Body: "Actually, welcome aboard!"}
	f.llm.on("welcome aboard", `{"status":"ACCEPTED","summary":"Offer"}`)
	require.NoError(t, f.svc.SyncEmails(ctx))

	assert.Equal(t, models.StatusRejected, f.status(t, 2))
	assert.Equal(t, calls, f.llm.calls)
	assert.Equal(t, uint64(120), f.historyID(t))
	assert.Equal(t, 1, f.box.fullSyncs)
}

func TestSyncEmailsFallsBackToFullSync(t *testing.T) {
	f := newWatcherFixture(t, 1)
	ctx := context.Background()
	require.NoError(t, f.svc.SyncEmails(ctx))

	f.box.expired = true
	f.box.historyID = 300
	require.NoError(t, f.svc.SyncEmails(ctx))
	assert.Equal(t, 2, f.box.fullSyncs)
	assert.Equal(t, uint64(300), f.historyID(t))
}

func TestSyncEmailsAsksModelWhenAmbiguous(t *testing.T) {
	f := newWatcherFixture(t, 1, 5)
	f.box.full = []string{"m1"}
	f.box.messages["m1"] = &MailMessage{ID: "m1", From: "CS Department <cs@nd.edu>", Subject: "Johnson and Park labs: next steps", Body: "The HCI group would like to chat."}
	f.llm.on("Which position is this email about", `{"index": 1}`)
	f.llm.on("HCI group", `{"status":"UNDER_REVIEW","summary":"Chat"}`)

	require.NoError(t, f.svc.SyncEmails(context.Background()))
	assert.Equal(t, models.StatusPending, f.status(t, 1))
	assert.Equal(t, models.StatusUnderReview, f.status(t, 5))
}

func TestSyncEmailsUnknownOwner(t *testing.T) {
	f := newWatcherFixture(t)
	f.svc.WatchEmail = "someone@nd.edu"
	assert.Error(t, f.svc.SyncEmails(context.Background()))
}

func TestMatchPosting(t *testing.T) {
	p := &models.Posting{Professor: "Dr. Sarah Johnson", ProfessorEmail: "sjohnson@nd.edu", LabName: "Intelligent Systems Laboratory"}
	cases := []struct {
		subject, from string
		want          bool
	}{
		{"Hello", "sjohnson@nd.edu", true},
		{"Hello", "SJohnson@ND.edu", true},
		{"Hello", "Sarah Johnson <sarah.j@gmail.com>", true},
		{"Re: Johnson lab application", "noreply@nd.edu", true},
		{"Intelligent Systems Laboratory onboarding", "admin@nd.edu", true},
		{"Hello", "Dr. Smith <smith@nd.edu>", false},
		{"Your application", "noreply@nd.edu", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchPosting(p, tc.subject, tc.from), "%s / %s", tc.subject, tc.from)
	}
}

func TestProfessorNames(t *testing.T) {
	assert.Equal(t, []string{"sarah johnson", "johnson"}, professorNames("Dr. Sarah Johnson"))
	assert.Empty(t, professorNames("Prof. Ng"))
	assert.Nil(t, professorNames("Dr."))
	assert.Equal(t, []string{"james wilson", "wilson"}, professorNames("Professor James Wilson"))
}

func TestReplyStatus(t *testing.T) {
	s, ok := replyStatus("UNDER_REVIEW")
	assert.True(t, ok)
	assert.Equal(t, models.StatusUnderReview, s)
	for _, v := range []string{"NO_CHANGE", "UNKNOWN", "OFFER", ""} {
		_, ok := replyStatus(v)
		assert.False(t, ok, v)
	}
}
