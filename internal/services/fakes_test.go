package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/strove-app/strove/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"gorm.io/gorm"
)

// insertBeforeCreate runs query inside the next insert into table, just ahead
// of the row itself, as a concurrent request would.
func insertBeforeCreate(t *testing.T, db *gorm.DB, table, query string, args ...any) {
	t.Helper()
	done := false
	err := db.Callback().Create().Before("gorm:create").Register("test:insert_"+table, func(tx *gorm.DB) {
		if done || tx.Statement.Table != table {
			return
		}
		done = true
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, query, args...); err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
}

type fakeLLM struct {
	replies  []string
	err      error
	calls    int
	messages [][]llms.MessageContent
	options  []llms.CallOptions
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = append(f.messages, messages)
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	f.options = append(f.options, opts)
	if f.err != nil {
		return nil, f.err
	}
	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func newTestLLMService(client LLMClient) *LLMService {
	return &LLMService{Client: client, Provider: "OpenAI", TextModel: "text-model", VisionModel: "vision-model"}
}

type fakeResumeStore struct {
	puts map[string][]byte
	err  error
}

func (f *fakeResumeStore) PutResume(ctx context.Context, key, contentType string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = data
	return nil
}

type fakeExporter struct {
	pageID   string
	err      error
	apps     []*models.Application
	statuses []string
}

func (f *fakeExporter) ExportApplication(ctx context.Context, app *models.Application) (string, error) {
	f.apps = append(f.apps, app)
	return f.pageID, f.err
}

type fakeCounter struct {
	sets map[uint]map[uuid.UUID]bool
}

func (f *fakeCounter) Add(ctx context.Context, postingID uint, profileID uuid.UUID) error {
	if f.sets == nil {
		f.sets = map[uint]map[uuid.UUID]bool{}
	}
	if f.sets[postingID] == nil {
		f.sets[postingID] = map[uuid.UUID]bool{}
	}
	f.sets[postingID][profileID] = true
	return nil
}

// Remove drops the whole set with its last member, as Redis does.
func (f *fakeCounter) Remove(ctx context.Context, postingID uint, profileID uuid.UUID) error {
	delete(f.sets[postingID], profileID)
	if len(f.sets[postingID]) == 0 {
		delete(f.sets, postingID)
	}
	return nil
}

func (f *fakeCounter) Counts(ctx context.Context) (map[uint]int64, error) {
	out := map[uint]int64{}
	for id, set := range f.sets {
		out[id] = int64(len(set))
	}
	return out, nil
}

func (f *fakeExporter) UpdateApplicationStatus(ctx context.Context, externalID, status string) error {
	f.statuses = append(f.statuses, externalID+"="+status)
	return nil
}
