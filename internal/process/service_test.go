package process

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juris-backend/internal/extract"
	"juris-backend/internal/llm"
	"juris-backend/internal/sessions"
	"juris-backend/internal/shared/storage/object"
	localstore "juris-backend/internal/shared/storage/object/local"
)

type fakeChat struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []llm.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

func (f *fakeChat) last() llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestService(t *testing.T, chat llm.ChatClient) (*Service, *sessions.MemoryStore) {
	t.Helper()
	models := llm.NewRegistry()
	models.Register("gemma3", chat)
	store := sessions.NewMemoryStore(16, time.Hour)
	svc := NewService(models, store, localstore.New(t.TempDir()), "gemma3")
	svc.Now = func() time.Time { return time.Unix(1760227200, 0) }
	return svc, store
}

func TestProcessFileAsksModelAndRecordsHistory(t *testing.T) {
	chat := &fakeChat{answer: "The deadline is 2025-10-12."}
	svc, store := newTestService(t, chat)

	res, err := svc.ProcessFile(context.Background(), FileRequest{
		FileName: "notice.txt",
		Data:     []byte("Filing due 2025-10-12"),
		Prompt:   "When is the deadline?",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.SessionID, "session_1760227200_"))
	assert.Equal(t, "The deadline is 2025-10-12.", res.Response)
	assert.Equal(t, map[string]string{"content": "Filing due 2025-10-12"}, res.Extracted)
	assert.Empty(t, res.Skipped)
	assert.NotEmpty(t, res.StorageKey)

	req := chat.last()
	assert.Equal(t, "gemma3", req.Model)
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.DefaultSystemPrompt(), req.Messages[0].Content)
	assert.Equal(t, "User prompt: When is the deadline?\nExtracted text: {\"content\":\"Filing due 2025-10-12\"}", req.Messages[1].Content)

	session, err := store.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []sessions.Turn{
		{Role: "user", Content: "When is the deadline?"},
		{Role: "assistant", Content: "The deadline is 2025-10-12."},
	}, session.History)
}

func TestProcessFileExtractionOnlySkipsModel(t *testing.T) {
	chat := &fakeChat{answer: "unused"}
	svc, store := newTestService(t, chat)
	svc.Extract = func(context.Context, []byte, string) (extract.Pages, error) {
		return extract.Pages{Text: map[string]string{"1": "page one", "3": "page three"}, Skipped: []int{2}}, nil
	}

	res, err := svc.ProcessFile(context.Background(), FileRequest{
		FileName:     "doc.pdf",
		Data:         []byte("%PDF"),
		Prompt:       "extract",
		SessionID:    "session_given",
		Model:        "not-registered",
		IsExtraction: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "session_given", res.SessionID)
	assert.Empty(t, res.Response)
	assert.Equal(t, []int{2}, res.Skipped)
	assert.Empty(t, chat.requests)

	_, err = store.Get(context.Background(), "session_given")
	assert.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestProcessFileValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeChat{})
	ctx := context.Background()

	_, err := svc.ProcessFile(ctx, FileRequest{FileName: "a.txt", Data: []byte("x"), Prompt: "  "})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.ProcessFile(ctx, FileRequest{FileName: "a.txt", Prompt: "q"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.ProcessFile(ctx, FileRequest{FileName: "a.txt", Data: []byte("x"), Prompt: "q", Model: "llama"})
	assert.True(t, errors.Is(err, llm.ErrInvalidModel))
}

func TestProcessFileNoText(t *testing.T) {
	svc, _ := newTestService(t, &fakeChat{})
	svc.Extract = func(context.Context, []byte, string) (extract.Pages, error) {
		return extract.Pages{}, extract.ErrNoText
	}
	_, err := svc.ProcessFile(context.Background(), FileRequest{FileName: "scan.pdf", Data: []byte("%PDF"), Prompt: "q"})
	assert.True(t, errors.Is(err, extract.ErrNoText))
}

func TestInferenceFailureRecordsErrorTurn(t *testing.T) {
	chat := &fakeChat{err: errors.New("connection refused")}
	svc, store := newTestService(t, chat)

	_, err := svc.ProcessMessage(context.Background(), MessageRequest{
		Prompt:        "Summarise",
		ExtractedText: "plain text",
		SessionID:     "s1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInferenceFailed))

	session, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, session.History, 2)
	assert.Equal(t, "assistant", session.History[1].Role)
	assert.Contains(t, session.History[1].Content, "connection refused")
}

func TestProcessMessageHistoryAccumulates(t *testing.T) {
	chat := &fakeChat{answer: "ok"}
	svc, store := newTestService(t, chat)
	ctx := context.Background()

	for _, prompt := range []string{"first", "second"} {
		_, err := svc.ProcessMessage(ctx, MessageRequest{Prompt: prompt, ExtractedText: "text", SessionID: "s2"})
		require.NoError(t, err)
	}
	session, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, session.History, 4)
	assert.Equal(t, "second", session.History[2].Content)
}

func TestProcessMessageExtractedTextShapes(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		wantEcho map[string]any
		wantSent string
	}{
		{
			name:     "object",
			raw:      `{"1": "page one",  "2": "page two"}`,
			wantEcho: map[string]any{"1": "page one", "2": "page two"},
			wantSent: `{"1":"page one","2":"page two"}`,
		},
		{
			name:     "array",
			raw:      `["a","b"]`,
			wantEcho: map[string]any{},
			wantSent: `["a","b"]`,
		},
		{
			name:     "plain",
			raw:      "Article 5 applies.",
			wantEcho: map[string]any{"content": "Article 5 applies."},
			wantSent: "Article 5 applies.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chat := &fakeChat{answer: "ok"}
			svc, _ := newTestService(t, chat)
			res, err := svc.ProcessMessage(context.Background(), MessageRequest{Prompt: "q", ExtractedText: tc.raw})
			require.NoError(t, err)
			assert.Equal(t, tc.wantEcho, res.Extracted)
			assert.Equal(t, []int{}, res.Skipped)
			assert.Equal(t, "User prompt: q\nExtracted text: "+tc.wantSent, chat.last().Messages[1].Content)
		})
	}
}

func TestProcessMessageCustomSystemPrompt(t *testing.T) {
	chat := &fakeChat{answer: "ok"}
	svc, _ := newTestService(t, chat)
	_, err := svc.ProcessMessage(context.Background(), MessageRequest{
		Prompt:        "q",
		ExtractedText: "t",
		SystemPrompt:  "Answer in French.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Answer in French.", chat.last().Messages[0].Content)
}

func TestProcessFileStoresPagesArtefact(t *testing.T) {
	chat := &fakeChat{answer: "ok"}
	svc, _ := newTestService(t, chat)
	res, err := svc.ProcessFile(context.Background(), FileRequest{FileName: "n.txt", Data: []byte("hello"), Prompt: "q"})
	require.NoError(t, err)

	stored, err := svc.StoredPages(context.Background(), res.SessionID, res.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, stored.SessionID)
	assert.Equal(t, res.StorageKey, stored.StorageKey)
	assert.Equal(t, map[string]string{"content": "hello"}, stored.Extracted)
	assert.Equal(t, []int{}, stored.Skipped)
	assert.Empty(t, stored.Response)
}

func TestStoredPagesRejectsOtherSessions(t *testing.T) {
	svc, _ := newTestService(t, &fakeChat{answer: "ok"})
	res, err := svc.ProcessFile(context.Background(), FileRequest{FileName: "n.txt", Data: []byte("hello"), Prompt: "q", IsExtraction: true})
	require.NoError(t, err)

	_, err = svc.StoredPages(context.Background(), "session_other", res.StorageKey)
	assert.True(t, errors.Is(err, object.ErrNotFound), "got %v", err)

	_, err = svc.StoredPages(context.Background(), res.SessionID, strings.TrimSuffix(res.StorageKey, "n.txt")+"gone.txt")
	assert.True(t, errors.Is(err, object.ErrNotFound), "got %v", err)

	_, err = svc.StoredPages(context.Background(), res.SessionID, " ")
	assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
}
