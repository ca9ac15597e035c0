package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"juris-backend/internal/extract"
	"juris-backend/internal/llm"
	"juris-backend/internal/sessions"
	"juris-backend/internal/shared/storage/object"
	"juris-backend/internal/shared/telemetry"
	"juris-backend/internal/shared/util"
)

// Service answers questions about documents with a chat model and keeps per-session history.
type Service struct {
	Models       *llm.Registry
	Sessions     sessions.Store
	Store        object.ObjectStore
	DefaultModel string
	Temperature  float64
	MaxTokens    int

	Now     func() time.Time
	Extract func(ctx context.Context, data []byte, fileName string) (extract.Pages, error)
}

// NewService constructs a Service with the default generation settings.
func NewService(models *llm.Registry, store sessions.Store, objects object.ObjectStore, defaultModel string) *Service {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = "gemma3"
	}
	return &Service{
		Models:       models,
		Sessions:     store,
		Store:        objects,
		DefaultModel: defaultModel,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		Now:          time.Now,
		Extract:      extract.ExtractPages,
	}
}

// ProcessFile extracts text from an upload and, unless extraction-only, asks the model about it.
func (s *Service) ProcessFile(ctx context.Context, req FileRequest) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, errors.Mark(errors.New("please provide a non-empty prompt"), ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return Result{}, errors.Mark(errors.New("please upload a file"), ErrInvalidInput)
	}

	model := s.modelName(req.Model)
	var client llm.ChatClient
	if !req.IsExtraction {
		var err error
		if client, err = s.Models.Resolve(model); err != nil {
			return Result{}, err
		}
	}

	pages, err := s.Extract(ctx, req.Data, req.FileName)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SessionID: s.sessionID(req.SessionID),
		Extracted: pages.Text,
		Skipped:   pages.Skipped,
	}
	res.StorageKey = s.persist(ctx, res.SessionID, req.FileName, req.Data, pages)

	if req.IsExtraction {
		return res, nil
	}

	serialized, err := json.Marshal(pages.Text)
	if err != nil {
		return Result{}, errors.Wrap(err, "serialize extracted text")
	}
	return s.ask(ctx, client, model, req.SystemPrompt, req.Prompt, string(serialized), res)
}

// ProcessMessage asks the model about text the caller extracted earlier.
func (s *Service) ProcessMessage(ctx context.Context, req MessageRequest) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, errors.Mark(errors.New("please provide a non-empty prompt"), ErrInvalidInput)
	}
	if strings.TrimSpace(req.ExtractedText) == "" {
		return Result{}, errors.Mark(errors.New("please provide non-empty extracted text"), ErrInvalidInput)
	}

	model := s.modelName(req.Model)
	client, err := s.Models.Resolve(model)
	if err != nil {
		return Result{}, err
	}

	echo, analysed := interpretExtractedText(req.ExtractedText)
	res := Result{
		SessionID: s.sessionID(req.SessionID),
		Extracted: echo,
		Skipped:   []int{},
	}
	return s.ask(ctx, client, model, req.SystemPrompt, req.Prompt, analysed, res)
}

func (s *Service) ask(ctx context.Context, client llm.ChatClient, model, systemPrompt, prompt, text string, res Result) (Result, error) {
	session, err := sessions.Load(ctx, s.Sessions, res.SessionID)
	if err != nil {
		return Result{}, errors.Wrapf(err, "load session %s", res.SessionID)
	}
	session.Append(llm.RoleUser, prompt)

	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = llm.DefaultSystemPrompt()
	}
	answer, chatErr := client.Chat(ctx, llm.ChatRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("User prompt: %s\nExtracted text: %s", prompt, text)},
		},
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	})
	if chatErr != nil {
		telemetry.Error("process.inference.failed", map[string]any{
			"session_id": res.SessionID,
			"model":      model,
			"err":        chatErr.Error(),
		})
		session.Append(llm.RoleAssistant, "Error processing question: "+chatErr.Error())
		if err := s.Sessions.Save(ctx, session); err != nil {
			telemetry.Warn("process.session.save_failed", map[string]any{"session_id": res.SessionID, "err": err.Error()})
		}
		return Result{}, errors.Mark(errors.Wrapf(chatErr, "model %s", model), ErrInferenceFailed)
	}

	session.Append(llm.RoleAssistant, answer)
	if err := s.Sessions.Save(ctx, session); err != nil {
		return Result{}, errors.Wrapf(err, "save session %s", res.SessionID)
	}

	res.Response = answer
	return res, nil
}

// StoredPages returns the extraction saved for an upload made in the given session.
// Keys outside the session's namespace are reported as missing.
func (s *Service) StoredPages(ctx context.Context, sessionID, storageKey string) (Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	storageKey = strings.TrimSpace(storageKey)
	if sessionID == "" || storageKey == "" {
		return Result{}, errors.Mark(errors.New("sessionId and storageKey are required"), ErrInvalidInput)
	}
	if s.Store == nil || !strings.HasPrefix(storageKey, util.HashKey(sessionID)+"/") {
		return Result{}, errors.Mark(errors.Newf("no stored document %s", storageKey), object.ErrNotFound)
	}

	pages, err := extract.LoadPages(ctx, s.Store, storageKey)
	if err != nil {
		return Result{}, err
	}
	return Result{
		SessionID:  sessionID,
		Extracted:  pages.Text,
		Skipped:    pages.Skipped,
		StorageKey: storageKey,
	}, nil
}

// persist stores the upload and its extraction next to each other. Storage is best effort.
func (s *Service) persist(ctx context.Context, sessionID, fileName string, data []byte, pages extract.Pages) string {
	if s.Store == nil {
		return ""
	}
	key, _, _, err := s.Store.Save(ctx, sessionID, fileName, bytes.NewReader(data))
	if err != nil {
		telemetry.Warn("process.upload.store_failed", map[string]any{
			"session_id": sessionID,
			"file_name":  fileName,
			"err":        err.Error(),
		})
		return ""
	}
	if _, err := extract.SavePages(ctx, s.Store, key, pages); err != nil {
		telemetry.Warn("process.pages.store_failed", map[string]any{
			"session_id":  sessionID,
			"storage_key": key,
			"err":         err.Error(),
		})
	}
	return key
}

func (s *Service) modelName(requested string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	return s.DefaultModel
}

func (s *Service) sessionID(requested string) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return sessions.NewID(now())
}

// interpretExtractedText returns the value echoed to the caller and the text sent to the model.
// JSON objects are re-encoded; any other JSON value echoes as an empty object while the raw
// text is still analysed; non-JSON input is wrapped as {"content": text}.
func interpretExtractedText(raw string) (map[string]any, string) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		telemetry.Warn("process.extracted_text.plain", map[string]any{"err": err.Error()})
		return map[string]any{extract.ContentKey: raw}, raw
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		telemetry.Warn("process.extracted_text.not_object", map[string]any{"length": len(raw)})
		return map[string]any{}, raw
	}
	normalized, err := json.Marshal(obj)
	if err != nil {
		return obj, raw
	}
	return obj, string(normalized)
}
