package process_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"juris-backend/internal/bootstrap"
	"juris-backend/internal/llm"
	"juris-backend/internal/shared/config"
)

type stubChat struct {
	answer string
	err    error
	calls  int
}

func (s *stubChat) Chat(context.Context, llm.ChatRequest) (string, error) {
	s.calls++
	return s.answer, s.err
}

func newTestApp(t *testing.T, chat llm.ChatClient) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	cfg.Env = "test"
	cfg.SeedCSV = ""
	cfg.LocalStoreDir = t.TempDir()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	app.Models.Register("gemma3", chat)
	return app
}

func multipartRequest(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		fileWriter, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fileWriter.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/process/file", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Guest-Id", "guest-test")
	return req
}

func formRequest(fields url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/process/message", strings.NewReader(fields.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Guest-Id", "guest-test")
	return req
}

type processBody struct {
	Response      string         `json:"response"`
	ExtractedText map[string]any `json:"extracted_text"`
	SkippedPages  []int          `json:"skipped_pages"`
	SessionID     string         `json:"sessionId"`
	StorageKey    string         `json:"storageKey"`
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) processBody {
	t.Helper()
	var body processBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestProcessFileAnswersQuestion(t *testing.T) {
	chat := &stubChat{answer: "Pillar Two applies from 2025."}
	app := newTestApp(t, chat)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, multipartRequest(t, map[string]string{"prompt": "Which rule applies?"}, "memo.txt", "Pillar Two memo"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decode(t, resp)
	if body.Response != "Pillar Two applies from 2025." {
		t.Fatalf("unexpected response: %q", body.Response)
	}
	if body.ExtractedText["content"] != "Pillar Two memo" {
		t.Fatalf("unexpected extracted text: %v", body.ExtractedText)
	}
	if body.SkippedPages == nil || len(body.SkippedPages) != 0 {
		t.Fatalf("expected empty skipped_pages, got %v", body.SkippedPages)
	}
	if !strings.HasPrefix(body.SessionID, "session_") {
		t.Fatalf("unexpected session id: %q", body.SessionID)
	}
	if chat.calls != 1 {
		t.Fatalf("expected one model call, got %d", chat.calls)
	}
}

func TestProcessFileExtractionOnly(t *testing.T) {
	chat := &stubChat{answer: "unused"}
	app := newTestApp(t, chat)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, multipartRequest(t, map[string]string{
		"prompt":        "extract",
		"is_extraction": "true",
		"sessionId":     "session_fixed",
	}, "memo.txt", "text"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decode(t, resp)
	if body.SessionID != "session_fixed" || body.Response != "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if chat.calls != 0 {
		t.Fatalf("expected no model call, got %d", chat.calls)
	}
}

func TestProcessFileErrors(t *testing.T) {
	app := newTestApp(t, &stubChat{answer: "ok"})

	cases := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"missing file", multipartRequest(t, map[string]string{"prompt": "q"}, "", ""), http.StatusBadRequest, "validation_error"},
		{"blank prompt", multipartRequest(t, map[string]string{"prompt": "  "}, "a.txt", "x"), http.StatusBadRequest, "validation_error"},
		{"unknown model", multipartRequest(t, map[string]string{"prompt": "q", "model": "llama"}, "a.txt", "x"), http.StatusBadRequest, "invalid_model"},
		{"bad flag", multipartRequest(t, map[string]string{"prompt": "q", "is_extraction": "maybe"}, "a.txt", "x"), http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			app.Router.ServeHTTP(resp, tc.req)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			if got := errorCode(t, resp); got != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
		})
	}
}

func TestProcessMessageUsesSession(t *testing.T) {
	chat := &stubChat{answer: "Yes."}
	app := newTestApp(t, chat)

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, formRequest(url.Values{
		"prompt":         {"Is Spain affected?"},
		"extracted_text": {`{"1":"Spain adopts DAC7"}`},
		"sessionId":      {"session_chat"},
	}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decode(t, resp)
	if body.ExtractedText["1"] != "Spain adopts DAC7" || body.SessionID != "session_chat" {
		t.Fatalf("unexpected body: %+v", body)
	}

	session, err := app.Sessions.Get(context.Background(), "session_chat")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(session.History) != 2 || session.History[1].Content != "Yes." {
		t.Fatalf("unexpected history: %+v", session.History)
	}
}

func TestProcessMessageInferenceFailure(t *testing.T) {
	app := newTestApp(t, &stubChat{err: errors.New("upstream 502")})

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, formRequest(url.Values{
		"prompt":         {"q"},
		"extracted_text": {"text"},
	}))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if got := errorCode(t, resp); got != "inference_failed" {
		t.Fatalf("expected inference_failed, got %s", got)
	}
}

func TestProcessMessageRequiresText(t *testing.T) {
	app := newTestApp(t, &stubChat{answer: "ok"})

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, formRequest(url.Values{"prompt": {"q"}}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestProcessPagesReturnsStoredExtraction(t *testing.T) {
	app := newTestApp(t, &stubChat{answer: "unused"})

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, multipartRequest(t, map[string]string{
		"prompt":        "extract",
		"is_extraction": "true",
		"sessionId":     "session_pages",
	}, "memo.txt", "Pillar Two memo"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	uploaded := decode(t, resp)
	if uploaded.StorageKey == "" {
		t.Fatalf("expected storageKey in upload response: %s", resp.Body.String())
	}

	query := url.Values{"sessionId": {"session_pages"}, "storageKey": {uploaded.StorageKey}}
	req := httptest.NewRequest(http.MethodGet, "/process/pages?"+query.Encode(), nil)
	req.Header.Set("X-Guest-Id", "guest-test")
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	stored := decode(t, resp)
	if stored.ExtractedText["content"] != "Pillar Two memo" || stored.StorageKey != uploaded.StorageKey {
		t.Fatalf("unexpected stored pages: %+v", stored)
	}

	query.Set("sessionId", "session_intruder")
	req = httptest.NewRequest(http.MethodGet, "/process/pages?"+query.Encode(), nil)
	req.Header.Set("X-Guest-Id", "guest-test")
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := errorCode(t, resp); got != "not_found" {
		t.Fatalf("expected not_found, got %s", got)
	}
}
