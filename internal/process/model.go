package process

const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2048
)

// FileRequest is a question about an uploaded document.
type FileRequest struct {
	FileName     string
	Data         []byte
	Prompt       string
	SessionID    string
	Model        string
	SystemPrompt string
	// IsExtraction returns the extracted text without calling a model.
	IsExtraction bool
}

// MessageRequest is a follow-up question about text extracted earlier.
type MessageRequest struct {
	Prompt        string
	ExtractedText string
	SessionID     string
	Model         string
	SystemPrompt  string
}

// Result is returned by every pathway. Response is empty for extraction-only requests.
type Result struct {
	SessionID string
	Response  string
	// Extracted is echoed back as extracted_text: a page map or the caller's JSON object.
	Extracted any
	Skipped   []int
	// StorageKey locates the stored upload; empty when nothing was stored.
	StorageKey string
}
