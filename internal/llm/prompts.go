package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/system.txt
var systemPrompt string

// DefaultSystemPrompt returns the assistant persona used when callers supply none.
func DefaultSystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}
