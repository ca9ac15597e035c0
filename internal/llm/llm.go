package llm

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single chat completion call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatClient abstracts chat completion providers.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

var (
	// ErrInvalidModel is returned when a model name is not registered.
	ErrInvalidModel = errors.New("invalid model")
	// ErrEmptyResponse is returned when the provider answers without content.
	ErrEmptyResponse = errors.New("empty model response")
)

// Registry maps model names to the client serving them.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]ChatClient
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]ChatClient)}
}

// Register adds or replaces the client for name.
func (r *Registry) Register(name string, client ChatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[strings.TrimSpace(name)] = client
}

// Resolve returns the client serving model.
func (r *Registry) Resolve(model string) (ChatClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[strings.TrimSpace(model)]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidModel, "%s (choose from: %s)", model, strings.Join(r.namesLocked(), ", "))
	}
	return client, nil
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
