package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures the normalized backend input: a system prompt carrying the
// fused persona context and the user's turn text.
type Request struct {
	// System is the rendered context bundle injected as the system prompt.
	System string `json:"system"`

	// Prompt is the user-facing text of the current turn.
	Prompt string `json:"prompt"`
}

// Usage captures token usage statistics for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion returned by a backend.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Backend is the minimal interface required to drive reply generation.
type Backend interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the backend implementation.
	Info() Info
}

// MockBackend is a lightweight in-memory Backend useful for tests & examples.
type MockBackend struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	requests  []Request
}

// NewMockBackend constructs a MockBackend.
func NewMockBackend(name string) *MockBackend {
	return &MockBackend{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockBackend) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Requests returns the requests seen so far, in order.
func (m *MockBackend) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Backend.
func (m *MockBackend) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	text := m.responses[req.Prompt]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}
	return Response{
		Text: text,
		Usage: Usage{
			PromptTokens:     (len(req.System) + len(req.Prompt) + 3) / 4,
			CompletionTokens: (len(text) + 3) / 4,
			TotalTokens:      (len(req.System) + len(req.Prompt) + len(text) + 3) / 4,
		},
	}, nil
}

// Info implements Backend.
func (m *MockBackend) Info() Info { return m.info }
