package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBackend_CannedResponse(t *testing.T) {
	backend := NewMockBackend("test-model")
	backend.AddResponse("hello", "hi there")

	resp, err := backend.Generate(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)
}

func TestMockBackend_DefaultResponse(t *testing.T) {
	backend := NewMockBackend("test-model")

	resp, err := backend.Generate(context.Background(), Request{Prompt: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: anything", resp.Text)
	assert.Equal(t, resp.Usage.CompletionTokens, (len(resp.Text)+3)/4)
}

func TestMockBackend_CapturesRequestsInOrder(t *testing.T) {
	backend := NewMockBackend("test-model")

	_, err := backend.Generate(context.Background(), Request{System: "persona", Prompt: "first"})
	require.NoError(t, err)
	_, err = backend.Generate(context.Background(), Request{Prompt: "second"})
	require.NoError(t, err)

	reqs := backend.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "persona", reqs[0].System)
	assert.Equal(t, "first", reqs[0].Prompt)
	assert.Equal(t, "second", reqs[1].Prompt)
}

func TestMockBackend_CancelledContext(t *testing.T) {
	backend := NewMockBackend("test-model")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.Generate(ctx, Request{Prompt: "hello"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, backend.Requests())
}

func TestMockBackend_Info(t *testing.T) {
	backend := NewMockBackend("test-model")
	info := backend.Info()
	assert.Equal(t, "test-model", info.Name)
	assert.Equal(t, "mock", info.Provider)
}
