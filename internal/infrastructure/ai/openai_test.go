package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(url string, retries int) *openAIClient {
	c := newOpenAIClient(Options{APIKey: "k", Model: "gpt-test", BaseURL: url, MaxRetries: retries})
	c.baseBackoff = time.Millisecond
	return c
}

func TestOpenAIComplete(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"gpt-test-2024","choices":[{"message":{"content":"A monstera."}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, 0).Complete(context.Background(), Request{
		System: "You are a botanist.",
		Prompt: "What is this?",
		Image:  &Image{ContentType: "image/png", Base64: "AAAA"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A monstera.", out.Text)
	assert.Equal(t, "gpt-test-2024", out.Model)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	parts, ok := got.Messages[1].Content.([]any)
	require.True(t, ok)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,AAAA", image["url"])
}

func TestOpenAIRetries(t *testing.T) {
	t.Run("retries 5xx and 429", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch calls.Add(1) {
			case 1:
				w.WriteHeader(http.StatusServiceUnavailable)
			case 2:
				w.WriteHeader(http.StatusTooManyRequests)
			default:
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
			}
		}))
		defer srv.Close()

		out, err := newTestClient(srv.URL, 3).Complete(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "ok", out.Text)
		assert.Equal(t, "gpt-test", out.Model)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("4xx is terminal", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 3).Complete(context.Background(), Request{Prompt: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad model")
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 2).Complete(context.Background(), Request{Prompt: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.EqualValues(t, 3, calls.Load())
	})
}

func TestNew(t *testing.T) {
	_, err := New(Options{Provider: ProviderNone}, zap.NewNop(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(Options{Provider: "gemini"}, zap.NewNop(), nil)
	assert.Error(t, err)

	p, err := New(Options{Provider: ProviderOpenAI, APIKey: "k", Model: "m", RateLimit: 1}, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Name())
}
