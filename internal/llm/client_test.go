package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vathakkar/ai-voice-concierge/internal/screening"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSuccess(t *testing.T) {
	var gotPath, gotKey string
	var gotRequest chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("Connecting you now. {TRANSFER}")))
	}))
	defer server.Close()

	client := NewClient(Config{
		Endpoint:   server.URL,
		APIKey:     "test-key",
		Deployment: "gpt-4o-mini",
	})

	reply, err := client.Complete(context.Background(), []screening.Message{
		{Role: screening.RoleSystem, Content: "policy"},
		{Role: screening.RoleUser, Content: "emergency"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Connecting you now. {TRANSFER}", reply)
	assert.Equal(t, "/openai/deployments/gpt-4o-mini/chat/completions", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, screening.RoleSystem, gotRequest.Messages[0].Role)
	assert.InDelta(t, 0.2, gotRequest.Temperature, 0.001)
	assert.Equal(t, 75, gotRequest.MaxTokens)
}

func TestCompleteTrimsReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("  padded reply  \n")))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Deployment: "d"})
	reply, err := client.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "padded reply", reply)
}

func TestCompleteNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Deployment: "d"})
	_, err := client.Complete(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Deployment: "d"})
	_, err := client.Complete(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleteEmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("   ")))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Deployment: "d"})
	_, err := client.Complete(context.Background(), nil)
	require.Error(t, err)
}

func TestCompleteHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionBody("too late")))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, Deployment: "d", Timeout: 50 * time.Millisecond})
	_, err := client.Complete(context.Background(), nil)
	require.Error(t, err)
}
