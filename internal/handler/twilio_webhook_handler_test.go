package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vathakkar/ai-voice-concierge/internal/domain"
	"github.com/vathakkar/ai-voice-concierge/internal/screening"
	"github.com/vathakkar/ai-voice-concierge/internal/services/call"
	"github.com/vathakkar/ai-voice-concierge/internal/session"
)

type stubCallLog struct {
	mu     sync.Mutex
	nextID int
}

func (s *stubCallLog) StartCall(ctx context.Context, callerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("call-%d", s.nextID), nil
}

func (s *stubCallLog) AppendTurn(ctx context.Context, callID string, turnIndex int, speaker domain.Speaker, text string) error {
	return nil
}

func (s *stubCallLog) FinalizeCall(ctx context.Context, callID string, outcome domain.CallOutcome, summary string) error {
	return nil
}

func (s *stubCallLog) RecentCalls(ctx context.Context, limit int) ([]*domain.CallWithTurns, error) {
	return nil, nil
}

type stubAllowlist struct {
	entry *domain.AllowlistEntry
}

func (s *stubAllowlist) Lookup(ctx context.Context, rawNumber string) (*domain.AllowlistEntry, error) {
	return s.entry, nil
}

func (s *stubAllowlist) Add(ctx context.Context, rawNumber, contactName, category string) (bool, error) {
	return true, nil
}

func (s *stubAllowlist) Remove(ctx context.Context, rawNumber string) (bool, error) {
	return true, nil
}

func (s *stubAllowlist) Restore(ctx context.Context, rawNumber string) (bool, error) {
	return true, nil
}

func (s *stubAllowlist) List(ctx context.Context) ([]*domain.AllowlistEntry, error) {
	return nil, nil
}

type stubModel struct {
	reply string
}

func (s *stubModel) Complete(ctx context.Context, messages []screening.Message) (string, error) {
	return s.reply, nil
}

func newWebhookRouter(allowEntry *domain.AllowlistEntry, modelReply string) *mux.Router {
	service := call.NewService(
		call.Config{RealPhoneNumber: "+14155550000"},
		&stubCallLog{},
		&stubAllowlist{entry: allowEntry},
		session.NewRegistry(time.Minute),
		&stubModel{reply: modelReply},
	)
	h := NewTwilioWebhookHandler(service)

	router := mux.NewRouter()
	router.HandleFunc(call.IncomingCallPath, h.HandleIncomingCall).Methods(http.MethodPost)
	router.HandleFunc(call.SpeechResultPath, h.HandleSpeechResult).Methods(http.MethodPost)
	router.HandleFunc(call.ProcessSpeechPath, h.HandleProcessSpeech).Methods(http.MethodPost)
	router.HandleFunc(call.TransferOutcomePath, h.HandleTransferOutcome).Methods(http.MethodPost)
	return router
}

func postForm(t *testing.T, router *mux.Router, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookIncomingCall(t *testing.T) {
	router := newWebhookRouter(nil, "")

	rec := postForm(t, router, call.IncomingCallPath, url.Values{"From": {"+14155551234"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<Response>")
	assert.Contains(t, body, "<Gather")
}

func TestWebhookIncomingCallAllowlisted(t *testing.T) {
	router := newWebhookRouter(&domain.AllowlistEntry{
		PhoneNumber: "+14155551234",
		ContactName: "Mom",
		Category:    "family",
		IsActive:    true,
	}, "")

	rec := postForm(t, router, call.IncomingCallPath, url.Values{"From": {"+14155551234"}})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<Dial")
	assert.NotContains(t, body, "<Gather")
}

func TestWebhookSpeechResultMissingFromDefaults(t *testing.T) {
	router := newWebhookRouter(nil, "")

	rec := postForm(t, router, call.SpeechResultPath+"?session_id=stale&retry=0",
		url.Values{"SpeechResult": {"hello"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Response>")
}

func TestWebhookTransferOutcome(t *testing.T) {
	router := newWebhookRouter(nil, "")

	rec := postForm(t, router, call.TransferOutcomePath+"?session_id=gone",
		url.Values{"DialCallStatus": {"no-answer"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Say")
}

func TestWebhookProcessSpeechUnknownSession(t *testing.T) {
	router := newWebhookRouter(nil, "")

	rec := postForm(t, router, call.ProcessSpeechPath+"?session_id=gone", url.Values{})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sorry, there was an error.")
}
