package handler

import (
	"net/http"
	"strconv"

	"github.com/vathakkar/ai-voice-concierge/internal/services/call"
	"github.com/vathakkar/ai-voice-concierge/internal/voicescript"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
	"go.uber.org/zap"
)

// lastDitchTwiML is returned when even script rendering fails. The caller
// must always hear a valid response, never a transport error.
const lastDitchTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response><Say voice="Polly.Justin">Sorry, there was an error. Goodbye!</Say></Response>`

// TwilioWebhookHandler adapts carrier webhooks to the call session state
// machine. All call semantics live in the service; this layer only parses
// the form payload and serializes the resulting voice script.
type TwilioWebhookHandler struct {
	service *call.Service
}

// NewTwilioWebhookHandler creates the webhook handler.
func NewTwilioWebhookHandler(service *call.Service) *TwilioWebhookHandler {
	return &TwilioWebhookHandler{service: service}
}

// HandleIncomingCall handles the initial voice webhook for a new call.
func (h *TwilioWebhookHandler) HandleIncomingCall(w http.ResponseWriter, r *http.Request) {
	callerID := formValue(r, "From", "unknown")
	script := h.service.HandleIncomingCall(r.Context(), callerID)
	writeTwiML(w, script)
}

// HandleSpeechResult handles the speech-collection callback. The session
// token and retry counter travel in the query string, the recognized
// utterance in the form body.
func (h *TwilioWebhookHandler) HandleSpeechResult(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session_id")
	retry, _ := strconv.Atoi(r.URL.Query().Get("retry"))
	callerID := formValue(r, "From", "unknown")
	speech := formValue(r, "SpeechResult", "")

	script := h.service.HandleSpeechResult(r.Context(), token, retry, callerID, speech)
	writeTwiML(w, script)
}

// HandleProcessSpeech handles the processing step redirect that consumes the
// buffered utterance and runs the screening decision.
func (h *TwilioWebhookHandler) HandleProcessSpeech(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session_id")
	script := h.service.ProcessSpeech(r.Context(), token)
	writeTwiML(w, script)
}

// HandleTransferOutcome handles the dial-status callback after a transfer.
func (h *TwilioWebhookHandler) HandleTransferOutcome(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("session_id")
	dialStatus := formValue(r, "DialCallStatus", "unknown")
	script := h.service.HandleTransferOutcome(r.Context(), token, dialStatus)
	writeTwiML(w, script)
}

func formValue(r *http.Request, key, fallback string) string {
	if err := r.ParseForm(); err != nil {
		logger.Base().Warn("failed to parse webhook form", zap.Error(err))
		return fallback
	}
	if v := r.PostFormValue(key); v != "" {
		return v
	}
	return fallback
}

func writeTwiML(w http.ResponseWriter, script *voicescript.Script) {
	doc, err := script.RenderTwiML()
	if err != nil {
		logger.Base().Error("failed to render voice script", zap.Error(err))
		doc = lastDitchTwiML
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
