package call

import (
	"fmt"
	"net/url"
)

// Webhook paths the carrier is configured to post to. The session token and
// retry counter travel in the callback URL, not the request body, because
// each callback is an independent request with no connection state.
const (
	IncomingCallPath    = "/twilio/voice"
	SpeechResultPath    = "/twilio/ai-response"
	ProcessSpeechPath   = "/twilio/process-ai"
	TransferOutcomePath = "/twilio/transfer-fallback"
)

// Config holds the tunables of the screening flow.
type Config struct {
	// RealPhoneNumber is where transferred calls are dialed.
	RealPhoneNumber string
	// GatherTimeoutSec is how long the carrier waits for speech on the first
	// prompt of a turn.
	GatherTimeoutSec int
	// RepromptTimeoutSec is the shorter wait after a silent first attempt.
	RepromptTimeoutSec int
	// DialTimeoutSec bounds the transfer attempt before it is reported failed.
	DialTimeoutSec int
}

// withDefaults fills unset fields with the values the flow was tuned for.
func (c Config) withDefaults() Config {
	if c.GatherTimeoutSec <= 0 {
		c.GatherTimeoutSec = 6
	}
	if c.RepromptTimeoutSec <= 0 {
		c.RepromptTimeoutSec = 5
	}
	if c.DialTimeoutSec <= 0 {
		c.DialTimeoutSec = 30
	}
	return c
}

func speechResultURL(token string, retry int) string {
	return fmt.Sprintf("%s?session_id=%s&retry=%d", SpeechResultPath, url.QueryEscape(token), retry)
}

func processSpeechURL(token string) string {
	return fmt.Sprintf("%s?session_id=%s", ProcessSpeechPath, url.QueryEscape(token))
}

func transferOutcomeURL(token string) string {
	return fmt.Sprintf("%s?session_id=%s", TransferOutcomePath, url.QueryEscape(token))
}
