// Package voicescript models the response sent back to the telephony
// carrier as a small set of abstract primitives: speak, collect speech, dial
// out, redirect and hang up. The state machine composes these; only the
// renderer knows the carrier's markup dialect.
package voicescript

// DefaultVoice is the synthesis voice used for all spoken text.
const DefaultVoice = "Polly.Justin"

type say struct {
	text string
}

type gather struct {
	prompt     string
	action     string
	timeoutSec int
}

type redirect struct {
	url string
}

type dial struct {
	number     string
	action     string
	timeoutSec int
}

type hangup struct{}

// Script is an ordered sequence of voice primitives.
type Script struct {
	elements []interface{}
}

// New creates an empty script.
func New() *Script {
	return &Script{}
}

// Say appends spoken text.
func (s *Script) Say(text string) *Script {
	s.elements = append(s.elements, say{text: text})
	return s
}

// GatherSpeech appends a speech-collection directive. The prompt, when
// non-empty, is spoken inside the directive so the caller can barge in over
// it. The carrier posts the recognized utterance to actionURL, or falls
// through to the next primitive when the timeout elapses silently.
func (s *Script) GatherSpeech(prompt, actionURL string, timeoutSec int) *Script {
	s.elements = append(s.elements, gather{prompt: prompt, action: actionURL, timeoutSec: timeoutSec})
	return s
}

// Redirect appends an unconditional redirect to another webhook.
func (s *Script) Redirect(url string) *Script {
	s.elements = append(s.elements, redirect{url: url})
	return s
}

// Dial appends a transfer attempt to the given number. The carrier posts the
// dial status to actionURL once the attempt resolves.
func (s *Script) Dial(number, actionURL string, timeoutSec int) *Script {
	s.elements = append(s.elements, dial{number: number, action: actionURL, timeoutSec: timeoutSec})
	return s
}

// Hangup appends an immediate hangup.
func (s *Script) Hangup() *Script {
	s.elements = append(s.elements, hangup{})
	return s
}

// Len returns the number of primitives in the script.
func (s *Script) Len() int {
	return len(s.elements)
}
