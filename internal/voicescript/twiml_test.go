package voicescript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSay(t *testing.T) {
	doc, err := New().Say("Good morning").RenderTwiML()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Response>")
	assert.Contains(t, doc, "Good morning")
	assert.Contains(t, doc, DefaultVoice)
}

func TestRenderGatherWithPrompt(t *testing.T) {
	doc, err := New().
		GatherSpeech("How can I help?", "/twilio/ai-response?session_id=abc&retry=0", 6).
		RenderTwiML()
	require.NoError(t, err)

	assert.Contains(t, doc, "<Gather")
	assert.Contains(t, doc, `input="speech"`)
	assert.Contains(t, doc, `method="POST"`)
	assert.Contains(t, doc, `timeout="6"`)
	assert.Contains(t, doc, "How can I help?")
	// The XML writer escapes the ampersand in the action URL.
	assert.Contains(t, doc, "session_id=abc&amp;retry=0")
}

func TestRenderGatherWithoutPrompt(t *testing.T) {
	doc, err := New().GatherSpeech("", "/cb", 5).RenderTwiML()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Gather")
	assert.NotContains(t, doc, "<Say")
}

func TestRenderRedirect(t *testing.T) {
	doc, err := New().Redirect("/twilio/process-ai?session_id=abc").RenderTwiML()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Redirect")
	assert.Contains(t, doc, `method="POST"`)
	assert.Contains(t, doc, "/twilio/process-ai?session_id=abc")
}

func TestRenderDial(t *testing.T) {
	doc, err := New().Dial("+14155551234", "/twilio/transfer-fallback?session_id=abc", 30).RenderTwiML()
	require.NoError(t, err)

	assert.Contains(t, doc, "<Dial")
	assert.Contains(t, doc, "+14155551234")
	assert.Contains(t, doc, `timeout="30"`)
	assert.Contains(t, doc, `answerOnBridge="true"`)
	assert.Contains(t, doc, `record="false"`)
	assert.Contains(t, doc, "/twilio/transfer-fallback?session_id=abc")
	assert.Contains(t, doc, "<Number>")
}

func TestRenderDialWithoutAction(t *testing.T) {
	doc, err := New().Dial("+14155551234", "", 30).RenderTwiML()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Dial")
	assert.NotContains(t, doc, "action=")
}

func TestRenderHangup(t *testing.T) {
	doc, err := New().Say("Goodbye").Hangup().RenderTwiML()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Hangup")
}

func TestRenderPreservesOrder(t *testing.T) {
	doc, err := New().
		Say("greeting").
		GatherSpeech("", "/cb", 6).
		Redirect("/cb").
		RenderTwiML()
	require.NoError(t, err)

	sayIdx := strings.Index(doc, "greeting")
	gatherIdx := strings.Index(doc, "<Gather")
	redirectIdx := strings.Index(doc, "<Redirect")
	assert.True(t, sayIdx < gatherIdx && gatherIdx < redirectIdx, "verbs out of order in %q", doc)
}

func TestRenderEmptyScript(t *testing.T) {
	doc, err := New().RenderTwiML()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Response")
}
