package voicescript

import (
	"fmt"
	"strconv"

	"github.com/twilio/twilio-go/twiml"
)

// RenderTwiML serializes the script into a TwiML <Response> document. URL
// attribute escaping is handled by the underlying XML writer.
func (s *Script) RenderTwiML() (string, error) {
	verbs := make([]twiml.Element, 0, len(s.elements))

	for _, el := range s.elements {
		switch v := el.(type) {
		case say:
			verbs = append(verbs, &twiml.VoiceSay{
				Message: v.text,
				Voice:   DefaultVoice,
			})
		case gather:
			g := &twiml.VoiceGather{
				Input:   "speech",
				Action:  v.action,
				Method:  "POST",
				Timeout: strconv.Itoa(v.timeoutSec),
			}
			if v.prompt != "" {
				g.InnerElements = []twiml.Element{
					&twiml.VoiceSay{Message: v.prompt, Voice: DefaultVoice},
				}
			}
			verbs = append(verbs, g)
		case redirect:
			verbs = append(verbs, &twiml.VoiceRedirect{
				Url:    v.url,
				Method: "POST",
			})
		case dial:
			verbs = append(verbs, &twiml.VoiceDial{
				Action:         v.action,
				Method:         "POST",
				Timeout:        strconv.Itoa(v.timeoutSec),
				Record:         "false",
				AnswerOnBridge: "true",
				InnerElements: []twiml.Element{
					&twiml.VoiceNumber{PhoneNumber: v.number},
				},
			})
		case hangup:
			verbs = append(verbs, &twiml.VoiceHangup{})
		default:
			return "", fmt.Errorf("unknown voice script primitive %T", el)
		}
	}

	doc, err := twiml.Voice(verbs)
	if err != nil {
		return "", fmt.Errorf("failed to render voice response: %w", err)
	}
	return doc, nil
}
