// Package call implements the call session state machine: it turns the
// sequence of disconnected webhook callbacks that make up one phone call
// into a coherent multi-turn screening conversation.
package call

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vathakkar/ai-voice-concierge/internal/domain"
	"github.com/vathakkar/ai-voice-concierge/internal/llm"
	"github.com/vathakkar/ai-voice-concierge/internal/repository"
	"github.com/vathakkar/ai-voice-concierge/internal/screening"
	"github.com/vathakkar/ai-voice-concierge/internal/session"
	"github.com/vathakkar/ai-voice-concierge/internal/voicescript"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
	"go.uber.org/zap"
)

const (
	holdText        = "One moment."
	repromptText    = "I didn't hear anything. Can you please repeat how I can help?"
	noSpeechGoodbye = "Sorry, I still didn't hear anything. Goodbye!"
	errorGoodbye    = "Sorry, there was an error. Goodbye!"
	transferBusy    = "Unfortunately Vansh is on another call. Please text him and he will get back to you as soon as possible."
	bypassGreeting  = "Connecting you now."
)

// Service drives one webhook event at a time through the screening flow.
// Every method returns a voice script; callers always get something valid to
// play, never an error.
type Service struct {
	config    Config
	callLog   repository.CallLogRepository
	allowlist repository.AllowlistRepository
	registry  *session.Registry
	model     llm.Invoker
	now       func() time.Time
}

// NewService wires the state machine to its collaborators.
func NewService(config Config, callLog repository.CallLogRepository, allowlist repository.AllowlistRepository, registry *session.Registry, model llm.Invoker) *Service {
	return &Service{
		config:    config.withDefaults(),
		callLog:   callLog,
		allowlist: allowlist,
		registry:  registry,
		model:     model,
		now:       time.Now,
	}
}

// HandleIncomingCall processes the initial call event. Allow-listed callers
// are connected directly and never get a session; everyone else gets a
// greeting and a speech-collection directive.
func (s *Service) HandleIncomingCall(ctx context.Context, callerID string) *voicescript.Script {
	l := logger.Base().With(zap.String("caller_id", callerID))

	entry, err := s.allowlist.Lookup(ctx, callerID)
	if err != nil {
		// Degrade to screening rather than failing the call.
		l.Error("allow-list lookup failed, continuing with screening", zap.Error(err))
		entry = nil
	}

	callID, err := s.callLog.StartCall(ctx, callerID)
	if err != nil {
		l.Error("failed to log new call", zap.Error(err))
	}

	if entry != nil {
		l.Info("allow-list match, bypassing screening",
			zap.String("contact_name", entry.ContactName),
			zap.String("category", entry.Category),
		)
		if callID != "" {
			summary := fmt.Sprintf("Allow-list bypass: %s (%s)", entry.ContactName, entry.Category)
			s.finalize(ctx, callID, domain.OutcomeTransferredException, summary)
		}
		return voicescript.New().
			Say(bypassGreeting).
			Dial(s.config.RealPhoneNumber, "", s.config.DialTimeoutSec)
	}

	token := s.registry.Create(callID, callerID)
	l.Info("call session created", zap.String("session_token", token), zap.String("call_id", callID))

	greeting := fmt.Sprintf("%s, I am a virtual assistant. Tell me how can Vansh help you today? I will analyze your response and see if I can get a hold of him.",
		screening.TimeBasedGreeting(s.now()))
	actionURL := speechResultURL(token, 0)
	return voicescript.New().
		Say(greeting).
		GatherSpeech("", actionURL, s.config.GatherTimeoutSec).
		Redirect(actionURL)
}

// HandleSpeechResult processes a speech-collection callback. Speech present
// buffers the utterance and hands off to the processing step so this request
// returns quickly; silence re-prompts once and then ends the call.
func (s *Service) HandleSpeechResult(ctx context.Context, token string, retry int, callerID, speech string) *voicescript.Script {
	l := logger.Base().With(zap.String("session_token", token))

	sess, ok := s.registry.Get(token)
	if !ok {
		// Session lost (restart, eviction, or a stale callback): synthesize a
		// fresh one so the caller is not dropped mid-sentence.
		l.Warn("unknown session token on speech callback, creating fresh session")
		callID, err := s.callLog.StartCall(ctx, callerID)
		if err != nil {
			l.Error("failed to log new call for recovered session", zap.Error(err))
		}
		token = s.registry.Create(callID, callerID)
		sess, _ = s.registry.Get(token)
	}

	if sess.Terminal {
		// Carrier retry after the call already ended; never re-finalize.
		return voicescript.New().Say(noSpeechGoodbye).Hangup()
	}

	if strings.TrimSpace(speech) != "" {
		s.registry.Mutate(token, func(st *session.Session) {
			st.PendingSpeech = speech
			st.HasPending = true
		})
		return voicescript.New().
			Say(holdText).
			Redirect(processSpeechURL(token))
	}

	if retry == 0 {
		actionURL := speechResultURL(token, 1)
		return voicescript.New().
			GatherSpeech(repromptText, actionURL, s.config.RepromptTimeoutSec).
			Redirect(actionURL)
	}

	l.Info("caller never spoke, ending call", zap.String("call_id", sess.CallID))
	s.registry.Mutate(token, func(st *session.Session) {
		st.Terminal = true
		st.Decision = screening.DecisionEnd
	})
	if sess.CallID != "" {
		s.finalize(ctx, sess.CallID, domain.OutcomeEndedNoSpeech, "")
	}
	return voicescript.New().Say(noSpeechGoodbye)
}

// ProcessSpeech pops the buffered utterance, runs the decision protocol and
// emits the next script. The two-step hand-off from HandleSpeechResult keeps
// each individual callback fast; this is the only step that waits on the
// model.
func (s *Service) ProcessSpeech(ctx context.Context, token string) *voicescript.Script {
	l := logger.Base().With(zap.String("session_token", token))

	sess, ok := s.registry.Get(token)
	if !ok {
		l.Warn("unknown session token on processing step")
		return voicescript.New().Say(errorGoodbye)
	}
	if sess.Terminal {
		return voicescript.New().Say(noSpeechGoodbye).Hangup()
	}
	l = l.With(zap.String("call_id", sess.CallID))

	var speech string
	var hasPending bool
	var turnIndex int
	s.registry.Mutate(token, func(st *session.Session) {
		speech = st.PendingSpeech
		hasPending = st.HasPending
		st.PendingSpeech = ""
		st.HasPending = false
		turnIndex = st.TurnIndex
	})

	if !hasPending || strings.TrimSpace(speech) == "" {
		// Duplicate delivery or a redirect that lost its buffer: treat as
		// silence and fall back into the retry path instead of crashing.
		l.Warn("no pending speech on processing step, re-prompting")
		actionURL := speechResultURL(token, 1)
		return voicescript.New().
			GatherSpeech(repromptText, actionURL, s.config.RepromptTimeoutSec).
			Redirect(actionURL)
	}

	s.registry.Mutate(token, func(st *session.Session) {
		st.History = append(st.History, screening.Message{Role: screening.RoleUser, Content: speech})
		st.TurnIndex++
	})
	sess, _ = s.registry.Get(token)

	reply := s.invokeModel(ctx, l, sess.History)
	decision, spoken := screening.ParseReply(reply)

	s.registry.Mutate(token, func(st *session.Session) {
		st.History = append(st.History, screening.Message{Role: screening.RoleAssistant, Content: reply})
		if decision != screening.DecisionContinue {
			st.Decision = decision
			st.Terminal = true
		}
	})

	s.persistTurn(ctx, l, sess.CallID, turnIndex, domain.SpeakerCaller, speech)
	s.persistTurn(ctx, l, sess.CallID, turnIndex, domain.SpeakerSystem, spoken)

	switch decision {
	case screening.DecisionTransfer:
		l.Info("screening decision: transfer")
		if sess.CallID != "" {
			s.finalize(ctx, sess.CallID, domain.OutcomeTransferred, buildCallSummary(sess.History, speech))
		}
		// The session survives until the dial-status callback or the janitor.
		return voicescript.New().
			Say(spoken).
			Dial(s.config.RealPhoneNumber, transferOutcomeURL(token), s.config.DialTimeoutSec)

	case screening.DecisionEnd:
		l.Info("screening decision: end call")
		if sess.CallID != "" {
			s.finalize(ctx, sess.CallID, domain.OutcomeCompleted, buildCallSummary(sess.History, speech))
		}
		return voicescript.New().Say(spoken)

	default:
		l.Info("screening decision: continue conversation")
		actionURL := speechResultURL(token, 0)
		return voicescript.New().
			GatherSpeech(spoken, actionURL, s.config.GatherTimeoutSec).
			Redirect(actionURL)
	}
}

// HandleTransferOutcome processes the dial-status callback after a transfer
// attempt. A bridged call just hangs up this leg; anything else overwrites
// the outcome and offers the text-message fallback.
func (s *Service) HandleTransferOutcome(ctx context.Context, token, dialStatus string) *voicescript.Script {
	status := strings.ToLower(strings.TrimSpace(dialStatus))
	if status == "" {
		status = "unknown"
	}
	l := logger.Base().With(
		zap.String("session_token", token),
		zap.String("dial_status", status),
	)

	sess, ok := s.registry.Get(token)
	if ok {
		defer s.registry.Drop(token)
	}

	if status == "completed" || status == "answered" {
		l.Info("transfer bridged successfully")
		return voicescript.New().Hangup()
	}

	l.Info("transfer did not complete, offering text fallback")
	if ok && sess.CallID != "" {
		// Deliberate overwrite of the earlier "transferred" outcome.
		if err := s.callLog.FinalizeCall(ctx, sess.CallID, domain.TransferFailedOutcome(status), ""); err != nil {
			l.Error("failed to record transfer failure", zap.Error(err))
		}
	}
	return voicescript.New().Say(transferBusy)
}

// invokeModel runs the decision protocol request and substitutes the
// deterministic fallback on any failure. The model is never retried
// mid-call; a retry would double-charge latency against the caller's
// patience.
func (s *Service) invokeModel(ctx context.Context, l *zap.Logger, history []screening.Message) string {
	messages := screening.BuildRequest(history)

	start := time.Now()
	reply, err := s.model.Complete(ctx, messages)
	if err != nil {
		l.Error("model invocation failed, using fallback reply", zap.Error(err))
		return screening.FallbackReply
	}
	if strings.TrimSpace(reply) == "" {
		l.Warn("model returned empty reply, using fallback reply")
		return screening.FallbackReply
	}
	l.Debug("model reply received", zap.Duration("latency", time.Since(start)))
	return reply
}

// finalize writes the terminal outcome. Persistence failures are logged and
// swallowed; the caller must still hear a valid goodbye.
func (s *Service) finalize(ctx context.Context, callID string, outcome domain.CallOutcome, summary string) {
	if err := s.callLog.FinalizeCall(ctx, callID, outcome, summary); err != nil {
		logger.Base().Error("failed to finalize call",
			zap.String("call_id", callID),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}
}

func (s *Service) persistTurn(ctx context.Context, l *zap.Logger, callID string, turnIndex int, speaker domain.Speaker, text string) {
	if callID == "" {
		return
	}
	if err := s.callLog.AppendTurn(ctx, callID, turnIndex, speaker, text); err != nil {
		l.Error("failed to persist conversation turn",
			zap.Int("turn_index", turnIndex),
			zap.String("speaker", string(speaker)),
			zap.Error(err),
		)
	}
}

// buildCallSummary condenses the conversation into a one-line summary for
// the call record. The first caller utterance carries the reason for the
// call; fall back to the turn that triggered the decision.
func buildCallSummary(history []screening.Message, lastSpeech string) string {
	reason := lastSpeech
	for _, msg := range history {
		if msg.Role == screening.RoleUser && strings.TrimSpace(msg.Content) != "" {
			reason = msg.Content
			break
		}
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 140 {
		reason = reason[:140] + "..."
	}
	return "Caller: " + reason
}
