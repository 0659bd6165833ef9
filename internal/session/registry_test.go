package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vathakkar/ai-voice-concierge/internal/screening"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry(0)

	token := r.Create("call-1", "+14155551234")
	require.NotEmpty(t, token)

	sess, ok := r.Get(token)
	require.True(t, ok)
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, "call-1", sess.CallID)
	assert.Equal(t, "+14155551234", sess.CallerID)
	assert.Equal(t, 0, sess.TurnIndex)
	assert.Empty(t, sess.History)
	assert.False(t, sess.Terminal)
}

func TestRegistryTokensAreUnique(t *testing.T) {
	r := NewRegistry(0)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := r.Create("call", "caller")
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestRegistryGetUnknownToken(t *testing.T) {
	r := NewRegistry(0)
	_, ok := r.Get("no-such-token")
	assert.False(t, ok)
}

func TestRegistryMutate(t *testing.T) {
	r := NewRegistry(0)
	token := r.Create("call-1", "caller")

	ok := r.Mutate(token, func(s *Session) {
		s.History = append(s.History, screening.Message{Role: screening.RoleUser, Content: "hello"})
		s.TurnIndex++
		s.Terminal = true
	})
	require.True(t, ok)

	sess, ok := r.Get(token)
	require.True(t, ok)
	assert.Equal(t, 1, sess.TurnIndex)
	assert.True(t, sess.Terminal)
	require.Len(t, sess.History, 1)
	assert.Equal(t, "hello", sess.History[0].Content)

	assert.False(t, r.Mutate("no-such-token", func(s *Session) {}))
}

func TestRegistryGetReturnsSnapshot(t *testing.T) {
	r := NewRegistry(0)
	token := r.Create("call-1", "caller")
	r.Mutate(token, func(s *Session) {
		s.History = append(s.History, screening.Message{Role: screening.RoleUser, Content: "one"})
	})

	snapshot, ok := r.Get(token)
	require.True(t, ok)
	snapshot.History[0].Content = "tampered"
	snapshot.History = append(snapshot.History, screening.Message{Role: screening.RoleUser, Content: "two"})

	fresh, ok := r.Get(token)
	require.True(t, ok)
	require.Len(t, fresh.History, 1)
	assert.Equal(t, "one", fresh.History[0].Content)
}

func TestRegistryDrop(t *testing.T) {
	r := NewRegistry(0)
	token := r.Create("call-1", "caller")
	assert.Equal(t, 1, r.Len())

	r.Drop(token)
	assert.Equal(t, 0, r.Len())
	_, ok := r.Get(token)
	assert.False(t, ok)

	r.Drop(token) // no-op
}

func TestRegistryConcurrentMutations(t *testing.T) {
	r := NewRegistry(0)
	token := r.Create("call-1", "caller")

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				r.Mutate(token, func(s *Session) {
					s.TurnIndex++
					s.History = append(s.History, screening.Message{
						Role:    screening.RoleUser,
						Content: fmt.Sprintf("w%d-%d", w, i),
					})
				})
			}
		}(w)
	}
	wg.Wait()

	sess, ok := r.Get(token)
	require.True(t, ok)
	assert.Equal(t, workers*perWorker, sess.TurnIndex)
	assert.Len(t, sess.History, workers*perWorker)
}

func TestRegistryConcurrentCreateAndDrop(t *testing.T) {
	r := NewRegistry(0)

	var wg sync.WaitGroup
	wg.Add(10)
	for w := 0; w < 10; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				token := r.Create("call", "caller")
				_, _ = r.Get(token)
				r.Drop(token)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	r := NewRegistry(time.Minute)

	stale := r.Create("call-stale", "caller")
	fresh := r.Create("call-fresh", "caller")

	// Age the stale session past the idle timeout.
	r.mu.RLock()
	r.sessions[stale].sess.LastActive = time.Now().Add(-2 * time.Minute)
	r.mu.RUnlock()

	evicted := r.sweep(time.Now())
	assert.Equal(t, 1, evicted)

	_, ok := r.Get(stale)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)
}

func TestSweepKeepsActiveSessions(t *testing.T) {
	r := NewRegistry(time.Minute)
	token := r.Create("call-1", "caller")

	assert.Equal(t, 0, r.sweep(time.Now()))
	_, ok := r.Get(token)
	assert.True(t, ok)
}
