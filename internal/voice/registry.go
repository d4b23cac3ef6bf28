package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bigbite-orderbot/internal/logging"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	maxSpeakers    = 10000
	speakerIdleTTL = 30 * time.Minute
)

// Registry holds one Speaker per session key. Idle speakers expire and the
// least recently used one is dropped once maxSpeakers is reached; either
// way it is stopped first.
type Registry struct {
	synth  Synthesizer
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	speakers *expirable.LRU[string, *Speaker]
}

func NewRegistry(synth Synthesizer, opts Options, logger *slog.Logger) *Registry {
	return newRegistry(synth, opts, logger, maxSpeakers, speakerIdleTTL)
}

func newRegistry(synth Synthesizer, opts Options, logger *slog.Logger, size int, ttl time.Duration) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Registry{synth: synth, opts: opts, logger: logger}
	r.speakers = expirable.NewLRU[string, *Speaker](size, func(_ string, sp *Speaker) {
		sp.Stop()
	}, ttl)
	return r
}

// For returns the speaker for key and restarts its idle timer.
func (r *Registry) For(key string) *Speaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.speakers.Get(key)
	if !ok {
		sp = NewSpeaker(r.synth, r.opts, r.logger.With("session", key))
	}
	r.speakers.Add(key, sp)
	return sp
}

// Speak starts text on the speaker for key, interrupting its current utterance.
func (r *Registry) Speak(key, text string) {
	r.For(key).Speak(text)
}

func (r *Registry) Speaking(key string) bool {
	sp, ok := r.speakers.Peek(key)
	return ok && sp.Speaking()
}

// Stop silences and forgets the speaker for key.
func (r *Registry) Stop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speakers.Remove(key)
}

// Len reports how many speakers are tracked.
func (r *Registry) Len() int {
	return r.speakers.Len()
}

// LogSynthesizer records utterances in the log instead of producing audio.
// It stands in until a speech backend is configured.
type LogSynthesizer struct {
	Logger *slog.Logger
}

func (l LogSynthesizer) Speak(_ context.Context, text string) error {
	if l.Logger != nil {
		l.Logger.Info("voice: utterance", "chars", len(text))
	}
	return nil
}
