// Package voice reads assistant replies aloud without holding up the
// conversation.
package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"bigbite-orderbot/internal/logging"
)

// Synthesizer speaks text and returns when it has finished. It should stop
// early when ctx is done.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

type Options struct {
	// MinFallback is the shortest time the speaking flag may stay on
	// without a completion signal.
	MinFallback time.Duration
	// PerRune scales the fallback with the length of the text.
	PerRune time.Duration
}

func DefaultOptions() Options {
	return Options{MinFallback: 5 * time.Second, PerRune: 80 * time.Millisecond}
}

// Speaker plays one utterance at a time for a single session. A new Speak
// cancels the pending one.
type Speaker struct {
	synth  Synthesizer
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	speaking bool
}

func NewSpeaker(synth Synthesizer, opts Options, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.MinFallback <= 0 {
		opts.MinFallback = DefaultOptions().MinFallback
	}
	return &Speaker{synth: synth, opts: opts, logger: logger}
}

// FallbackFor is how long the speaking flag may stay on for text.
func (s *Speaker) FallbackFor(text string) time.Duration {
	d := time.Duration(utf8.RuneCountInString(text)) * s.opts.PerRune
	if d < s.opts.MinFallback {
		return s.opts.MinFallback
	}
	return d
}

// Speak starts text in the background and returns immediately. The speaking
// flag clears on completion, on a newer Speak or Stop, or at the fallback
// deadline, whichever comes first.
func (s *Speaker) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.FallbackFor(text))

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.speaking = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.synth.Speak(ctx, text); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("voice: synthesis failed", "error", err)
		}
	}()
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				s.logger.Debug("voice: fallback deadline reached")
			}
		}
		s.finish(gen)
		cancel()
	}()
}

// Stop cancels any pending utterance.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.speaking = false
}

func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

func (s *Speaker) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.speaking = false
	s.cancel = nil
}
