package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Compile-time interface check.
var _ domain.Voice = (*Mouth)(nil)

// ErrMouthStopped is returned by Speak after the mouth's loop has exited.
var ErrMouthStopped = errors.New("mouth stopped")

// Synthesizer turns text into WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, rate float64) ([]byte, error)
	Voice() string
}

// AudioSink plays WAV audio. Play blocks until playback ends or ctx is
// cancelled, and must not start playing once ctx is done.
type AudioSink interface {
	Play(ctx context.Context, wav []byte) error
}

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithCacheDir sets the filesystem directory used for persistent audio
// caching. If empty, the disk layer is disabled (pure in-memory).
func WithCacheDir(dir string) MouthOption {
	return func(m *Mouth) {
		m.cacheDir = dir
	}
}

// WithDiskWrite controls whether new cache entries are written to disk.
// Even when false, existing on-disk entries are still read.
func WithDiskWrite(enabled bool) MouthOption {
	return func(m *Mouth) {
		m.diskWrite = enabled
	}
}

// utterance is one request to speak.
type utterance struct {
	text     string
	rate     float64
	queuedAt time.Time
}

// Mouth is a latest-only voice. There is never more than one pending
// utterance: a new Speak replaces whatever is waiting and cuts off whatever
// is playing.
//
// An internal AudioCache avoids re-synthesizing identical text. Use Prefetch
// to pin and warm the cue vocabulary at startup.
type Mouth struct {
	tts    Synthesizer
	player AudioSink
	log    *logger.Logger
	cache  *AudioCache

	cacheDir  string
	diskWrite bool

	mu         sync.Mutex
	pending    *utterance
	cancel     context.CancelFunc // cancels the utterance taken by drain
	speaking   bool
	stopped    bool
	lastSpoken string
	notify     chan struct{}
}

// NewMouth creates a speech dispatcher with the given TTS client and player.
func NewMouth(tts Synthesizer, player AudioSink, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		tts:       tts,
		player:    player,
		log:       log,
		diskWrite: true,
		notify:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = NewAudioCache(tts.Voice(), m.cacheDir, m.diskWrite, log)
	return m
}

// Speak replaces any pending utterance with text and interrupts the one
// in flight. Non-blocking.
func (m *Mouth) Speak(text string, rate float64) error {
	if text == "" {
		return nil
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrMouthStopped
	}
	m.pending = &utterance{text: text, rate: rate, queuedAt: time.Now()}
	m.cancelCurrentLocked()
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default: // already signaled
	}
	return nil
}

// Interrupt drops the pending utterance and stops playback.
func (m *Mouth) Interrupt() {
	m.mu.Lock()
	m.pending = nil
	m.cancelCurrentLocked()
	m.mu.Unlock()

	m.log.Debug("mouth: interrupted")
}

// cancelCurrentLocked cancels the utterance in flight, if any. m.mu must be
// held.
func (m *Mouth) cancelCurrentLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// IsSpeaking reports whether an utterance is being synthesized or played,
// or is waiting to be.
func (m *Mouth) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking || m.pending != nil
}

// LastSpoken returns the most recent utterance that finished playing.
func (m *Mouth) LastSpoken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSpoken
}

// Cache returns the audio cache used by this Mouth. Useful for stats/logging.
func (m *Mouth) Cache() *AudioCache { return m.cache }

// Run speaks utterances until ctx is cancelled. Blocks.
func (m *Mouth) Run(ctx context.Context) error {
	m.log.Info("mouth started (voice=%s)", m.tts.Voice())
	defer func() {
		m.mu.Lock()
		m.stopped = true
		m.pending = nil
		m.cancelCurrentLocked()
		m.mu.Unlock()
		m.log.Info("mouth stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.notify:
			m.drain(ctx)
		}
	}
}

// drain speaks the pending utterance, then any that replaced it meanwhile.
func (m *Mouth) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		// Taking the utterance and publishing its cancel happen under one
		// lock, so a Speak either replaces it before it starts or cancels it.
		m.mu.Lock()
		u := m.pending
		m.pending = nil
		var uctx context.Context
		if u != nil {
			m.speaking = true
			uctx, m.cancel = context.WithCancel(ctx)
		}
		m.mu.Unlock()

		if u == nil {
			return
		}

		m.speak(ctx, uctx, u)

		m.mu.Lock()
		m.speaking = false
		m.cancelCurrentLocked()
		m.mu.Unlock()
	}
}

// speak synthesizes on ctx, so a superseded utterance still warms the
// cache, and plays on uctx, which Speak and Interrupt cancel.
func (m *Mouth) speak(ctx, uctx context.Context, u *utterance) {
	audio, err := m.synthesizeWithCache(ctx, u.text, u.rate)
	if err != nil {
		m.log.Error("mouth: synthesis failed: %v", err)
		return
	}

	if uctx.Err() != nil {
		m.log.Debug("mouth: dropping stale utterance %q", truncate(u.text, 40))
		return
	}

	m.log.Debug("mouth: speaking (waited=%s): %s", time.Since(u.queuedAt).Round(time.Millisecond), truncate(u.text, 60))
	err = m.player.Play(uctx, audio)
	switch {
	case errors.Is(err, context.Canceled):
		m.log.Debug("mouth: cut off %q", truncate(u.text, 40))
	case err != nil:
		m.log.Error("mouth: playback failed: %v", err)
	default:
		m.mu.Lock()
		m.lastSpoken = u.text
		m.mu.Unlock()
	}
}

// synthesizeWithCache checks the cache first, otherwise calls the
// synthesizer and stores the result. Thread-safe.
func (m *Mouth) synthesizeWithCache(ctx context.Context, text string, rate float64) ([]byte, error) {
	if audio, ok := m.cache.Get(text, rate); ok {
		return audio, nil
	}
	audio, err := m.tts.Synthesize(ctx, text, rate)
	if err != nil {
		return nil, err
	}
	m.cache.Put(text, rate, audio)
	return audio, nil
}

// Prefetch pins texts at rate as cue vocabulary and synthesizes the ones
// not already cached, at most four at a time. Non-blocking.
func (m *Mouth) Prefetch(ctx context.Context, rate float64, texts ...string) {
	missing := m.cache.Pin(rate, texts...)
	if len(missing) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(4)
	go func() {
		for _, text := range missing {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				audio, err := m.tts.Synthesize(ctx, text, rate)
				if err != nil {
					m.log.Debug("prefetch: synthesis failed for %q: %v", truncate(text, 40), err)
					return nil
				}
				m.cache.Put(text, rate, audio)
				return nil
			})
		}
		g.Wait()
		m.log.Debug("prefetch: %d lines at rate %.2f done, %+v", len(missing), rate, m.cache.Stats())
	}()
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
