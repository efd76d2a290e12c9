package timer

import (
	"sync"
	"time"

	"github.com/hammamikhairi/ottolift/internal/feedback"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// recorder captures tones and utterances in the order they were emitted.
type recorder struct {
	mu     sync.Mutex
	tones  []float64
	spoken []string
}

func (r *recorder) PlayTone(freq float64, _ time.Duration, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tones = append(r.tones, freq)
	return nil
}

func (r *recorder) Speak(text string, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return nil
}

func (r *recorder) toneCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tones)
}

func (r *recorder) lastSpoken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.spoken) == 0 {
		return ""
	}
	return r.spoken[len(r.spoken)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tones = nil
	r.spoken = nil
}

func newTestCues(opts ...feedback.Option) (*feedback.Cues, *recorder) {
	rec := &recorder{}
	return feedback.New(rec, rec, logger.New(logger.LevelOff, nil), opts...), rec
}

func secs(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}
