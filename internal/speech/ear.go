package speech

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Default wake phrases, matched case-insensitively anywhere in a clip.
// Longer phrases come first so "hey coach" wins over "coach".
var defaultWakeWords = []string{
	"hey coach",
	"hey, coach",
	"okay coach",
	"hey couch",
	"otto lift",
	"ottolift",
	"coach",
}

// defaultSetCommands are accepted without a wake word while a set runs.
// The lifter is under the bar and short of breath; every phrase here parses
// to a set intent.
var defaultSetCommands = []string{
	"done",
	"finish",
	"finished",
	"finish set",
	"set done",
	"rack it",
	"pause",
	"wait",
}

// Interrupter is the part of a voice the ear needs: it silences speech when
// the wake word is heard and acknowledges it.
type Interrupter interface {
	Speak(text string, rate float64) error
	Interrupt()
	IsSpeaking() bool
}

// Recorder captures one clip from the microphone and returns what was said
// in it.
type Recorder interface {
	Record(ctx context.Context, d time.Duration) (string, error)
}

// SetActiveFunc reports whether a set is running. The ear asks before every
// clip.
type SetActiveFunc func(ctx context.Context) bool

// Heard is one voice command: the cleaned transcription and what it parsed
// to.
type Heard struct {
	Text   string
	Intent *domain.Intent
}

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithWakeWords overrides the default wake phrases.
func WithWakeWords(words ...string) EarOption {
	return func(e *Ear) { e.wakeWords = words }
}

// WithSetCommands overrides the phrases accepted without a wake word during
// a set.
func WithSetCommands(phrases ...string) EarOption {
	return func(e *Ear) { e.setCommands = phraseSet(phrases) }
}

// WithEchoWords lists what the voice says during a set. A clip made only of
// these words is the speaker bleeding into the microphone and is dropped.
func WithEchoWords(phrases ...string) EarOption {
	return func(e *Ear) {
		for _, p := range phrases {
			for _, w := range words(p) {
				e.echo[w] = true
			}
		}
	}
}

// WithSetActive makes the ear switch to set mode while fn reports true.
func WithSetActive(fn SetActiveFunc) EarOption {
	return func(e *Ear) { e.setActive = fn }
}

// WithClipLengths sets the wake-word clip, the set-mode clip and the
// command chunk lengths.
func WithClipLengths(wake, set, command time.Duration) EarOption {
	return func(e *Ear) {
		e.wakeClip, e.setClip, e.commandClip = wake, set, command
	}
}

// WithListenTimeout caps how long a command may run after the wake word.
func WithListenTimeout(d time.Duration) EarOption {
	return func(e *Ear) { e.listenTimeout = d }
}

// Ear turns microphone input into intents.
//
// Between sets it waits for a wake word, interrupts the voice, says a
// filler and then records the command until the lifter stops talking. During
// a set the voice is calling the tempo and the lifter can't hold a
// conversation, so the ear takes the short set commands bare, drops clips
// that are only the voice's own cue words, and still honours the wake word.
type Ear struct {
	rec       Recorder
	parser    domain.IntentParser
	mouth     Interrupter // nil when there is no voice
	setActive SetActiveFunc
	log       *logger.Logger

	wakeWords   []string
	wakeRe      *regexp.Regexp // any wake word, for removal mid-command
	setCommands map[string]bool
	echo        map[string]bool

	wakeClip      time.Duration
	setClip       time.Duration
	commandClip   time.Duration
	listenTimeout time.Duration
	grace         time.Duration // after the filler, before the first chunk
	idle          time.Duration // backoff while the voice talks or recording fails

	out chan Heard
}

// NewEar creates a listener that parses what it hears with parser. mouth
// may be nil.
func NewEar(rec Recorder, parser domain.IntentParser, mouth Interrupter, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		rec:           rec,
		parser:        parser,
		mouth:         mouth,
		setActive:     func(context.Context) bool { return false },
		log:           log,
		wakeWords:     defaultWakeWords,
		setCommands:   phraseSet(defaultSetCommands),
		echo:          make(map[string]bool),
		wakeClip:      2 * time.Second,
		setClip:       1500 * time.Millisecond,
		commandClip:   time.Second,
		listenTimeout: 8 * time.Second,
		grace:         500 * time.Millisecond,
		idle:          200 * time.Millisecond,
		out:           make(chan Heard, 8),
	}
	for _, opt := range opts {
		opt(e)
	}

	alts := make([]string, len(e.wakeWords))
	for i, w := range e.wakeWords {
		alts[i] = regexp.QuoteMeta(w)
	}
	e.wakeRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b[,.]?`)
	return e
}

// C returns the channel of heard commands.
func (e *Ear) C() <-chan Heard {
	return e.out
}

// Run listens until ctx is cancelled. Blocks.
func (e *Ear) Run(ctx context.Context) error {
	e.log.Info("ear: started (wake=%s, set=%s, timeout=%s)", e.wakeClip, e.setClip, e.listenTimeout)
	defer e.log.Info("ear: stopped")

	for ctx.Err() == nil {
		if e.setActive(ctx) {
			e.scanSet(ctx)
		} else {
			e.scanWake(ctx)
		}
	}
	return nil
}

// ── Set mode ─────────────────────────────────────────────────────

// scanSet records one short clip during a set. The voice is expected to be
// talking, so recording does not wait for it.
func (e *Ear) scanSet(ctx context.Context) {
	text, ok := e.record(ctx, e.setClip)
	if !ok || text == "" {
		return
	}

	if rest, woke := e.splitWake(text); woke {
		if rest != "" {
			e.emit(ctx, rest)
		}
		return
	}
	if e.isEcho(text) {
		e.log.Debug("ear/set: dropping echo %q", text)
		return
	}
	if !e.setCommands[normalize(text)] {
		e.log.Debug("ear/set: ignoring %q", text)
		return
	}
	e.emit(ctx, text)
}

// isEcho reports whether every word of text is something the voice says.
func (e *Ear) isEcho(text string) bool {
	ws := words(text)
	if len(ws) == 0 || len(e.echo) == 0 {
		return false
	}
	for _, w := range ws {
		if !e.echo[w] {
			return false
		}
	}
	return true
}

// ── Wake mode ────────────────────────────────────────────────────

// scanWake records one clip and, on a wake word, takes the command.
func (e *Ear) scanWake(ctx context.Context) {
	if e.speaking() {
		e.sleep(ctx, e.idle)
		return
	}

	text, ok := e.record(ctx, e.wakeClip)
	// The voice started mid-clip: whatever was recorded is contaminated.
	if !ok || text == "" || e.speaking() {
		return
	}

	rest, woke := e.splitWake(text)
	if !woke {
		return
	}
	e.log.Info("ear: wake word in %q", text)
	if e.mouth != nil {
		e.mouth.Interrupt()
	}

	// "hey coach pause" in one breath.
	if rest != "" {
		e.emit(ctx, rest)
		return
	}

	if e.mouth != nil {
		if err := e.mouth.Speak(LineListening(), DefaultRate); err != nil {
			e.log.Debug("ear: filler: %v", err)
		}
	}
	if cmd := e.listen(ctx); cmd != "" {
		e.emit(ctx, cmd)
	}
}

// listen records command chunks after the filler until the lifter goes
// quiet or the timeout passes, and returns what was said.
func (e *Ear) listen(ctx context.Context) string {
	for e.speaking() {
		if !e.sleep(ctx, e.idle) {
			return ""
		}
	}
	if !e.sleep(ctx, e.grace) {
		return ""
	}

	// More silence is allowed before the first word than after it.
	const silentBefore, silentAfter = 4, 2

	deadline := time.Now().Add(e.listenTimeout)
	var parts []string
	silent := 0
	for time.Now().Before(deadline) {
		chunk, ok := e.record(ctx, e.commandClip)
		if !ok {
			return ""
		}
		chunk = e.removeWake(chunk)
		if chunk == "" {
			silent++
			limit := silentBefore
			if len(parts) > 0 {
				limit = silentAfter
			}
			if silent >= limit {
				break
			}
			continue
		}
		silent = 0
		parts = append(parts, chunk)
	}
	return strings.Join(parts, " ")
}

// ── Shared helpers ───────────────────────────────────────────────

// record captures and cleans one clip. ok is false when ctx ended; a
// recorder error backs off and reports an empty clip.
func (e *Ear) record(ctx context.Context, d time.Duration) (string, bool) {
	text, err := e.rec.Record(ctx, d)
	if ctx.Err() != nil {
		return "", false
	}
	if err != nil {
		e.log.Error("ear: %v", err)
		e.sleep(ctx, 10*e.idle)
		return "", true
	}
	return cleanTranscription(text), true
}

// emit parses text and hands the result to C.
func (e *Ear) emit(ctx context.Context, text string) {
	intent, err := e.parser.Parse(ctx, text)
	if err != nil {
		e.log.Error("ear: parsing %q: %v", text, err)
		return
	}
	e.log.Info("ear: heard %q -> %s", text, intent.Type)
	select {
	case e.out <- Heard{Text: text, Intent: intent}:
	case <-ctx.Done():
	}
}

func (e *Ear) speaking() bool {
	return e.mouth != nil && e.mouth.IsSpeaking()
}

// sleep waits d and reports false if ctx ended first.
func (e *Ear) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// splitWake finds the first wake word in text and returns what follows it.
func (e *Ear) splitWake(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range e.wakeWords {
		if idx := strings.Index(lower, strings.ToLower(w)); idx >= 0 {
			rest := strings.TrimLeft(text[idx+len(w):], " ,.!?")
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// removeWake drops wake words repeated mid-command.
func (e *Ear) removeWake(text string) string {
	return strings.Join(strings.Fields(e.wakeRe.ReplaceAllString(text, "")), " ")
}

// ── Transcription cleanup ────────────────────────────────────────

var (
	// timestamp matches whisper's "[00:00:00.000 --> 00:00:02.000]" prefix.
	timestamp = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3} --> [^\]]*\]`)
	// noiseTag matches annotations such as "[BLANK_AUDIO]", "(weights
	// clanking)" or "(speaking French)".
	noiseTag = regexp.MustCompile(`[\(\[][A-Za-z_][A-Za-z_\s]*[\)\]]`)
)

// hallucinations are phrases whisper invents from gym noise and silence.
var hallucinations = phraseSet([]string{
	"you",
	"thank you",
	"thanks for watching",
	"thank you for watching",
	"bye",
	"the end",
})

// cleanTranscription strips timestamps and noise tags, collapses whitespace,
// and drops punctuation-only clips and known hallucinations.
func cleanTranscription(s string) string {
	s = timestamp.ReplaceAllString(s, " ")
	s = noiseTag.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if n := normalize(s); n == "" || hallucinations[n] {
		return ""
	}
	return s
}

// normalize lowercases s and trims surrounding punctuation so "Done." and
// "done" compare equal.
func normalize(s string) string {
	return strings.Join(words(s), " ")
}

// words splits s into lowercase words without punctuation.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func phraseSet(phrases []string) map[string]bool {
	m := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		m[normalize(p)] = true
	}
	return m
}

// ── Whisper ──────────────────────────────────────────────────────

// WhisperRecorder records from the default microphone and transcribes with
// a local whisper-cli binary.
type WhisperRecorder struct {
	bin     string
	model   string
	tempDir string
	verbose bool
}

// NewWhisperRecorder checks that bin is on PATH. tempDir holds the WAV
// files between recording and transcription.
func NewWhisperRecorder(bin, model, tempDir string, verbose bool) (*WhisperRecorder, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("whisper binary %q: %w", bin, err)
	}
	return &WhisperRecorder{bin: bin, model: model, tempDir: tempDir, verbose: verbose}, nil
}

// Record captures d of audio and waits for its transcription.
func (w *WhisperRecorder) Record(ctx context.Context, d time.Duration) (string, error) {
	var (
		text string
		wg   sync.WaitGroup
	)
	wg.Add(1)
	t, err := audiotranscriber.NewTranscriber(w.bin, w.model, w.tempDir, "wav", func(s string) {
		text = s
		wg.Done()
	}, w.verbose)
	if err != nil {
		return "", fmt.Errorf("transcriber init: %w", err)
	}
	if err := t.Start(); err != nil {
		return "", fmt.Errorf("recording start: %w", err)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	t.Stop()
	wg.Wait()
	return text, nil
}
