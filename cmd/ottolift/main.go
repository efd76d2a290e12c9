// OttoLift is a tempo-guided rep counter and rest timer for the gym.
//
// Usage:
//
//	ottolift [-config ottolift.yaml] [-verbose] [-quiet] [-tempo 3-1-2] [-rest 90]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/ottolift/internal/config"
	"github.com/hammamikhairi/ottolift/internal/conversation"
	"github.com/hammamikhairi/ottolift/internal/display"
	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/engine"
	"github.com/hammamikhairi/ottolift/internal/feedback"
	"github.com/hammamikhairi/ottolift/internal/gpt"
	"github.com/hammamikhairi/ottolift/internal/logger"
	"github.com/hammamikhairi/ottolift/internal/speech"
	"github.com/hammamikhairi/ottolift/internal/storage"
	"github.com/hammamikhairi/ottolift/internal/timer"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "ottolift.yaml", "path to the YAML config file")
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (use \"stderr\" to log to console); overrides log_file")
	exercise := flag.String("exercise", "", "exercise name for logged sets")
	tempo := flag.String("tempo", "", "tempo as eccentric-hold-concentric seconds, e.g. 3-1-2")
	rest := flag.Float64("rest", 0, "rest duration in seconds")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	noAI := flag.Bool("no-ai", false, "disable the AI command fallback even if GPT keys are set")
	listen := flag.Bool("listen", false, "enable voice commands via local Whisper STT")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, *verbose, *quiet, *logFile, *exercise, *tempo, *rest, *listen); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Direct logs to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" && cfg.LogFile != "stderr" {
		if dir := filepath.Dir(cfg.LogFile); dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.LogFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Third-party libs (the whisper transcriber) log through the standard
	// package; keep them off the terminal too.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(cfg.Level(), logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// ── Audio out ──

	var tone domain.ToneOutput
	player, err := speech.NewPlayer(log.With("audio"))
	if err != nil {
		log.Error("audio player init failed, tones and speech disabled: %v", err)
	} else {
		tone = player
	}

	var voice domain.Voice
	var mouth *speech.Mouth

	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)

	switch {
	case *noSpeech:
	case player == nil:
	case azureKey == "" || azureRegion == "":
		log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	default:
		tts := speech.NewAzureClient(azureKey, azureRegion, log.With("tts"), speech.WithVoice(cfg.Speech.Voice))
		mouth = speech.NewMouth(tts, player, log.With("mouth"),
			speech.WithCacheDir(cfg.Speech.CacheDir),
			speech.WithDiskWrite(cfg.Speech.DiskCache),
		)
		voice = mouth
		g.Go(func() error { return mouth.Run(gctx) })
		mouth.Prefetch(gctx, cfg.Feedback.VoiceRate, timer.Announcements(30)...)
		mouth.Prefetch(gctx, speech.DefaultRate, speech.ListeningFillers()...)
		log.Info("TTS enabled (voice=%s, region=%s)", cfg.Speech.Voice, azureRegion)
	}

	cues := feedback.New(tone, voice, log.With("cues"),
		feedback.WithTone(cfg.Feedback.Tone),
		feedback.WithVoice(cfg.Feedback.Voice),
	)

	// ── Set log ──

	sets, closeSets := openSetLog(cfg, log)
	defer closeSets()

	// ── Scheduler and engine ──

	loop := timer.NewLoop(log.With("loop"))
	g.Go(func() error { return loop.Run(gctx) })

	var eng *engine.Engine
	ui := display.NewUI(func(ctx context.Context) (domain.Snapshot, error) {
		return eng.Snapshot(ctx)
	})
	var notifier domain.Notifier = conversation.NewCLINotifier(log, ui.Printf)
	if mouth != nil {
		notifier = speech.NewSpeakingNotifier(notifier, mouth, cues.VoiceEnabled, log)
	}

	eng = engine.New(loop, cues, sets, notifier, log.With("engine"),
		engine.WithExercise(cfg.Exercise),
		engine.WithAutoRest(cfg.Rest.Auto),
		engine.WithRestOptions(timer.WithRestDuration(cfg.RestDuration())),
		engine.WithTempoOptions(
			timer.WithTempo(cfg.TempoDurations()),
			timer.WithTempoTick(cfg.TickInterval()),
			timer.WithVoiceRate(cfg.Feedback.VoiceRate),
		),
	)

	// ── Input parsing ──

	var parser domain.IntentParser = conversation.NewKeywordParser(log)

	gptKey := os.Getenv("GPT_CHAT_KEY")
	gptEndpoint := os.Getenv("GPT_CHAT_ENDPOINT")

	if gptKey != "" && gptEndpoint != "" && !*noAI {
		var gptOpts []gpt.ClientOption
		if model := os.Getenv("GPT_CHAT_MODEL"); model != "" {
			gptOpts = append(gptOpts, gpt.WithModel(model))
		}
		if on, err := strconv.ParseBool(os.Getenv("GPT_CHAT_JSON_MODE")); err == nil {
			gptOpts = append(gptOpts, gpt.WithJSONMode(on))
		}
		client := gpt.NewClient(gptEndpoint, gptKey, log.With("gpt"), gptOpts...)
		parser = gpt.NewClassifier(parser, client, func(ctx context.Context) string {
			snap, err := eng.Snapshot(ctx)
			if err != nil {
				return ""
			}
			return describe(snap)
		}, log.With("gpt"))
		log.Info("AI command fallback enabled")
	} else if !*noAI {
		log.Info("AI command fallback disabled: set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT env vars to enable")
	}

	// ── Voice in ──

	var ear *speech.Ear
	if cfg.Listen.Enabled {
		if _, err := os.Stat(cfg.Listen.Model); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", cfg.Listen.Model)
			os.Exit(1)
		}
		rec, err := speech.NewWhisperRecorder(cfg.Listen.WhisperBin, cfg.Listen.Model, ".ottolift-stt", cfg.Level() >= logger.LevelVerbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		var interrupter speech.Interrupter
		if mouth != nil {
			interrupter = mouth
		}
		ear = speech.NewEar(rec, parser, interrupter, log.With("ear"),
			speech.WithEchoWords(timer.Announcements(30)...),
			speech.WithSetActive(func(ctx context.Context) bool {
				snap, err := eng.Snapshot(ctx)
				return err == nil && snap.Tempo.Running
			}),
		)
		g.Go(func() error { return ear.Run(gctx) })
		log.Info("voice input enabled (bin=%s, model=%s)", cfg.Listen.WhisperBin, cfg.Listen.Model)
	}

	app := &cliApp{
		engine: eng,
		parser: parser,
		mouth:  mouth,
		ear:    ear,
		log:    log,
		ui:     ui,
	}

	fmt.Println(display.RenderBanner("tempo " + cfg.TempoDurations().String() + " · rest " + speech.FormatDurationSpeech(cfg.RestDuration())))
	if ear != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode ON. Say \"Hey coach\" then a command, or type it."))
	}
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		app.run(gctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal. Blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second)
	if err := eng.Close(closeCtx); err != nil && !errors.Is(err, domain.ErrSchedulerStopped) {
		log.Warn("closing engine: %v", err)
	}
	closeCancel()

	cancel()
	if err := g.Wait(); err != nil {
		log.Error("shutdown: %v", err)
	}
}

// applyFlags layers command-line flags over the loaded config.
func applyFlags(cfg *config.Config, verbose, quiet bool, logFile, exercise, tempo string, rest float64, listen bool) error {
	if verbose {
		cfg.LogLevel = "verbose"
	}
	if quiet {
		cfg.LogLevel = "off"
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if exercise != "" {
		cfg.Exercise = exercise
	}
	if tempo != "" {
		d, err := domain.ParseTempo(tempo)
		if err != nil {
			return err
		}
		cfg.Tempo.Eccentric = d.Eccentric.Seconds()
		cfg.Tempo.Hold = d.Hold.Seconds()
		cfg.Tempo.Concentric = d.Concentric.Seconds()
	}
	if rest < 0 || rest > domain.MaxDuration.Seconds() {
		return fmt.Errorf("rest must be between 0 and %g seconds, got %g", domain.MaxDuration.Seconds(), rest)
	}
	if rest > 0 {
		cfg.Rest.Seconds = rest
	}
	if listen {
		cfg.Listen.Enabled = true
	}
	return nil
}

// openSetLog opens the configured set log, falling back to memory when the
// database cannot be opened.
func openSetLog(cfg *config.Config, log *logger.Logger) (domain.SetLog, func()) {
	setsLog := log.With("sets")
	if strings.EqualFold(cfg.Storage.Driver, "memory") {
		return storage.NewMemoryStore(setsLog), func() {}
	}

	if dir := filepath.Dir(cfg.Storage.Path); dir != "" && dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	db, err := storage.NewSQLiteStore(cfg.Storage.Path, setsLog)
	if err != nil {
		log.Error("set log unavailable, history will not persist: %v", err)
		return storage.NewMemoryStore(setsLog), func() {}
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Warn("closing set log: %v", err)
		}
	}
}
