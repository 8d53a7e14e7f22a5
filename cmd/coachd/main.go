// Command coachd runs the Bulgarian speech-coaching gateway: the HTTP
// surface (content lookups, /tts, /metrics) and the /ws/asr duplex
// session protocol described in spec.md.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bgcoach/speech-coach/internal/asr"
	"github.com/bgcoach/speech-coach/internal/audio"
	"github.com/bgcoach/speech-coach/internal/chat"
	"github.com/bgcoach/speech-coach/internal/coach"
	"github.com/bgcoach/speech-coach/internal/content"
	"github.com/bgcoach/speech-coach/internal/session"
	"github.com/bgcoach/speech-coach/internal/tracestore"
	"github.com/bgcoach/speech-coach/internal/tts"
)

// outboundPoolSize bounds the connection pool kept open to the ASR and
// TTS sidecars, mirroring the teacher's per-backend pool sizing in
// cmd/gateway/main.go's initASR/initTTS.
const outboundPoolSize = 50

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()

	store, err := content.Load(cfg.ContentDir)
	if err != nil {
		slog.Error("loading content store", "error", err)
		os.Exit(2)
	}

	engine := asr.NewHTTPEngine(cfg.WhisperServerURL, outboundPoolSize)

	warmupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	warmupErr := engine.WarmUp(warmupCtx)
	cancel()
	if warmupErr != nil {
		slog.Error("ASR warm-up failed", "error", warmupErr)
		os.Exit(3)
	}

	router := chat.Build(chat.Config{
		Provider:        cfg.ChatProvider,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
	})
	orchestrator := coach.New(router, store)
	synth := tts.NewHTTPSynthesizer(cfg.TTSServerURL, cfg.TTSVoice, outboundPoolSize)

	var traceStore *tracestore.Store
	if cfg.PostgresURL != "" {
		traceStore, err = tracestore.Open(cfg.PostgresURL)
		if err != nil {
			slog.Error("trace store open failed, continuing without tracing", "error", err)
			traceStore = nil
		} else {
			slog.Info("turn tracing enabled", "postgres", cfg.PostgresURL)
			defer traceStore.Close()
		}
	}

	partialOpts := asr.DecodeOptions{BeamSize: cfg.Tuning.ASRBeamSizePartial}
	finalOpts := asr.DecodeOptions{
		BeamSize:          cfg.Tuning.ASRBeamSizeFinal,
		NoSpeechThreshold: cfg.Tuning.ASRNoSpeechThreshold,
	}
	segCfg := audio.DefaultSegmenterConfig()
	segCfg.TailMs = cfg.Tuning.VADTailMs
	segCfg.Aggressiveness = cfg.Tuning.VADAggressiveness

	deps := session.Deps{
		Engine:               engine,
		Coach:                orchestrator,
		DefaultL1:            cfg.L1Language,
		DefaultLevel:         cfg.DefaultLevel,
		DefaultProvider:      cfg.ChatProvider,
		TraceStore:           traceStore,
		PartialDecodeOptions: &partialOpts,
		FinalDecodeOptions:   &finalOpts,
		SegmenterConfig:      &segCfg,
	}

	mux := newMux(serverState{
		store:    store,
		synth:    synth,
		sessDeps: deps,
		asrReady: true,
		ttsReady: true,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	shutdownDone := make(chan struct{})
	go func() {
		awaitShutdown(srv)
		close(shutdownDone)
	}()

	slog.Info("coachd starting", "addr", srv.Addr, "chat_provider", cfg.ChatProvider)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed to bind", "error", err)
		os.Exit(4)
	}
	<-shutdownDone

	slog.Info("coachd stopped")
}

// awaitShutdown blocks until SIGINT/SIGTERM, then gives in-flight HTTP
// requests up to 5s to finish before force-closing remaining connections.
// /ws/asr sessions are hijacked connections, which http.Server's Shutdown
// and Close neither wait for nor close; they end when the process exits.
func awaitShutdown(srv *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("graceful shutdown window elapsed, force-closing remaining sessions", "error", err)
		srv.Close()
	}
}
