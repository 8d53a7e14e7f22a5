package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/bgcoach/speech-coach/internal/asr"
	"github.com/bgcoach/speech-coach/internal/audio"
	"github.com/bgcoach/speech-coach/internal/grammar"
	"github.com/bgcoach/speech-coach/internal/metrics"
	"github.com/bgcoach/speech-coach/internal/tracestore"
)

// vadLoop is the Frame Ring's sole consumer: it feeds frames through the
// VAD Segmenter, drives the ASR Scheduler, and — synchronously, on this
// same goroutine — runs decode_final, grammar analysis, and the Coach
// Orchestrator before returning to pop the next frame. Running finalize
// inline (rather than fanning it out) is what gives the per-turn ordering
// guarantee in spec §5: turn N's events are fully emitted before turn
// N+1's, since this goroutine cannot advance past a SpeechStart for N+1
// until N's Utterance branch returns.
func (s *Session) vadLoop(ctx context.Context) {
	frameCh := make(chan []int16)
	go s.pumpRing(frameCh)

	var frameIdx int64
	var pendingCfg *audio.SegmenterConfig

	for {
		select {
		case <-s.done:
			return

		case msg, ok := <-s.controlCh:
			if !ok {
				return
			}
			s.handleControl(ctx, msg, &pendingCfg, frameIdx)

		case frame, ok := <-frameCh:
			if !ok {
				return
			}
			events := s.seg.Feed(frame, frameIdx, s.nextTurnSeq)
			frameIdx++
			s.processSegmenterEvents(ctx, frame, events)

			if s.seg.State() == audio.Idle && pendingCfg != nil {
				s.seg.Reconfigure(*pendingCfg)
				pendingCfg = nil
			}
		}
	}
}

func (s *Session) pumpRing(out chan<- []int16) {
	defer close(out)
	var lastDrops uint64
	for {
		frame, ok := s.ring.Pop(s.done)
		if !ok {
			return
		}
		if drops := s.ring.Drops(); drops != lastDrops {
			metrics.FramesDropped.Add(float64(drops - lastDrops))
			lastDrops = drops
		}
		select {
		case out <- frame:
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleControl(ctx context.Context, msg clientMessage, pendingCfg **audio.SegmenterConfig, frameIdx int64) {
	switch msg.Type {
	case "stop":
		turnSeq := s.seg.TurnSeq()
		s.sched.Cancel(turnSeq)
		if s.seg.State() == audio.Speaking {
			if ev := s.seg.Flush(frameIdx); ev != nil {
				s.processSegmenterEvents(ctx, nil, []audio.Event{*ev})
			}
		}
	case "configure":
		base := audio.DefaultSegmenterConfig()
		if s.deps.SegmenterConfig != nil {
			base = *s.deps.SegmenterConfig
		}
		next := mergeConfig(base, msg)
		if s.seg.State() == audio.Idle {
			s.seg.Reconfigure(next)
		} else {
			*pendingCfg = &next
		}
	case "start", "ping":
		// No server reply is defined for these in spec §4.9 beyond the
		// session already being live.
	default:
		s.sendError("protocol", "unknown control type", false)
	}
}

func mergeConfig(base audio.SegmenterConfig, msg clientMessage) audio.SegmenterConfig {
	if msg.VADTailMs != nil {
		base.TailMs = *msg.VADTailMs
	}
	if msg.VADAggressiveness != nil {
		base.Aggressiveness = *msg.VADAggressiveness
	}
	if msg.MinUttMs != nil {
		base.MinUttMs = *msg.MinUttMs
	}
	if msg.MaxUttMs != nil {
		base.MaxUttMs = *msg.MaxUttMs
	}
	if msg.PartialIntervalMs != nil {
		base.PartialIntervalMs = *msg.PartialIntervalMs
	}
	return base
}

// processSegmenterEvents applies the side effects of zero or more
// Segmenter events against the current frame, maintaining the session's
// running utterance buffer used for partial-decode snapshots (the
// Segmenter only exposes full audio at Utterance close).
func (s *Session) processSegmenterEvents(ctx context.Context, frame []int16, events []audio.Event) {
	for _, ev := range events {
		if ev.Kind == audio.EventSpeechStart {
			s.utterance = s.utterance[:0]
		}
	}
	if frame != nil && s.seg.State() == audio.Speaking {
		s.utterance = append(s.utterance, frame...)
	}
	for _, ev := range events {
		s.handleSegmenterEvent(ctx, ev)
	}
}

func (s *Session) handleSegmenterEvent(ctx context.Context, ev audio.Event) {
	switch ev.Kind {
	case audio.EventSpeechStart:
		s.sched.BeginTurn(ev.TurnSeq)
		s.out.Enqueue(vadEvent(ev.TurnSeq, true, false))

	case audio.EventPartial:
		if len(s.utterance) == 0 {
			return
		}
		snapshot := append([]int16(nil), s.utterance...)
		s.sched.RequestPartial(ctx, ev.TurnSeq, snapshot)

	case audio.EventUtterance:
		if ev.Truncated {
			metrics.UtterancesTruncated.Inc()
		}
		s.out.Enqueue(vadEvent(ev.TurnSeq, false, ev.Truncated))
		if ev.Audio != nil {
			metrics.UtterancesSegmented.Inc()
			s.finalizeTurn(ctx, ev.TurnSeq, ev.Audio)
		}
		s.utterance = nil
	}
}

// finalizeTurn runs decode_final (and, via onFinal, grammar analysis and
// the Coach Orchestrator) on this goroutine so that turn N's events are
// fully enqueued before frame processing resumes toward turn N+1.
func (s *Session) finalizeTurn(ctx context.Context, turnSeq uint64, audioSamples []int16) {
	start := time.Now()
	s.sched.RequestFinal(ctx, turnSeq, audioSamples)
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	slog.Info("turn committed", "session_id", s.id, "turn_seq", turnSeq)
}

// onFinal is the Scheduler's OnFinal callback: it runs grammar analysis
// and the Coach Orchestrator and enqueues the Final and Coach events,
// satisfying the "exactly one Coach per committed turn" rule (spec §4.7).
func (s *Session) onFinal(turnSeq uint64, res asr.FinalResult) {
	metrics.TurnsTotal.Inc()
	if !s.out.Enqueue(finalEvent(turnSeq, res.Text, res.DurationMs)) {
		s.closeBackpressure()
		return
	}

	corrections := grammar.Analyze(res.Text, s.prefs.L1)
	for _, c := range corrections {
		metrics.CorrectionsEmitted.WithLabelValues(c.Category, c.Severity.String()).Inc()
	}

	coachRes := s.deps.Coach.Compose(s.ctx, res.Text, corrections, s.prefs)
	if !s.out.Enqueue(coachEvent(turnSeq, coachRes)) {
		s.closeBackpressure()
	}

	if s.deps.TraceStore != nil {
		s.deps.TraceStore.RecordTurn(tracestore.TurnRecord{
			SessionID:       s.id,
			TurnSeq:         turnSeq,
			Transcript:      res.Text,
			ReplyBG:         coachRes.ReplyBG,
			CorrectionCount: len(corrections),
			DurationMs:      res.DurationMs,
			Provider:        s.prefs.Provider,
			StartedAt:       time.Now(),
		})
	}
}
