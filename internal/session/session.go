package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/bgcoach/speech-coach/internal/asr"
	"github.com/bgcoach/speech-coach/internal/audio"
	"github.com/bgcoach/speech-coach/internal/coach"
	"github.com/bgcoach/speech-coach/internal/grammar"
	"github.com/bgcoach/speech-coach/internal/metrics"
	"github.com/bgcoach/speech-coach/internal/tracestore"
)

// errLoopExited is returned by each of the session's errgroup members on
// ordinary completion (socket closed, context canceled, ...). errgroup
// cancels the group's derived context as soon as any member returns a
// non-nil error, so the first loop to exit — for any reason — tears the
// rest down instead of leaving them blocked on each other.
var errLoopExited = errors.New("session: loop exited")

const (
	pingPeriod  = 20 * time.Second
	pongTimeout = 40 * time.Second
)

// Deps are the shared, process-lifetime collaborators a Session is wired
// to. Engine and Coach are safe for concurrent use across sessions; each
// Session owns its own Segmenter and Scheduler.
type Deps struct {
	Engine          asr.Engine
	Coach           *coach.Orchestrator
	DefaultL1       grammar.L1
	DefaultLevel    int
	DefaultProvider string
	// TraceStore is optional; nil disables turn tracing entirely.
	TraceStore *tracestore.Store
	// PartialDecodeOptions/FinalDecodeOptions override the ASR Scheduler's
	// built-in decode_partial/decode_final options (spec §6's
	// ASR_BEAM_SIZE_PARTIAL/ASR_BEAM_SIZE_FINAL/ASR_NO_SPEECH_THRESHOLD).
	// Nil leaves the Scheduler's asr.PartialOptions()/FinalOptions() defaults in place.
	PartialDecodeOptions *asr.DecodeOptions
	FinalDecodeOptions   *asr.DecodeOptions
	// SegmenterConfig overrides the VAD Segmenter's starting configuration
	// (spec §6's ASR_VAD_TAIL_MS/ASR_VAD_AGGRESSIVENESS). Nil leaves
	// audio.DefaultSegmenterConfig() in place; either way a client's later
	// "configure" control frame can still adjust it per session.
	SegmenterConfig *audio.SegmenterConfig
}

// Session owns one WebSocket connection's full turn pipeline: Frame Ring,
// VAD Segmenter, ASR Scheduler, Grammar Analyzer, and Coach Orchestrator,
// per spec §4.9.
type Session struct {
	id   string
	conn *websocket.Conn
	deps Deps

	ring      *audio.FrameRing
	seg       *audio.Segmenter
	sched     *asr.Scheduler
	out       *outbox
	prefs     coach.Prefs
	controlCh chan clientMessage
	done      <-chan struct{}
	writeMu   chan struct{} // 1-buffered mutex usable from multiple goroutines
	turnSeq   uint64        // atomic
	utterance []int16
	ctx       context.Context
}

// New creates a Session bound to an upgraded WebSocket connection.
func New(conn *websocket.Conn, deps Deps) *Session {
	segCfg := audio.DefaultSegmenterConfig()
	if deps.SegmenterConfig != nil {
		segCfg = *deps.SegmenterConfig
	}
	s := &Session{
		id:        uuid.NewString(),
		conn:      conn,
		deps:      deps,
		ring:      audio.NewFrameRing(),
		seg:       audio.NewSegmenter(segCfg),
		out:       newOutbox(),
		controlCh: make(chan clientMessage, 16),
		writeMu:   make(chan struct{}, 1),
		prefs: coach.Prefs{
			L1:       deps.DefaultL1,
			Level:    deps.DefaultLevel,
			Provider: deps.DefaultProvider,
		},
	}
	s.writeMu <- struct{}{}
	s.sched = asr.NewScheduler(deps.Engine, asr.Callbacks{
		OnPartial: s.onPartial,
		OnFinal:   s.onFinal,
		OnError:   s.onASRError,
	})
	if deps.PartialDecodeOptions != nil || deps.FinalDecodeOptions != nil {
		partial, final := asr.PartialOptions(), asr.FinalOptions()
		if deps.PartialDecodeOptions != nil {
			partial = *deps.PartialDecodeOptions
		}
		if deps.FinalDecodeOptions != nil {
			final = *deps.FinalDecodeOptions
		}
		s.sched.Configure(partial, final)
	}
	return s
}

// Run drives the session until the socket closes or a fatal error occurs.
// It blocks until teardown is complete. The reader, writer, VAD/ASR
// pipeline, and heartbeat ticker run as an errgroup.Group: whichever
// exits first cancels the group's context, which every other loop
// selects on to unwind (spec §4.9's four concurrent loops per session).
func (s *Session) Run(ctx context.Context) {
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	defer s.conn.Close()

	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))

	g, egCtx := errgroup.WithContext(ctx)
	s.ctx = egCtx
	s.done = egCtx.Done()

	g.Go(func() error { s.readLoop(); return errLoopExited })
	g.Go(func() error { s.writeLoop(); return errLoopExited })
	g.Go(func() error { s.vadLoop(egCtx); return errLoopExited })
	g.Go(func() error { s.heartbeatLoop(); return errLoopExited })

	// Warm-up is a process-start concern (main.go decodes a silence clip
	// once before the server starts accepting connections); a session only
	// needs to announce readiness, not re-warm the engine itself.
	s.out.Enqueue(readyEvent())

	go func() {
		<-egCtx.Done()
		s.out.Close()
	}()

	g.Wait()
}

// readLoop is the socket's sole reader: it never blocks on downstream
// processing, only on the network (spec §4.1/§5 — Frame Ring push never
// blocks the socket reader).
func (s *Session) readLoop() {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			frames, err := audio.SplitFrames(data)
			if err != nil {
				s.sendError("audio_format", err.Error(), true)
				return
			}
			for _, f := range frames {
				s.ring.Push(f)
			}
		case websocket.TextMessage:
			msg, err := parseClientMessage(data)
			if err != nil {
				s.sendError("protocol", "malformed control frame", false)
				continue
			}
			select {
			case s.controlCh <- msg:
			case <-s.done:
				return
			}
		}
	}
}

func (s *Session) heartbeatLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeRaw(websocket.PingMessage, nil, 5*time.Second)
		}
	}
}

func (s *Session) writeLoop() {
	for {
		data, ok := s.out.Dequeue(s.done)
		if !ok {
			return
		}
		if err := s.writeRaw(websocket.TextMessage, data, 10*time.Second); err != nil {
			return
		}
	}
}

func (s *Session) writeRaw(msgType int, data []byte, timeout time.Duration) error {
	select {
	case <-s.writeMu:
	case <-s.done:
		return context.Canceled
	}
	defer func() { s.writeMu <- struct{}{} }()

	s.conn.SetWriteDeadline(time.Now().Add(timeout))
	if msgType == websocket.PingMessage {
		return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
	}
	return s.conn.WriteMessage(msgType, data)
}

func (s *Session) nextTurnSeq() uint64 {
	return atomic.AddUint64(&s.turnSeq, 1)
}

func (s *Session) sendError(kind, message string, fatal bool) {
	if !s.out.Enqueue(errorEvent(kind, message, fatal)) {
		s.closeBackpressure()
	}
}

func (s *Session) closeBackpressure() {
	metrics.BackpressureCloses.Inc()
	data, _ := json.Marshal(errorEvent("backpressure", "client too slow", true))
	s.writeRaw(websocket.TextMessage, data, 2*time.Second)
	s.conn.Close()
}

func (s *Session) onPartial(turnSeq uint64, text string) {
	s.out.Enqueue(partialEvent(turnSeq, text))
}

func (s *Session) onASRError(turnSeq uint64, kind asr.ErrorKind, err error) {
	fatal := kind == asr.Fatal
	slog.Warn("asr error", "session_id", s.id, "turn_seq", turnSeq, "kind", kind.String(), "error", err)
	if !s.out.Enqueue(errorEvent("asr_"+kind.String(), err.Error(), fatal)) {
		s.closeBackpressure()
		return
	}
	if fatal {
		s.conn.Close()
	}
}
