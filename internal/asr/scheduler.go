package asr

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/bgcoach/speech-coach/internal/metrics"
)

// Callbacks receives the Scheduler's ordered per-turn output. Exactly one
// of OnFinal/OnError(Fatal) fires per turn that reaches decode_final;
// OnPartial may fire zero or more times strictly before it, per spec §4.4.
type Callbacks struct {
	OnPartial func(turnSeq uint64, text string)
	OnFinal   func(turnSeq uint64, res FinalResult)
	OnError   func(turnSeq uint64, kind ErrorKind, err error)
}

type turnState struct {
	cancelled     bool
	finalized     bool
	cancelPartial context.CancelFunc
}

// Scheduler drives an Engine per spec §4.4's ASR Scheduler: bounded to one
// in-flight decode at a time, partial ticks coalesced while a decode is
// running, and turn cancellation that discards rather than blocks.
type Scheduler struct {
	engine Engine
	cb     Callbacks
	sem    *semaphore.Weighted

	mu          sync.Mutex
	turns       map[uint64]*turnState
	partialOpts DecodeOptions
	finalOpts   DecodeOptions
}

// NewScheduler creates a Scheduler bound to one session's Engine calls,
// using the spec §6 defaults (PartialOptions/FinalOptions) until
// Configure overrides them.
func NewScheduler(engine Engine, cb Callbacks) *Scheduler {
	return &Scheduler{
		engine:      engine,
		cb:          cb,
		sem:         semaphore.NewWeighted(1),
		turns:       make(map[uint64]*turnState),
		partialOpts: PartialOptions(),
		finalOpts:   FinalOptions(),
	}
}

// Configure overrides the DecodeOptions passed to decode_partial and
// decode_final, letting deployment env vars (spec §6:
// ASR_BEAM_SIZE_PARTIAL, ASR_BEAM_SIZE_FINAL, ASR_NO_SPEECH_THRESHOLD)
// take effect without every call site threading options through.
func (s *Scheduler) Configure(partialOpts, finalOpts DecodeOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partialOpts = partialOpts
	s.finalOpts = finalOpts
}

// BeginTurn registers a new turn_seq at SpeechStart, clearing scheduler
// bookkeeping left over from prior (now-resolved) turns.
func (s *Scheduler) BeginTurn(turnSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = map[uint64]*turnState{turnSeq: {}}
}

// Cancel marks turnSeq as cancelled: pending or in-flight results for it
// are discarded rather than delivered. Used on a client "stop" (spec §4.9).
func (s *Scheduler) Cancel(turnSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(turnSeq)
	st.cancelled = true
	if st.cancelPartial != nil {
		st.cancelPartial()
	}
}

func (s *Scheduler) stateLocked(turnSeq uint64) *turnState {
	st, ok := s.turns[turnSeq]
	if !ok {
		st = &turnState{}
		s.turns[turnSeq] = st
	}
	return st
}

// RequestPartial attempts a low-beam decode of the audio accumulated so
// far. If a decode is already in flight the tick is dropped (coalesced)
// rather than queued, per spec §4.4.
func (s *Scheduler) RequestPartial(ctx context.Context, turnSeq uint64, samples []int16) {
	if !s.sem.TryAcquire(1) {
		metrics.PartialsCoalesced.Inc()
		return
	}

	pctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	st := s.stateLocked(turnSeq)
	if st.cancelled || st.finalized {
		s.mu.Unlock()
		cancel()
		s.sem.Release(1)
		return
	}
	st.cancelPartial = cancel
	opts := s.partialOpts
	s.mu.Unlock()

	go func() {
		defer s.sem.Release(1)
		defer cancel()

		text, err := s.engine.DecodePartial(pctx, samples, opts)

		s.mu.Lock()
		st := s.stateLocked(turnSeq)
		deliver := !st.cancelled && !st.finalized
		st.cancelPartial = nil
		s.mu.Unlock()

		if !deliver {
			return
		}
		if err != nil {
			if AsFatal(err) && s.cb.OnError != nil {
				s.cb.OnError(turnSeq, Fatal, err)
			}
			return
		}
		if text != "" && s.cb.OnPartial != nil {
			s.cb.OnPartial(turnSeq, text)
		}
	}()
}

// RequestFinal cancels any in-flight partial for turnSeq (best-effort),
// then runs the authoritative decode_final. It blocks the calling
// goroutine until the decode completes or ctx is done.
func (s *Scheduler) RequestFinal(ctx context.Context, turnSeq uint64, samples []int16) {
	s.mu.Lock()
	st := s.stateLocked(turnSeq)
	if st.cancelPartial != nil {
		st.cancelPartial()
	}
	opts := s.finalOpts
	s.mu.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	res, err := s.engine.DecodeFinal(ctx, samples, opts)

	s.mu.Lock()
	st = s.stateLocked(turnSeq)
	cancelled := st.cancelled
	st.finalized = true
	s.mu.Unlock()

	if cancelled {
		return
	}
	if err != nil {
		kind := Transient
		if AsFatal(err) {
			kind = Fatal
		}
		if s.cb.OnError != nil {
			s.cb.OnError(turnSeq, kind, err)
		}
		if kind == Fatal {
			return
		}
		res = FinalResult{}
	}
	if s.cb.OnFinal != nil {
		s.cb.OnFinal(turnSeq, res)
	}
}
