package audio

import "math"

// FrameDurationMs is the duration in milliseconds of one PCM frame (see
// FrameSamples at SampleRate).
const FrameDurationMs = 20

// SegmenterState is the VAD Segmenter's two-state machine (spec.md §4.2).
type SegmenterState int

const (
	Idle SegmenterState = iota
	Speaking
)

func (s SegmenterState) String() string {
	if s == Speaking {
		return "speaking"
	}
	return "idle"
}

// SegmenterConfig holds the tunables accepted on session configure.
type SegmenterConfig struct {
	TailMs            int // vad_tail_ms, clamped to [150, 600]
	Aggressiveness    int // vad_aggressiveness, {0,1,2,3}
	MinUttMs          int
	MaxUttMs          int
	PartialIntervalMs int
}

// DefaultSegmenterConfig matches the defaults named in spec.md §4.2/§6.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		TailMs:            250,
		Aggressiveness:    2,
		MinUttMs:          300,
		MaxUttMs:          30000,
		PartialIntervalMs: 500,
	}
}

// aggressivenessThresholdDB maps vad_aggressiveness to the RMS energy
// threshold (dBFS) above which a frame is classified as speech. Higher
// aggressiveness demands louder, cleaner speech before a frame stops
// being treated as noise.
var aggressivenessThresholdDB = [4]float64{-45, -38, -30, -24}

func speechThresholdDB(aggressiveness int) float64 {
	if aggressiveness < 0 {
		aggressiveness = 0
	}
	if aggressiveness > 3 {
		aggressiveness = 3
	}
	return aggressivenessThresholdDB[aggressiveness]
}

// EventKind discriminates the Segmenter's emitted events.
type EventKind int

const (
	EventSpeechStart EventKind = iota
	EventPartial
	EventUtterance
)

// Event is one output of the Segmenter's frame-by-frame processing.
type Event struct {
	Kind      EventKind
	TurnSeq   uint64
	StartMs   int64
	EndMs     int64
	Audio     []int16 // populated only on EventUtterance, nil if below min_utt_ms
	Truncated bool     // true if force-closed at max_utt_ms
}

// Segmenter implements the VAD frame-accounting state machine described in
// spec.md §4.2: Idle/Speaking with a silence tail timer, a periodic
// partial tick while Speaking, and a max-duration force-close with a
// truncation flag. It operates purely on frame counts, so it has no
// wall-clock dependency and is deterministic given a frame stream.
type Segmenter struct {
	cfg       SegmenterConfig
	threshold float64

	state         SegmenterState
	turnSeq       uint64
	startFrame    int64
	frameCount    int64 // frames observed since Speaking began
	tailFrames    int64 // consecutive non-speech frames since last speech frame
	sinceLastTick int64

	buffer []int16
}

// NewSegmenter creates a Segmenter with the given config, normalizing
// TailMs into the spec's [150, 600] range.
func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	cfg.TailMs = clampTailMs(cfg.TailMs)
	return &Segmenter{
		cfg:       cfg,
		threshold: speechThresholdDB(cfg.Aggressiveness),
	}
}

func clampTailMs(ms int) int {
	if ms < 150 {
		return 150
	}
	if ms > 600 {
		return 600
	}
	return ms
}

// Reconfigure applies new tunables. Per spec.md §9 Open Questions, this
// must only take effect at an utterance boundary, never mid-utterance;
// callers defer calling this until the Segmenter is Idle.
func (s *Segmenter) Reconfigure(cfg SegmenterConfig) {
	cfg.TailMs = clampTailMs(cfg.TailMs)
	s.cfg = cfg
	s.threshold = speechThresholdDB(cfg.Aggressiveness)
}

// State returns the current Idle/Speaking state.
func (s *Segmenter) State() SegmenterState {
	return s.state
}

// TurnSeq returns the turn_seq of the current or most recently closed
// utterance, used by callers that need to cancel "the turn in progress"
// without threading their own copy of the sequence number.
func (s *Segmenter) TurnSeq() uint64 {
	return s.turnSeq
}

// Feed classifies one 20 ms frame and advances the state machine,
// returning zero or more events. atFrame is the absolute frame index
// since session start, used to compute start_ms/end_ms. nextTurnSeq is
// called exactly once, on SpeechStart, to mint the turn's sequence
// number from the session's monotonic counter.
func (s *Segmenter) Feed(frame []int16, atFrame int64, nextTurnSeq func() uint64) []Event {
	speech := s.classify(frame)

	switch s.state {
	case Idle:
		if !speech {
			return nil
		}
		s.state = Speaking
		s.turnSeq = nextTurnSeq()
		s.startFrame = atFrame
		s.frameCount = 0
		s.tailFrames = 0
		s.sinceLastTick = 0
		s.buffer = append(s.buffer[:0], frame...)
		return []Event{{Kind: EventSpeechStart, TurnSeq: s.turnSeq, StartMs: atFrame * FrameDurationMs}}

	case Speaking:
		s.buffer = append(s.buffer, frame...)
		s.frameCount++
		s.sinceLastTick++

		if speech {
			s.tailFrames = 0
		} else {
			s.tailFrames++
		}

		tailFramesLimit := int64(s.cfg.TailMs) / FrameDurationMs
		durationMs := s.frameCount * FrameDurationMs

		if s.tailFrames >= tailFramesLimit {
			return []Event{s.closeUtterance(atFrame, false)}
		}

		if durationMs >= int64(s.cfg.MaxUttMs) {
			return []Event{s.closeUtterance(atFrame, true)}
		}

		partialFrames := int64(s.cfg.PartialIntervalMs) / FrameDurationMs
		if partialFrames > 0 && s.sinceLastTick >= partialFrames {
			s.sinceLastTick = 0
			return []Event{{Kind: EventPartial, TurnSeq: s.turnSeq, EndMs: atFrame * FrameDurationMs}}
		}
	}
	return nil
}

// closeUtterance finalizes the current utterance. Utterances shorter than
// min_utt_ms produce an Utterance event with Audio left nil, per the
// invariant in spec.md §8 that only utterances in
// [min_utt_ms, max_utt_ms] carry a transcript-bound final.
func (s *Segmenter) closeUtterance(atFrame int64, truncated bool) Event {
	startMs := s.startFrame * FrameDurationMs
	endMs := atFrame * FrameDurationMs
	durationMs := endMs - startMs
	audio := s.buffer
	turnSeq := s.turnSeq

	s.state = Idle
	s.buffer = nil
	s.frameCount = 0
	s.tailFrames = 0

	if durationMs < int64(s.cfg.MinUttMs) {
		return Event{Kind: EventUtterance, TurnSeq: turnSeq, StartMs: startMs, EndMs: endMs}
	}

	return Event{
		Kind:      EventUtterance,
		TurnSeq:   turnSeq,
		StartMs:   startMs,
		EndMs:     endMs,
		Audio:     audio,
		Truncated: truncated,
	}
}

// Flush force-closes any in-progress utterance; the session calls it when
// the client sends "stop".
func (s *Segmenter) Flush(atFrame int64) *Event {
	if s.state != Speaking {
		return nil
	}
	ev := s.closeUtterance(atFrame, false)
	return &ev
}

func (s *Segmenter) classify(frame []int16) bool {
	return computeEnergyDB(ToFloat32(frame)) >= s.threshold
}

func computeEnergyDB(samples []float32) float64 {
	if len(samples) == 0 {
		return -100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1e-10 {
		return -100
	}
	return 20 * math.Log10(rms)
}
