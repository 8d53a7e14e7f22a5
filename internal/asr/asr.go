// Package asr wraps the speech decoder behind a small Engine contract and
// drives it per-session with the "at-most-one decode in flight" scheduling
// rules described for the ASR Scheduler.
package asr

import (
	"context"
	"errors"
)

// ErrorKind is the closed set of ASR failure kinds distinguished by the
// scheduler's recovery policy.
type ErrorKind int

const (
	// Transient covers I/O or resource failures that are worth a single
	// retry with a reduced beam before giving up on the turn.
	Transient ErrorKind = iota
	// Fatal means the engine itself is unusable; the scheduler surfaces
	// this to the session as a session-fatal error.
	Fatal
)

func (k ErrorKind) String() string {
	if k == Fatal {
		return "fatal"
	}
	return "transient"
}

// Error wraps an engine failure with its recovery kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func transientErr(err error) error { return &Error{Kind: Transient, Err: err} }
func fatalErr(err error) error     { return &Error{Kind: Fatal, Err: err} }

// AsFatal reports whether err is an ASR Fatal error.
func AsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == Fatal
}

// DecodeOptions configures a single decode call. Defaults match spec §6.
type DecodeOptions struct {
	BeamSize          int
	Temperature       float64
	NoSpeechThreshold float64
}

// PartialOptions returns the defaults for decode_partial: beam_size_partial=1.
func PartialOptions() DecodeOptions {
	return DecodeOptions{BeamSize: 1}
}

// FinalOptions returns the defaults for decode_final: beam_size_final=3,
// temperature=0, no_speech_threshold=0.6.
func FinalOptions() DecodeOptions {
	return DecodeOptions{BeamSize: 3, Temperature: 0, NoSpeechThreshold: 0.6}
}

// FinalResult is the output of decode_final.
type FinalResult struct {
	Text        string
	DurationMs  float64
	NoSpeechProb float64
}

// Engine is the ASR Engine Adapter contract (spec §4.3). Implementations
// must treat an empty transcript as a successful, non-error result.
type Engine interface {
	// WarmUp runs a throwaway decode so the first user turn isn't penalized
	// by lazy model init. Must succeed before the process reports ready.
	WarmUp(ctx context.Context) error
	// DecodePartial performs a fast, low-beam decode of the accumulated
	// audio prefix. Called at most once at a time per session.
	DecodePartial(ctx context.Context, samples []int16, opts DecodeOptions) (string, error)
	// DecodeFinal performs the single authoritative decode at utterance end.
	DecodeFinal(ctx context.Context, samples []int16, opts DecodeOptions) (FinalResult, error)
}
