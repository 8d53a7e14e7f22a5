package asr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errExample = errors.New("engine unavailable")

type fakeEngine struct {
	mu           sync.Mutex
	partialDelay time.Duration
	partialText  string
	partialCalls int
	finalDelay   time.Duration
	finalRes     FinalResult
	finalErr     error
	finalCalls   int
}

func (f *fakeEngine) WarmUp(ctx context.Context) error { return nil }

func (f *fakeEngine) DecodePartial(ctx context.Context, samples []int16, opts DecodeOptions) (string, error) {
	f.mu.Lock()
	f.partialCalls++
	f.mu.Unlock()
	select {
	case <-time.After(f.partialDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return f.partialText, nil
}

func (f *fakeEngine) DecodeFinal(ctx context.Context, samples []int16, opts DecodeOptions) (FinalResult, error) {
	f.mu.Lock()
	f.finalCalls++
	f.mu.Unlock()
	select {
	case <-time.After(f.finalDelay):
	case <-ctx.Done():
		return FinalResult{}, ctx.Err()
	}
	return f.finalRes, f.finalErr
}

func TestSchedulerCoalescesPartialsWhileOneInFlight(t *testing.T) {
	eng := &fakeEngine{partialDelay: 50 * time.Millisecond, partialText: "ima"}
	var partials int
	var mu sync.Mutex
	sched := NewScheduler(eng, Callbacks{
		OnPartial: func(turnSeq uint64, text string) {
			mu.Lock()
			partials++
			mu.Unlock()
		},
	})

	sched.BeginTurn(1)
	ctx := context.Background()
	sched.RequestPartial(ctx, 1, []int16{1})
	sched.RequestPartial(ctx, 1, []int16{1}) // should coalesce, engine busy
	time.Sleep(120 * time.Millisecond)

	eng.mu.Lock()
	calls := eng.partialCalls
	eng.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 engine call (second coalesced), got %d", calls)
	}
	mu.Lock()
	got := partials
	mu.Unlock()
	if got != 1 {
		t.Errorf("expected 1 delivered partial, got %d", got)
	}
}

func TestSchedulerFinalDiscardsLatePartial(t *testing.T) {
	eng := &fakeEngine{partialDelay: 100 * time.Millisecond, partialText: "late", finalRes: FinalResult{Text: "final text"}}
	var events []string
	var mu sync.Mutex
	sched := NewScheduler(eng, Callbacks{
		OnPartial: func(turnSeq uint64, text string) {
			mu.Lock()
			events = append(events, "partial:"+text)
			mu.Unlock()
		},
		OnFinal: func(turnSeq uint64, res FinalResult) {
			mu.Lock()
			events = append(events, "final:"+res.Text)
			mu.Unlock()
		},
	})

	sched.BeginTurn(1)
	ctx := context.Background()
	sched.RequestPartial(ctx, 1, []int16{1})
	time.Sleep(10 * time.Millisecond) // let the partial start and acquire the semaphore
	sched.RequestFinal(ctx, 1, []int16{1})
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != "final:final text" {
		t.Errorf("expected only the final to be delivered, got %v", events)
	}
}

func TestSchedulerCancelDiscardsFinal(t *testing.T) {
	eng := &fakeEngine{finalDelay: 30 * time.Millisecond, finalRes: FinalResult{Text: "should not appear"}}
	called := false
	sched := NewScheduler(eng, Callbacks{
		OnFinal: func(turnSeq uint64, res FinalResult) { called = true },
	})

	sched.BeginTurn(1)
	ctx := context.Background()
	go sched.RequestFinal(ctx, 1, []int16{1})
	time.Sleep(5 * time.Millisecond)
	sched.Cancel(1)
	time.Sleep(60 * time.Millisecond)

	if called {
		t.Error("expected cancelled turn's final to be discarded")
	}
}

func TestSchedulerDegradesTransientFinalToEmpty(t *testing.T) {
	eng := &fakeEngine{finalErr: transientErr(errExample)}
	var res FinalResult
	var gotFinal bool
	sched := NewScheduler(eng, Callbacks{
		OnFinal: func(turnSeq uint64, r FinalResult) { res = r; gotFinal = true },
	})

	sched.BeginTurn(1)
	sched.RequestFinal(context.Background(), 1, []int16{1})

	if !gotFinal {
		t.Fatal("expected a degraded empty final to still be delivered")
	}
	if res.Text != "" {
		t.Errorf("expected empty text on degraded final, got %q", res.Text)
	}
}
