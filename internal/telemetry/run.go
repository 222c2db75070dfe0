package telemetry

import (
	"context"
	"time"
)

// Run executes op under lifecycle instrumentation for the given subject.
//
// Unless disabled, exactly one "<subject> started" event is dispatched
// before op runs and exactly one terminal event (completed, errored or
// cancelled) after it settles. The terminal event merges the starting
// properties, any properties op's call tree attached via SetProperty,
// and the measured duration, in that order, so computed fields always
// win. op's result or error is passed through unchanged; an interrupt
// surfaces as *CancelledError after the grace period.
//
// disabled suppresses event emission only. Cancellation and error
// propagation behave identically either way.
func Run[T any](ctx context.Context, rep *Reporter, subject string, props Properties, disabled bool, op func(context.Context) (T, error)) (T, error) {
	return runWith(ctx, rep, subject, props, disabled, newSignalController(DefaultGracePeriod), op)
}

func runWith[T any](ctx context.Context, rep *Reporter, subject string, props Properties, disabled bool, ctrl *signalController, op func(context.Context) (T, error)) (T, error) {
	start := time.Now()

	if !disabled {
		rep.Dispatch(EventName(subject, PhaseStarted), props)
	}

	ctx, bag := withInvocation(ctx)

	ctrl.Start()
	defer ctrl.Stop()

	type outcome struct {
		value T
		err   error
	}
	// Buffered so a late resolution after cancellation is discarded
	// without leaking the operation goroutine.
	settled := make(chan outcome, 1)
	go func() {
		value, err := op(ctx)
		settled <- outcome{value: value, err: err}
	}()

	terminal := func(phase Phase, extra Properties) {
		if disabled {
			return
		}
		merged := mergeProperties(props, bag.snapshot(), durationProperties(time.Since(start).Milliseconds()), extra)
		rep.Dispatch(EventName(subject, phase), merged)
	}

	select {
	case out := <-settled:
		if out.err != nil {
			terminal(PhaseErrored, Properties{"error": errorProperties(out.err)})
			return out.value, out.err
		}
		terminal(PhaseCompleted, nil)
		return out.value, nil

	case cancelled := <-ctrl.Cancelled():
		// The operation is cancelled from here on; if it resolves
		// later, the buffered channel swallows the result.
		terminal(PhaseCancelled, nil)
		var zero T
		return zero, cancelled
	}
}
