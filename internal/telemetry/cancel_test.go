package telemetry

import (
	"syscall"
	"testing"
	"time"
)

func TestControllerGracePeriod(t *testing.T) {
	ctrl := newSignalController(50 * time.Millisecond)
	ctrl.Start()
	defer ctrl.Stop()

	ctrl.inject(syscall.SIGINT)

	// Nothing may arrive before the grace period elapses.
	select {
	case <-ctrl.Cancelled():
		t.Fatal("Cancellation delivered before grace period")
	case <-time.After(20 * time.Millisecond):
	}

	select {
	case cancelled := <-ctrl.Cancelled():
		if cancelled.Signal != syscall.SIGINT {
			t.Errorf("Expected SIGINT, got %v", cancelled.Signal)
		}
	case <-time.After(time.Second):
		t.Fatal("Cancellation never delivered")
	}
}

func TestControllerCollapsesRepeatedInterrupts(t *testing.T) {
	ctrl := newSignalController(10 * time.Millisecond)
	ctrl.Start()
	defer ctrl.Stop()

	ctrl.inject(syscall.SIGINT)
	ctrl.inject(syscall.SIGTERM)
	ctrl.inject(syscall.SIGINT)

	select {
	case <-ctrl.Cancelled():
	case <-time.After(time.Second):
		t.Fatal("No cancellation delivered")
	}

	// Any further interrupts must have collapsed into the first.
	select {
	case <-ctrl.Cancelled():
		t.Fatal("Controller delivered more than one cancellation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerStopIsIdempotent(t *testing.T) {
	ctrl := newSignalController(10 * time.Millisecond)
	ctrl.Start()

	ctrl.Stop()
	ctrl.Stop() // must not panic

	// After Stop, an interrupt during the grace window is abandoned.
	ctrl.inject(syscall.SIGINT)
	select {
	case <-ctrl.Cancelled():
		t.Fatal("Stopped controller still delivered a cancellation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelledErrorMessage(t *testing.T) {
	err := &CancelledError{Signal: syscall.SIGTERM}
	if err.Error() != "operation cancelled by signal terminated" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
	bare := &CancelledError{}
	if bare.Error() != "operation cancelled" {
		t.Errorf("Unexpected bare message: %q", bare.Error())
	}
}
