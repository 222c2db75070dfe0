package telemetry

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// DefaultGracePeriod is how long the controller waits after an interrupt
// before declaring the operation cancelled. The delay gives nested logic
// that installs its own interrupt handling first chance to react.
const DefaultGracePeriod = 10 * time.Millisecond

// CancelledError is the typed failure returned when an instrumented
// operation is interrupted. It is never conflated with an operation's
// own error.
type CancelledError struct {
	Signal os.Signal
}

func (e *CancelledError) Error() string {
	if e.Signal != nil {
		return fmt.Sprintf("operation cancelled by signal %s", e.Signal)
	}
	return "operation cancelled"
}

// signalController races OS termination signals against the wrapped
// operation. Start and Stop are symmetric: every Start has a matching
// Stop on all exit paths of the wrapper.
type signalController struct {
	grace   time.Duration
	signals []os.Signal
	sigCh   chan os.Signal
	done    chan *CancelledError
	once    sync.Once
	stop    sync.Once
	quit    chan struct{}
}

func newSignalController(grace time.Duration) *signalController {
	return &signalController{
		grace:   grace,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		sigCh:   make(chan os.Signal, 1),
		done:    make(chan *CancelledError, 1),
		quit:    make(chan struct{}),
	}
}

// Start registers the interrupt handler and begins watching. Multiple
// signals during the grace period collapse into one cancellation.
func (c *signalController) Start() {
	signal.Notify(c.sigCh, c.signals...)
	go c.watch()
}

func (c *signalController) watch() {
	select {
	case sig := <-c.sigCh:
		// Grace period: nested handlers get first chance to react.
		timer := time.NewTimer(c.grace)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.once.Do(func() { c.done <- &CancelledError{Signal: sig} })
		case <-c.quit:
		}
	case <-c.quit:
	}
}

// Cancelled yields at most one cancellation for the controller's life.
func (c *signalController) Cancelled() <-chan *CancelledError {
	return c.done
}

// Stop deregisters the interrupt handler. Safe to call more than once.
func (c *signalController) Stop() {
	c.stop.Do(func() {
		signal.Stop(c.sigCh)
		close(c.quit)
	})
}

// inject delivers a synthetic interrupt, bypassing the OS. Test hook.
func (c *signalController) inject(sig os.Signal) {
	select {
	case c.sigCh <- sig:
	default:
	}
}
