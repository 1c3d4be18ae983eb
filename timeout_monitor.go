package sdk

import (
	"context"
	"sync"
	"time"
)

// StreamTimeouts bounds a stream. Zero disables each timeout.
type StreamTimeouts struct {
	// FirstEvent is the longest wait from request start to the first frame.
	FirstEvent time.Duration
	// Idle is the longest gap between two reads that return data.
	Idle time.Duration
	// Total caps the whole stream.
	Total time.Duration
}

// HasAnyTimeout returns true if any timeout is configured.
func (t StreamTimeouts) HasAnyTimeout() bool {
	return t.FirstEvent > 0 || t.Idle > 0 || t.Total > 0
}

// streamTimeoutMonitor cancels the stream's context when a timeout elapses
// and remembers which one fired.
type streamTimeoutMonitor struct {
	timeouts StreamTimeouts
	activity chan struct{}
	first    chan struct{} // closed on the first frame
	done     chan struct{}
	cancel   context.CancelFunc
	ctx      context.Context

	timeoutErrMu sync.Mutex
	timeoutErr   error

	firstOnce sync.Once
	stopOnce  sync.Once
}

func newStreamTimeoutMonitor(ctx context.Context, timeouts StreamTimeouts, cancel context.CancelFunc) *streamTimeoutMonitor {
	return &streamTimeoutMonitor{
		ctx:      ctx,
		timeouts: timeouts,
		activity: make(chan struct{}, 1),
		first:    make(chan struct{}),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
}

// Start begins the timeout monitoring goroutine.
// Returns immediately if no timeouts are configured.
func (m *streamTimeoutMonitor) Start() {
	if !m.timeouts.HasAnyTimeout() {
		return
	}
	go m.run()
}

// Stop ends monitoring. Safe to call multiple times.
func (m *streamTimeoutMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *streamTimeoutMonitor) run() {
	var firstTimer *time.Timer
	var firstC <-chan time.Time
	if m.timeouts.FirstEvent > 0 {
		firstTimer = time.NewTimer(m.timeouts.FirstEvent)
		firstC = firstTimer.C
	}

	var idleTimer *time.Timer
	var idleC <-chan time.Time
	if m.timeouts.Idle > 0 {
		idleTimer = time.NewTimer(m.timeouts.Idle)
		idleC = idleTimer.C
	}

	var totalTimer *time.Timer
	var totalC <-chan time.Time
	if m.timeouts.Total > 0 {
		totalTimer = time.NewTimer(m.timeouts.Total)
		totalC = totalTimer.C
	}

	firstCh := m.first

	defer func() {
		for _, t := range []*time.Timer{firstTimer, idleTimer, totalTimer} {
			if t != nil {
				t.Stop()
			}
		}
	}()

	for {
		select {
		case <-m.done:
			return
		case <-m.ctx.Done():
			return
		case <-firstCh:
			firstCh = nil
			if firstTimer != nil {
				firstTimer.Stop()
				firstC = nil
			}
		case <-m.activity:
			if idleTimer != nil {
				if !idleTimer.Stop() {
					select {
					case <-idleTimer.C:
					default:
					}
				}
				idleTimer.Reset(m.timeouts.Idle)
				idleC = idleTimer.C
			}
		case <-firstC:
			m.fire(StreamTimeoutError{Kind: StreamTimeoutFirstEvent, Timeout: m.timeouts.FirstEvent})
			return
		case <-idleC:
			m.fire(StreamTimeoutError{Kind: StreamTimeoutIdle, Timeout: m.timeouts.Idle})
			return
		case <-totalC:
			m.fire(StreamTimeoutError{Kind: StreamTimeoutTotal, Timeout: m.timeouts.Total})
			return
		}
	}
}

func (m *streamTimeoutMonitor) fire(err error) {
	m.timeoutErrMu.Lock()
	if m.timeoutErr == nil {
		m.timeoutErr = err
	}
	m.timeoutErrMu.Unlock()
	m.cancel()
}

// SignalActivity resets the idle timer.
func (m *streamTimeoutMonitor) SignalActivity() {
	select {
	case m.activity <- struct{}{}:
	default:
	}
}

// SignalFirstEvent stops the first-event timer. Safe to call multiple times.
func (m *streamTimeoutMonitor) SignalFirstEvent() {
	m.firstOnce.Do(func() {
		close(m.first)
	})
}

// TimeoutErr returns the timeout error if one occurred.
func (m *streamTimeoutMonitor) TimeoutErr() error {
	m.timeoutErrMu.Lock()
	defer m.timeoutErrMu.Unlock()
	return m.timeoutErr
}
