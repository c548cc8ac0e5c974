package logger

import (
	"sync"
	"time"
)

// Clock abstracts the monotonic time source used for throttling windows.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now, which carries a monotonic reading.
func SystemClock() Clock { return systemClock{} }

// ErrorLogger logs errors keyed by an error code and suppresses repeats of the
// same code beyond MaxPerWindow until the window elapses.
type ErrorLogger struct {
	log          *Logger
	clock        Clock
	window       time.Duration
	maxPerWindow int

	mu          sync.Mutex
	counts      map[string]int
	suppressed  map[string]int
	windowStart time.Time
}

func NewErrorLogger(log *Logger, clock Clock, window time.Duration, maxPerWindow int) *ErrorLogger {
	if clock == nil {
		clock = SystemClock()
	}
	if window <= 0 {
		window = time.Minute
	}
	if maxPerWindow <= 0 {
		maxPerWindow = 10
	}
	return &ErrorLogger{
		log:          log,
		clock:        clock,
		window:       window,
		maxPerWindow: maxPerWindow,
		counts:       make(map[string]int),
		suppressed:   make(map[string]int),
		windowStart:  clock.Now(),
	}
}

// Log records err under code. It reports whether the error was written.
func (e *ErrorLogger) Log(code string, msg string, err error) bool {
	e.mu.Lock()
	e.maybeReset()
	e.counts[code]++
	if e.counts[code] > e.maxPerWindow {
		e.suppressed[code]++
		e.mu.Unlock()
		return false
	}
	e.mu.Unlock()

	_ = e.log.Error("["+code+"] "+msg, err)
	return true
}

// Count returns how many times code was seen in the current window.
func (e *ErrorLogger) Count(code string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maybeReset()
	return e.counts[code]
}

// maybeReset must be called with mu held.
func (e *ErrorLogger) maybeReset() {
	now := e.clock.Now()
	if now.Sub(e.windowStart) < e.window {
		return
	}
	for code, n := range e.suppressed {
		e.log.Warn("suppressed %d repeated errors with code %s", n, code)
	}
	e.counts = make(map[string]int)
	e.suppressed = make(map[string]int)
	e.windowStart = now
}
