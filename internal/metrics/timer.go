package metrics

import "time"

// Timer measures a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() Timer {
	return Timer{start: time.Now()}
}

// Seconds returns the elapsed time in seconds.
func (t Timer) Seconds() float64 {
	return time.Since(t.start).Seconds()
}

// Status returns the label value for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
