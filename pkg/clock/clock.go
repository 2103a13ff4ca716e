package clock

import "time"

// Clock hands out the wall time to the whole core. Everything that needs to
// know "now" or "today" goes through this interface so tests can freeze time.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

type realClock struct{}

func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Today() time.Time {
	return midnight(time.Now())
}

// Mock is a settable clock for tests.
type Mock struct {
	Current time.Time
}

func NewMock(t time.Time) *Mock {
	return &Mock{Current: t}
}

func (m *Mock) Now() time.Time {
	return m.Current
}

func (m *Mock) Today() time.Time {
	return midnight(m.Current)
}

// Advance moves the mock clock forward.
func (m *Mock) Advance(d time.Duration) {
	m.Current = m.Current.Add(d)
}

func (m *Mock) Set(t time.Time) {
	m.Current = t
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
