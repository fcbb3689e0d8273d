// Package clock lets services read the current time through an interface so
// tests can pin it.
package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// New returns the system clock.
func New() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }

// Func adapts a plain function to Clocker.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
