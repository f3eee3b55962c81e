// Package clock implements the ports.Clock time source.
package clock

import (
	"sync"
	"time"

	"github.com/specgate/specgate/ports"
)

// Real reads the system clock.
type Real struct{}

// Now reports the system time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fake is a clock tests can position and advance deterministically.
type Fake struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFake starts a fake clock at t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// Now reports the clock's current position.
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Set repositions the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// Ensure interface compliance.
var (
	_ ports.Clock = Real{}
	_ ports.Clock = (*Fake)(nil)
)
