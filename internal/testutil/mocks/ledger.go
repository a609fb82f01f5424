package mocks

import (
	"sort"
	"sync"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

// Ledger is an in-memory ports.Ledger.
type Ledger struct {
	mu    sync.RWMutex
	done  map[string]bool
	err   error
	marks int
}

// NewLedger creates a ledger with the given names already recorded.
func NewLedger(done ...string) *Ledger {
	l := &Ledger{done: make(map[string]bool)}
	for _, name := range done {
		l.done[name] = true
	}
	return l
}

// FailWith makes MarkDone return err.
func (l *Ledger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// IsDone reports whether name was recorded.
func (l *Ledger) IsDone(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.done[name]
}

// MarkDone records every name.
func (l *Ledger) MarkDone(names ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	for _, name := range names {
		l.done[name] = true
		l.marks++
	}
	return nil
}

// Done returns the recorded names in sorted order.
func (l *Ledger) Done() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.done))
	for name := range l.done {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Marks returns how many names MarkDone has recorded, including repeats.
func (l *Ledger) Marks() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.marks
}

var _ ports.Ledger = (*Ledger)(nil)
