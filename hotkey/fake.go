package hotkey

import "sync"

// Fake is a channel-backed Source for tests: Trigger delivers an event as if
// the user had pressed the combo.
type Fake struct {
	mu    sync.Mutex
	chans map[string]chan Event
}

func NewFake() *Fake {
	return &Fake{chans: map[string]chan Event{}}
}

// Register validates the combo the same way the real source does, so tests
// exercise the parse path too.
func (f *Fake) Register(combo string) (<-chan Event, error) {
	if _, err := parseCombo(combo); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Event, 1)
	f.chans[combo] = ch
	return ch, nil
}

// Trigger simulates one press. It reports false when the combo was never
// registered or its receiver is not keeping up.
func (f *Fake) Trigger(combo string) bool {
	f.mu.Lock()
	ch := f.chans[combo]
	f.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- Event{Combo: combo}:
		return true
	default:
		return false
	}
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.chans {
		close(ch)
	}
	f.chans = map[string]chan Event{}
	return nil
}
