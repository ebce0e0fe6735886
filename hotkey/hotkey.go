// Package hotkey registers global key combinations and reports full presses
// on a channel. The Source interface decouples the capture pipeline from the
// OS keyboard hook so tests can drive it with the channel-backed Fake.
package hotkey

import (
	"errors"
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Event is one complete press of a registered combination.
type Event struct {
	Combo string
}

// Source delivers hotkey presses. Register may be called once per combo and
// returns that combo's channel; Close stops delivery and closes every
// registered channel.
type Source interface {
	Register(combo string) (<-chan Event, error)
	Close() error
}

// watcher tracks the pressed state of one combination.
type watcher struct {
	combo string
	keys  []comboKey
	ch    chan Event
}

// mark updates the pressed state of any key matching raw and reports whether
// raw belongs to this combination at all.
func (w *watcher) mark(raw uint16, pressed bool) bool {
	matched := false
	for i := range w.keys {
		for _, rc := range w.keys[i].rawcodes {
			if rc == raw {
				w.keys[i].pressed = pressed
				matched = true
				break
			}
		}
	}
	return matched
}

func (w *watcher) armed() bool {
	for i := range w.keys {
		if !w.keys[i].pressed {
			return false
		}
	}
	return true
}

func (w *watcher) reset() {
	for i := range w.keys {
		w.keys[i].pressed = false
	}
}

// HookSource is the gohook-backed Source. The OS hook starts on the first
// successful Register and runs until Close.
type HookSource struct {
	mu       sync.Mutex
	watchers []*watcher
	started  bool
	closed   bool
}

func NewHookSource() *HookSource {
	return &HookSource{}
}

// Register parses combo and starts watching for it. An unparseable combo
// fails here, before the hook is touched, so the caller can log it and keep
// running with the combos that did register.
func (s *HookSource) Register(combo string) (<-chan Event, error) {
	keys, err := parseCombo(combo)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("hotkey source is closed")
	}
	w := &watcher{combo: combo, keys: keys, ch: make(chan Event, 1)}
	s.watchers = append(s.watchers, w)
	if !s.started {
		s.started = true
		go s.run()
	}
	log.Printf("hotkey: registered %q", combo)
	return w.ch, nil
}

// Close stops the OS hook. The event channels close once the hook loop
// drains, which readers observe as end of delivery.
func (s *HookSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if started {
		gohook.End()
	}
	return nil
}

func (s *HookSource) run() {
	events := gohook.Start()
	if events == nil {
		log.Printf("hotkey: keyboard hook unavailable, combos will not fire")
		return
	}
	for ev := range events {
		switch ev.Kind {
		case gohook.KeyDown:
			s.press(ev.Rawcode, true)
		case gohook.KeyHold:
			// Auto-repeat keeps long-held modifiers armed but never fires.
			s.press(ev.Rawcode, false)
		case gohook.KeyUp:
			s.release(ev.Rawcode)
		}
	}

	s.mu.Lock()
	for _, w := range s.watchers {
		close(w.ch)
	}
	s.watchers = nil
	s.mu.Unlock()
}

// press marks raw as down and fires every combination it completes. Pressed
// state resets on fire so holding the combo does not retrigger.
func (s *HookSource) press(raw uint16, fire bool) {
	s.mu.Lock()
	var fired []*watcher
	for _, w := range s.watchers {
		if !w.mark(raw, true) {
			continue
		}
		if fire && w.armed() {
			w.reset()
			fired = append(fired, w)
		}
	}
	s.mu.Unlock()

	for _, w := range fired {
		select {
		case w.ch <- Event{Combo: w.combo}:
			log.Printf("hotkey: %q pressed", w.combo)
		default:
			log.Printf("hotkey: dropping %q press, receiver busy", w.combo)
		}
	}
}

func (s *HookSource) release(raw uint16) {
	s.mu.Lock()
	for _, w := range s.watchers {
		w.mark(raw, false)
	}
	s.mu.Unlock()
}
