package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Ctrl+Alt+M", []string{"ctrl", "alt", "m"}},
		{"ctrl+alt+a", []string{"ctrl", "alt", "a"}},
		{"Alt+F4", []string{"alt", "f4"}},
		{"Ctrl+Shift+F13", []string{"ctrl", "shift", "f13"}},
		{"Win+Shift+S", []string{"win", "shift", "s"}},
		{"Super+Alt+T", []string{"win", "alt", "t"}},
		{"Control + Space", []string{"ctrl", "space"}},
	}
	for _, tt := range tests {
		keys, err := parseCombo(tt.input)
		if err != nil {
			t.Errorf("parseCombo(%q): %v", tt.input, err)
			continue
		}
		if len(keys) != len(tt.want) {
			t.Errorf("parseCombo(%q) = %d keys, want %d", tt.input, len(keys), len(tt.want))
			continue
		}
		for i := range keys {
			if keys[i].name != tt.want[i] {
				t.Errorf("parseCombo(%q)[%d] = %q, want %q", tt.input, i, keys[i].name, tt.want[i])
			}
		}
	}
}

func TestParseComboRejectsUnknownKeys(t *testing.T) {
	for _, combo := range []string{"", "ctrl+", "ctrl+alt+bogus", "hyper+m"} {
		if _, err := parseCombo(combo); err == nil {
			t.Errorf("parseCombo(%q): want error", combo)
		}
	}
}

func TestRawcodeTable(t *testing.T) {
	tests := []struct {
		name string
		want []uint16
	}{
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"win", []uint16{91, 92}},
		{"a", []uint16{65}},
		{"m", []uint16{77}},
		{"z", []uint16{90}},
		{"0", []uint16{48}},
		{"9", []uint16{57}},
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},
		{"space", []uint16{32}},
		{"enter", []uint16{13}},
		{"esc", []uint16{27}},
	}
	for _, tt := range tests {
		got := vkCodes[tt.name]
		if len(got) != len(tt.want) {
			t.Errorf("vkCodes[%q] = %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("vkCodes[%q][%d] = %d, want %d", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

// testSource builds a HookSource around one combo without starting the OS
// hook, so press/release can be driven directly.
func testSource(t *testing.T, combo string) (*HookSource, <-chan Event) {
	t.Helper()
	keys, err := parseCombo(combo)
	if err != nil {
		t.Fatalf("parseCombo(%q): %v", combo, err)
	}
	w := &watcher{combo: combo, keys: keys, ch: make(chan Event, 1)}
	return &HookSource{watchers: []*watcher{w}, started: true}, w.ch
}

func assertNoEvent(t *testing.T, ch <-chan Event, msg string) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("%s: got %+v", msg, ev)
	default:
	}
}

func assertEvent(t *testing.T, ch <-chan Event, combo string) {
	t.Helper()
	select {
	case ev := <-ch:
		if ev.Combo != combo {
			t.Fatalf("event combo = %q, want %q", ev.Combo, combo)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestCombinationFiresOncePerFullPress(t *testing.T) {
	const ctrlL, altL, keyM = 162, 164, 77

	s, ch := testSource(t, "ctrl+alt+m")

	s.press(ctrlL, true)
	s.press(altL, true)
	assertNoEvent(t, ch, "fired before the full combination")

	s.press(keyM, true)
	assertEvent(t, ch, "ctrl+alt+m")

	// Holding the combo (auto-repeat) must not retrigger.
	s.press(keyM, false)
	assertNoEvent(t, ch, "auto-repeat retriggered")

	// Auto-repeat re-arms the still-held modifiers; the next real keydown
	// of the letter fires again.
	s.press(ctrlL, false)
	s.press(altL, false)
	s.press(keyM, true)
	assertEvent(t, ch, "ctrl+alt+m")
}

func TestReleasedModifierDisarms(t *testing.T) {
	const ctrlL, altL, keyM = 162, 164, 77

	s, ch := testSource(t, "ctrl+alt+m")

	s.press(ctrlL, true)
	s.press(altL, true)
	s.release(ctrlL)
	s.press(keyM, true)
	assertNoEvent(t, ch, "fired after a modifier was released")
}

func TestRightHandModifiersCount(t *testing.T) {
	const ctrlR, altR, keyA = 163, 165, 65

	s, ch := testSource(t, "ctrl+alt+a")

	s.press(ctrlR, true)
	s.press(altR, true)
	s.press(keyA, true)
	assertEvent(t, ch, "ctrl+alt+a")
}

func TestUnrelatedKeysIgnored(t *testing.T) {
	s, ch := testSource(t, "ctrl+alt+m")

	s.press(65, true) // plain 'a'
	s.press(66, true) // plain 'b'
	assertNoEvent(t, ch, "fired on unrelated keys")
}

func TestFakeSource(t *testing.T) {
	f := NewFake()
	ch, err := f.Register("ctrl+alt+m")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !f.Trigger("ctrl+alt+m") {
		t.Fatal("Trigger returned false for a registered combo")
	}
	assertEvent(t, ch, "ctrl+alt+m")

	if f.Trigger("ctrl+alt+x") {
		t.Error("Trigger returned true for an unregistered combo")
	}
	if _, err := f.Register("ctrl+alt+bogus"); err == nil {
		t.Error("Register accepted an unparseable combo")
	}
}
