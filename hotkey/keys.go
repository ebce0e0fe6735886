package hotkey

import (
	"fmt"
	"strings"
)

// comboKey is one key of a combination with its Windows virtual-key rawcodes
// (modifiers carry both the left and right variant).
type comboKey struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// vkCodes maps normalized key names to virtual-key rawcodes. Letters, digits
// and function keys are generated; modifiers and named keys are spelled out.
var vkCodes = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"win":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"esc":       {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyAliases fold alternate spellings onto the table's entries.
var keyAliases = map[string]string{
	"control": "ctrl",
	"cmd":     "win",
	"super":   "win",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
	"ins":     "insert",
	"pgup":    "pageup",
	"pgdn":    "pagedown",
}

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		vkCodes[string(c)] = []uint16{uint16(c-'a') + 0x41}
	}
	for c := byte('0'); c <= '9'; c++ {
		vkCodes[string(c)] = []uint16{uint16(c-'0') + 0x30}
	}
	for i := 1; i <= 24; i++ {
		vkCodes[fmt.Sprintf("f%d", i)] = []uint16{uint16(0x6F + i)} // VK_F1..VK_F24
	}
}

// parseCombo turns "Ctrl+Alt+M" into its comboKey sequence. Unknown or empty
// key names fail the whole combo.
func parseCombo(combo string) ([]comboKey, error) {
	var keys []comboKey
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		name := strings.TrimSpace(part)
		if alias, ok := keyAliases[name]; ok {
			name = alias
		}
		codes, ok := vkCodes[name]
		if !ok {
			return nil, fmt.Errorf("unknown key %q in combo %q", name, combo)
		}
		keys = append(keys, comboKey{name: name, rawcodes: codes})
	}
	return keys, nil
}
