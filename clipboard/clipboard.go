// Package clipboard wraps the system clipboard for the per-field copy
// buttons on the result panel.
package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var writeMu sync.Mutex

// Init claims clipboard access once at startup. Copy buttons stay usable
// only if this succeeds.
func Init() error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("init clipboard: %w", err)
	}
	return nil
}

// Write replaces the clipboard text. Writes are serialized; concurrent
// unsynchronized writes corrupt the clipboard chain on Windows.
func Write(text string) {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
}
