//go:build !windows

package tray

import "log"

// BlockingError logs the failure; there is no native dialog off Windows.
func BlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
}
