// Package hotkey registers global keyboard shortcuts.
package hotkey

import "context"

// Listener listens for global hotkey presses.
type Listener interface {
	Start(ctx context.Context, onPress func()) error
	KeyName() string
}
