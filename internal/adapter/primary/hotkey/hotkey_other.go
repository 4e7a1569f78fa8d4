//go:build !darwin

package hotkey

import (
	"fmt"

	"mic-check/internal/domain"
)

// New is only implemented on macOS.
func New(combo string) (Listener, error) {
	return nil, fmt.Errorf("hotkey %q: %w", combo, domain.ErrUnsupported)
}
