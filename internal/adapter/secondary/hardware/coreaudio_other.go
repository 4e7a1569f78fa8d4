//go:build !darwin || !cgo

package hardware

import (
	"fmt"

	"mic-check/internal/domain"
)

func newCoreAudio() (domain.AudioHardware, error) {
	return nil, fmt.Errorf("coreaudio backend: %w", domain.ErrUnsupported)
}
