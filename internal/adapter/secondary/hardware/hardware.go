// Package hardware provides implementations of domain.AudioHardware.
package hardware

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"mic-check/internal/domain"
)

// OSStatus values used when a backend has to synthesize a failure.
const (
	statusParamError           int32 = -50        // kAudio_ParamError
	statusUnknownProperty      int32 = 2003332927 // kAudioHardwareUnknownPropertyError 'who?'
	statusUnsupportedOperation int32 = 1970171760 // kAudioHardwareUnsupportedOperationError 'unop'
)

// Backend names accepted by New.
const (
	BackendAuto      = "auto"
	BackendCoreAudio = "coreaudio"
	BackendOsascript = "osascript"
	BackendFake      = "fake"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendAuto, BackendCoreAudio, BackendOsascript, BackendFake}

// New returns the hardware port for backend. "auto" prefers CoreAudio and
// falls back to osascript on macOS builds without cgo.
func New(backend string) (domain.AudioHardware, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendAuto:
		hw, err := newCoreAudio()
		if err == nil {
			return hw, nil
		}
		if !errors.Is(err, domain.ErrUnsupported) {
			return nil, err
		}
		if runtime.GOOS == "darwin" {
			return NewAppleScript(), nil
		}
		return nil, fmt.Errorf("no audio backend for %s: %w", runtime.GOOS, domain.ErrUnsupported)
	case BackendCoreAudio:
		return newCoreAudio()
	case BackendOsascript:
		if runtime.GOOS != "darwin" {
			return nil, fmt.Errorf("osascript backend: %w", domain.ErrUnsupported)
		}
		return NewAppleScript(), nil
	case BackendFake:
		return NewDemoFake(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (valid: %s)", backend, strings.Join(Backends, ", "))
	}
}
