package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidVolume indicates that the volume value is out of range.
	ErrInvalidVolume = errors.New("volume must be between 0 and 1")

	// ErrInvalidInterval indicates that the interval is too short.
	ErrInvalidInterval = errors.New("interval must be at least 1 second")

	// ErrNotAdjustable is reported when no checked channel accepts writes.
	ErrNotAdjustable = errors.New("input volume is not adjustable on this device")

	// ErrUnsupported indicates that the backend is not available on this platform.
	ErrUnsupported = errors.New("not supported on this platform")
)

// StatusError is a non-success status returned by the audio system.
type StatusError struct {
	Op     string
	Status int32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (OSStatus %d)", e.Op, e.Status)
}

// DeviceResolutionError means no default input device could be found.
type DeviceResolutionError struct {
	Status int32
	Err    error
}

func (e *DeviceResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to read input device (OSStatus %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("failed to read input device (OSStatus %d)", e.Status)
}

func (e *DeviceResolutionError) Unwrap() error { return e.Err }

// PropertyUnavailableError means the device does not expose the property on an element.
type PropertyUnavailableError struct {
	Device  DeviceID
	Element PropertyElement
}

func (e *PropertyUnavailableError) Error() string {
	return fmt.Sprintf("volume property not present on device %d element %d", e.Device, e.Element)
}

// VolumeUnavailableError means no checked channel yielded a readable volume.
type VolumeUnavailableError struct {
	Device DeviceID
	Causes []error
}

func (e *VolumeUnavailableError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("input volume not available for device %d", e.Device)
	}
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = c.Error()
	}
	return fmt.Sprintf("input volume not available for device %d: %s", e.Device, strings.Join(parts, "; "))
}

func (e *VolumeUnavailableError) Unwrap() []error { return e.Causes }

// StatusCode extracts the OS status carried by err, if any.
func StatusCode(err error) (int32, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	var de *DeviceResolutionError
	if errors.As(err, &de) {
		return de.Status, true
	}
	return 0, false
}
