package domain

import (
	"math"
	"time"
)

// DeviceID is the opaque handle of an audio object (AudioObjectID on macOS).
type DeviceID uint32

// SystemObject is the handle of the audio system itself.
const SystemObject DeviceID = 1

// UnknownDevice is reported when no device is assigned to a role.
const UnknownDevice DeviceID = 0

// PropertySelector, PropertyScope and PropertyElement mirror the CoreAudio
// AudioObjectPropertyAddress fields.
type (
	PropertySelector uint32
	PropertyScope    uint32
	PropertyElement  uint32
)

// fourCC packs a four character code the way CoreAudio headers do.
func fourCC(s string) uint32 {
	return uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])
}

var (
	SelectorDefaultInputDevice = PropertySelector(fourCC("dIn "))
	SelectorVolumeScalar       = PropertySelector(fourCC("volm"))

	ScopeGlobal = PropertyScope(fourCC("glob"))
	ScopeInput  = PropertyScope(fourCC("inpt"))
)

const (
	// ElementMain addresses the master element of a property.
	ElementMain PropertyElement = 0
	// ElementChannel1 addresses the first channel of a property.
	ElementChannel1 PropertyElement = 1
)

// PropertyAddress identifies one property of an audio object.
type PropertyAddress struct {
	Selector PropertySelector
	Scope    PropertyScope
	Element  PropertyElement
}

// DefaultInputDeviceAddress is read from SystemObject.
var DefaultInputDeviceAddress = PropertyAddress{
	Selector: SelectorDefaultInputDevice,
	Scope:    ScopeGlobal,
	Element:  ElementMain,
}

// InputVolumeAddress returns the input scope volume scalar address for an element.
func InputVolumeAddress(element PropertyElement) PropertyAddress {
	return PropertyAddress{
		Selector: SelectorVolumeScalar,
		Scope:    ScopeInput,
		Element:  element,
	}
}

// VolumeChannels is the order in which volume elements are checked.
// Some hardware only exposes the master element, some only per-channel control.
var VolumeChannels = []PropertyElement{ElementMain, ElementChannel1}

// ClampVolume constrains v to [0, 1]. NaN maps to 0.
func ClampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// State is the observable pair published to the presentation layer.
type State struct {
	Volume     float64 `json:"volume"`
	Adjustable bool    `json:"adjustable"`
}

// SafeState is published whenever the device cannot be read.
var SafeState = State{Volume: 0, Adjustable: false}

// MutedThreshold is the volume under which the mic is shown as muted.
const MutedThreshold = 0.001

// Icon names follow the SF Symbols used by the menu bar item.
const (
	IconMic      = "mic.fill"
	IconMicSlash = "mic.slash.fill"
)

// Muted reports whether the input is effectively silent.
func (s State) Muted() bool {
	return s.Volume < MutedThreshold
}

// Icon returns the symbol name to render for the state.
func (s State) Icon() string {
	if !s.Adjustable || s.Muted() {
		return IconMicSlash
	}
	return IconMic
}

// Percent returns the volume rounded to a whole percentage.
func (s State) Percent() int {
	return int(math.Round(s.Volume * 100))
}

// Config represents the gain lock configuration.
// This is a pure domain model with no dependencies on external concerns.
type Config struct {
	TargetVolume float64
	Interval     time.Duration
	Enabled      bool
}

// ScheduleState represents the current state of the gain lock scheduler.
type ScheduleState struct {
	LastApplied     time.Time
	LastApplyStatus ApplyStatus
	LastError       error
	NextRun         time.Time
	IsRunning       bool
}

// ApplyStatus represents the status of a volume application attempt.
type ApplyStatus int

const (
	StatusNever ApplyStatus = iota
	StatusSuccess
	StatusFailed
)

func (s ApplyStatus) String() string {
	switch s {
	case StatusNever:
		return "never"
	case StatusSuccess:
		return "ok"
	case StatusFailed:
		return "error"
	default:
		return "unknown"
	}
}

// ParseApplyStatus is the inverse of ApplyStatus.String.
func ParseApplyStatus(s string) ApplyStatus {
	switch s {
	case "ok":
		return StatusSuccess
	case "error":
		return StatusFailed
	default:
		return StatusNever
	}
}

// Snapshot represents a complete view of the system state.
type Snapshot struct {
	Config        Config
	ScheduleState ScheduleState
	Device        State
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if math.IsNaN(c.TargetVolume) || c.TargetVolume < 0 || c.TargetVolume > 1 {
		return ErrInvalidVolume
	}
	if c.Interval < time.Second {
		return ErrInvalidInterval
	}
	return nil
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() Config {
	return Config{
		TargetVolume: 0.5,
		Interval:     90 * time.Second,
		Enabled:      false,
	}
}
