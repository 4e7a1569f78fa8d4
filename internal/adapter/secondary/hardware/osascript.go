package hardware

import (
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"mic-check/internal/domain"
)

// scriptDevice stands in for the default input device; AppleScript only ever
// addresses the current default, so there is a single pseudo handle.
const scriptDevice domain.DeviceID = 2

// AppleScript implements domain.AudioHardware using macOS osascript.
// It exposes the main element only and reports it as always settable.
type AppleScript struct {
	run func(script string) ([]byte, error)
}

// NewAppleScript creates an osascript backed hardware port.
func NewAppleScript() *AppleScript {
	return &AppleScript{run: runOsascript}
}

func runOsascript(script string) ([]byte, error) {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("osascript failed: %w, output: %s", err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (a *AppleScript) addressable(object domain.DeviceID, addr domain.PropertyAddress) bool {
	return object == scriptDevice && addr == domain.InputVolumeAddress(domain.ElementMain)
}

// DeviceProperty implements domain.AudioHardware.
func (a *AppleScript) DeviceProperty(object domain.DeviceID, addr domain.PropertyAddress) (domain.DeviceID, error) {
	if object != domain.SystemObject || addr != domain.DefaultInputDeviceAddress {
		return domain.UnknownDevice, &domain.StatusError{Op: "osascript", Status: statusUnknownProperty}
	}
	return scriptDevice, nil
}

// HasProperty implements domain.AudioHardware.
func (a *AppleScript) HasProperty(object domain.DeviceID, addr domain.PropertyAddress) bool {
	return a.addressable(object, addr)
}

// ScalarProperty implements domain.AudioHardware.
func (a *AppleScript) ScalarProperty(object domain.DeviceID, addr domain.PropertyAddress) (float32, error) {
	if !a.addressable(object, addr) {
		return 0, &domain.StatusError{Op: "osascript", Status: statusUnknownProperty}
	}
	out, err := a.run("input volume of (get volume settings)")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", &domain.StatusError{Op: "osascript", Status: statusParamError}, err)
	}
	text := strings.TrimSpace(string(out))
	// "missing value" is returned when the input device has no volume control.
	pct, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unexpected output %q", &domain.StatusError{Op: "osascript", Status: statusParamError}, text)
	}
	return float32(pct / 100), nil
}

// IsPropertySettable implements domain.AudioHardware.
func (a *AppleScript) IsPropertySettable(object domain.DeviceID, addr domain.PropertyAddress) (bool, error) {
	if !a.addressable(object, addr) {
		return false, &domain.StatusError{Op: "osascript", Status: statusUnknownProperty}
	}
	return true, nil
}

// SetScalarProperty sets the microphone input volume using osascript.
func (a *AppleScript) SetScalarProperty(object domain.DeviceID, addr domain.PropertyAddress, value float32) error {
	if !a.addressable(object, addr) {
		return &domain.StatusError{Op: "osascript", Status: statusUnknownProperty}
	}
	if value < 0 || value > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %v", value)
	}
	pct := int(math.Round(float64(value) * 100))
	if _, err := a.run(fmt.Sprintf("set volume input volume %d", pct)); err != nil {
		return fmt.Errorf("%w: %v", &domain.StatusError{Op: "osascript", Status: statusParamError}, err)
	}
	return nil
}
