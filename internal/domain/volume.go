package domain

import (
	"errors"
	"fmt"
)

// VolumeService reads and writes the default input volume through an
// AudioHardware port. It holds no state; every call resolves the device again.
type VolumeService struct {
	hw AudioHardware
}

// NewVolumeService creates a volume service over the given hardware port.
func NewVolumeService(hw AudioHardware) *VolumeService {
	return &VolumeService{hw: hw}
}

// ResolveDefaultInputDevice returns the current system default input device.
func (s *VolumeService) ResolveDefaultInputDevice() (DeviceID, error) {
	id, err := s.hw.DeviceProperty(SystemObject, DefaultInputDeviceAddress)
	if err != nil {
		status, _ := StatusCode(err)
		return UnknownDevice, &DeviceResolutionError{Status: status, Err: err}
	}
	if id == UnknownDevice {
		return UnknownDevice, &DeviceResolutionError{}
	}
	return id, nil
}

// readChannel reads the raw volume scalar of one element.
func (s *VolumeService) readChannel(device DeviceID, element PropertyElement) (float32, error) {
	addr := InputVolumeAddress(element)
	if !s.hw.HasProperty(device, addr) {
		return 0, &PropertyUnavailableError{Device: device, Element: element}
	}
	v, err := s.hw.ScalarProperty(device, addr)
	if err != nil {
		return 0, fmt.Errorf("read element %d: %w", element, err)
	}
	return v, nil
}

// ReadVolume returns the clamped volume of the first readable channel.
func (s *VolumeService) ReadVolume(device DeviceID) (float64, error) {
	var causes []error
	for _, element := range VolumeChannels {
		v, err := s.readChannel(device, element)
		if err != nil {
			causes = append(causes, err)
			continue
		}
		return ClampVolume(float64(v)), nil
	}
	return 0, &VolumeUnavailableError{Device: device, Causes: causes}
}

// channelSettable reports whether the volume of element can be written.
func (s *VolumeService) channelSettable(device DeviceID, element PropertyElement) (bool, error) {
	addr := InputVolumeAddress(element)
	if !s.hw.HasProperty(device, addr) {
		return false, &PropertyUnavailableError{Device: device, Element: element}
	}
	ok, err := s.hw.IsPropertySettable(device, addr)
	if err != nil {
		return false, fmt.Errorf("query settable element %d: %w", element, err)
	}
	return ok, nil
}

// settableChannel returns the first channel that accepts writes.
func (s *VolumeService) settableChannel(device DeviceID) (PropertyElement, bool) {
	for _, element := range VolumeChannels {
		if ok, err := s.channelSettable(device, element); err == nil && ok {
			return element, true
		}
	}
	return 0, false
}

// IsAdjustable reports whether at least one checked channel is settable.
// A missing property is a "no", never an error.
func (s *VolumeService) IsAdjustable(device DeviceID) bool {
	_, ok := s.settableChannel(device)
	return ok
}

// WriteVolume clamps value and writes it to the first settable channel.
// It returns ErrNotAdjustable without writing when no channel is settable.
func (s *VolumeService) WriteVolume(device DeviceID, value float64) (PropertyElement, error) {
	element, ok := s.settableChannel(device)
	if !ok {
		return 0, ErrNotAdjustable
	}
	v := float32(ClampVolume(value))
	if err := s.hw.SetScalarProperty(device, InputVolumeAddress(element), v); err != nil {
		return element, fmt.Errorf("write element %d: %w", element, err)
	}
	return element, nil
}

// Read composes device resolution, volume read and adjustability into a State.
func (s *VolumeService) Read() (State, error) {
	id, err := s.ResolveDefaultInputDevice()
	if err != nil {
		return SafeState, err
	}
	vol, err := s.ReadVolume(id)
	if err != nil {
		return SafeState, err
	}
	return State{Volume: vol, Adjustable: s.IsAdjustable(id)}, nil
}

// IsUnavailable reports whether err means the device exposes no volume at all,
// as opposed to an OS call failing.
func IsUnavailable(err error) bool {
	var ve *VolumeUnavailableError
	if !errors.As(err, &ve) {
		return false
	}
	for _, c := range ve.Causes {
		var pe *PropertyUnavailableError
		if !errors.As(c, &pe) {
			return false
		}
	}
	return true
}
