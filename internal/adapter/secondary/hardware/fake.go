package hardware

import (
	"sync"

	"mic-check/internal/domain"
)

// FakeChannel describes one volume element of a fake device.
// Non-zero status fields make the matching call fail with that OSStatus.
type FakeChannel struct {
	Volume         float32
	Settable       bool
	ReadStatus     int32
	SettableStatus int32
	WriteStatus    int32
}

// FakeWrite records one successful SetScalarProperty call.
type FakeWrite struct {
	Device  domain.DeviceID
	Element domain.PropertyElement
	Value   float32
}

// Fake implements domain.AudioHardware with an in-memory device table.
// Useful for testing or environments without CoreAudio.
type Fake struct {
	mu            sync.Mutex
	defaultInput  domain.DeviceID
	defaultStatus int32
	devices       map[domain.DeviceID]map[domain.PropertyElement]*FakeChannel
	writes        []FakeWrite
}

// NewFake creates an empty fake audio system with no default input.
func NewFake() *Fake {
	return &Fake{devices: make(map[domain.DeviceID]map[domain.PropertyElement]*FakeChannel)}
}

// NewDemoFake creates a fake with one settable device at 50% on the main element.
func NewDemoFake() *Fake {
	f := NewFake()
	f.AddDevice(42, map[domain.PropertyElement]FakeChannel{
		domain.ElementMain: {Volume: 0.5, Settable: true},
	})
	f.SetDefaultInput(42)
	return f
}

// AddDevice registers a device with the given volume elements. Elements not in
// the map have no volume property.
func (f *Fake) AddDevice(id domain.DeviceID, channels map[domain.PropertyElement]FakeChannel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chs := make(map[domain.PropertyElement]*FakeChannel, len(channels))
	for el, ch := range channels {
		c := ch
		chs[el] = &c
	}
	f.devices[id] = chs
}

// SetDefaultInput switches the system default input device.
func (f *Fake) SetDefaultInput(id domain.DeviceID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultInput = id
	f.defaultStatus = 0
}

// FailDefaultInput makes default device resolution fail with status.
func (f *Fake) FailDefaultInput(status int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultStatus = status
}

// SetChannel replaces one element of an existing device, simulating a hardware change.
func (f *Fake) SetChannel(id domain.DeviceID, el domain.PropertyElement, ch FakeChannel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if chs, ok := f.devices[id]; ok {
		c := ch
		chs[el] = &c
	}
}

// Channel returns a copy of one element, if present.
func (f *Fake) Channel(id domain.DeviceID, el domain.PropertyElement) (FakeChannel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.lookup(id, domain.InputVolumeAddress(el))
	if !ok {
		return FakeChannel{}, false
	}
	return *ch, true
}

// Writes returns the successful writes in call order.
func (f *Fake) Writes() []FakeWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeWrite(nil), f.writes...)
}

func (f *Fake) lookup(object domain.DeviceID, addr domain.PropertyAddress) (*FakeChannel, bool) {
	if addr.Selector != domain.SelectorVolumeScalar || addr.Scope != domain.ScopeInput {
		return nil, false
	}
	chs, ok := f.devices[object]
	if !ok {
		return nil, false
	}
	ch, ok := chs[addr.Element]
	return ch, ok
}

// DeviceProperty implements domain.AudioHardware.
func (f *Fake) DeviceProperty(object domain.DeviceID, addr domain.PropertyAddress) (domain.DeviceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if object != domain.SystemObject || addr != domain.DefaultInputDeviceAddress {
		return domain.UnknownDevice, &domain.StatusError{Op: "AudioObjectGetPropertyData", Status: statusUnknownProperty}
	}
	if f.defaultStatus != 0 {
		return domain.UnknownDevice, &domain.StatusError{Op: "AudioObjectGetPropertyData", Status: f.defaultStatus}
	}
	return f.defaultInput, nil
}

// HasProperty implements domain.AudioHardware.
func (f *Fake) HasProperty(object domain.DeviceID, addr domain.PropertyAddress) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.lookup(object, addr)
	return ok
}

// ScalarProperty implements domain.AudioHardware.
func (f *Fake) ScalarProperty(object domain.DeviceID, addr domain.PropertyAddress) (float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.lookup(object, addr)
	if !ok {
		return 0, &domain.StatusError{Op: "AudioObjectGetPropertyData", Status: statusUnknownProperty}
	}
	if ch.ReadStatus != 0 {
		return 0, &domain.StatusError{Op: "AudioObjectGetPropertyData", Status: ch.ReadStatus}
	}
	return ch.Volume, nil
}

// IsPropertySettable implements domain.AudioHardware.
func (f *Fake) IsPropertySettable(object domain.DeviceID, addr domain.PropertyAddress) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.lookup(object, addr)
	if !ok {
		return false, &domain.StatusError{Op: "AudioObjectIsPropertySettable", Status: statusUnknownProperty}
	}
	if ch.SettableStatus != 0 {
		return false, &domain.StatusError{Op: "AudioObjectIsPropertySettable", Status: ch.SettableStatus}
	}
	return ch.Settable, nil
}

// SetScalarProperty implements domain.AudioHardware. Values are stored as given,
// so callers are responsible for clamping.
func (f *Fake) SetScalarProperty(object domain.DeviceID, addr domain.PropertyAddress, value float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.lookup(object, addr)
	if !ok {
		return &domain.StatusError{Op: "AudioObjectSetPropertyData", Status: statusUnknownProperty}
	}
	if !ch.Settable {
		return &domain.StatusError{Op: "AudioObjectSetPropertyData", Status: statusUnsupportedOperation}
	}
	if ch.WriteStatus != 0 {
		return &domain.StatusError{Op: "AudioObjectSetPropertyData", Status: ch.WriteStatus}
	}
	ch.Volume = value
	f.writes = append(f.writes, FakeWrite{Device: object, Element: addr.Element, Value: value})
	return nil
}
