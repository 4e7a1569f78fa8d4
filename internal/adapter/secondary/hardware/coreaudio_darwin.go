//go:build darwin && cgo

package hardware

/*
#cgo LDFLAGS: -framework CoreAudio
#include <CoreAudio/CoreAudio.h>

static OSStatus mc_get_object(AudioObjectID obj, UInt32 sel, UInt32 scope, UInt32 el, AudioObjectID *out) {
	AudioObjectPropertyAddress addr = { sel, scope, el };
	UInt32 size = sizeof(AudioObjectID);
	return AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, out);
}

static Boolean mc_has(AudioObjectID obj, UInt32 sel, UInt32 scope, UInt32 el) {
	AudioObjectPropertyAddress addr = { sel, scope, el };
	return AudioObjectHasProperty(obj, &addr);
}

static OSStatus mc_get_f32(AudioObjectID obj, UInt32 sel, UInt32 scope, UInt32 el, Float32 *out) {
	AudioObjectPropertyAddress addr = { sel, scope, el };
	UInt32 size = sizeof(Float32);
	return AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, out);
}

static OSStatus mc_settable(AudioObjectID obj, UInt32 sel, UInt32 scope, UInt32 el, Boolean *out) {
	AudioObjectPropertyAddress addr = { sel, scope, el };
	return AudioObjectIsPropertySettable(obj, &addr, out);
}

static OSStatus mc_set_f32(AudioObjectID obj, UInt32 sel, UInt32 scope, UInt32 el, Float32 v) {
	AudioObjectPropertyAddress addr = { sel, scope, el };
	return AudioObjectSetPropertyData(obj, &addr, 0, NULL, sizeof(Float32), &v);
}
*/
import "C"

import "mic-check/internal/domain"

// CoreAudio implements domain.AudioHardware with the AudioObject property API.
type CoreAudio struct{}

func newCoreAudio() (domain.AudioHardware, error) {
	return CoreAudio{}, nil
}

func cAddr(addr domain.PropertyAddress) (C.UInt32, C.UInt32, C.UInt32) {
	return C.UInt32(addr.Selector), C.UInt32(addr.Scope), C.UInt32(addr.Element)
}

// DeviceProperty implements domain.AudioHardware.
func (CoreAudio) DeviceProperty(object domain.DeviceID, addr domain.PropertyAddress) (domain.DeviceID, error) {
	sel, scope, el := cAddr(addr)
	var out C.AudioObjectID
	if st := C.mc_get_object(C.AudioObjectID(object), sel, scope, el, &out); st != 0 {
		return domain.UnknownDevice, &domain.StatusError{Op: "AudioObjectGetPropertyData", Status: int32(st)}
	}
	return domain.DeviceID(out), nil
}

// HasProperty implements domain.AudioHardware.
func (CoreAudio) HasProperty(object domain.DeviceID, addr domain.PropertyAddress) bool {
	sel, scope, el := cAddr(addr)
	return C.mc_has(C.AudioObjectID(object), sel, scope, el) != 0
}

// ScalarProperty implements domain.AudioHardware.
func (CoreAudio) ScalarProperty(object domain.DeviceID, addr domain.PropertyAddress) (float32, error) {
	sel, scope, el := cAddr(addr)
	var out C.Float32
	if st := C.mc_get_f32(C.AudioObjectID(object), sel, scope, el, &out); st != 0 {
		return 0, &domain.StatusError{Op: "AudioObjectGetPropertyData", Status: int32(st)}
	}
	return float32(out), nil
}

// IsPropertySettable implements domain.AudioHardware.
func (CoreAudio) IsPropertySettable(object domain.DeviceID, addr domain.PropertyAddress) (bool, error) {
	sel, scope, el := cAddr(addr)
	var out C.Boolean
	if st := C.mc_settable(C.AudioObjectID(object), sel, scope, el, &out); st != 0 {
		return false, &domain.StatusError{Op: "AudioObjectIsPropertySettable", Status: int32(st)}
	}
	return out != 0, nil
}

// SetScalarProperty implements domain.AudioHardware.
func (CoreAudio) SetScalarProperty(object domain.DeviceID, addr domain.PropertyAddress, value float32) error {
	sel, scope, el := cAddr(addr)
	if st := C.mc_set_f32(C.AudioObjectID(object), sel, scope, el, C.Float32(value)); st != 0 {
		return &domain.StatusError{Op: "AudioObjectSetPropertyData", Status: int32(st)}
	}
	return nil
}
