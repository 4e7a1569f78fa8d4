package hardware

import (
	"errors"
	"math"
	"runtime"
	"strings"
	"testing"

	"mic-check/internal/domain"
)

func TestNewBackends(t *testing.T) {
	hw, err := New(BackendFake)
	if err != nil {
		t.Fatalf("New(fake): %v", err)
	}
	if _, ok := hw.(*Fake); !ok {
		t.Errorf("New(fake) = %T, want *Fake", hw)
	}

	if _, err := New("pulse"); err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("New(pulse) err = %v", err)
	}

	if runtime.GOOS != "darwin" {
		if _, err := New(BackendAuto); !errors.Is(err, domain.ErrUnsupported) {
			t.Errorf("New(auto) on %s err = %v, want ErrUnsupported", runtime.GOOS, err)
		}
		if _, err := New(BackendOsascript); !errors.Is(err, domain.ErrUnsupported) {
			t.Errorf("New(osascript) on %s err = %v, want ErrUnsupported", runtime.GOOS, err)
		}
	}
}

func TestFakeRejectsUnknownAddresses(t *testing.T) {
	f := NewDemoFake()

	if f.HasProperty(42, domain.PropertyAddress{Selector: domain.SelectorVolumeScalar, Scope: domain.ScopeGlobal}) {
		t.Error("global scope volume should not exist")
	}
	if _, err := f.DeviceProperty(42, domain.DefaultInputDeviceAddress); err == nil {
		t.Error("default device must be read from the system object")
	}
	if err := f.SetScalarProperty(42, domain.InputVolumeAddress(domain.ElementChannel1), 0.3); err == nil {
		t.Error("write to missing element should fail")
	}
}

func TestFakeReadOnlyWrite(t *testing.T) {
	f := NewFake()
	f.AddDevice(5, map[domain.PropertyElement]FakeChannel{domain.ElementMain: {Volume: 0.2}})

	err := f.SetScalarProperty(5, domain.InputVolumeAddress(domain.ElementMain), 0.8)
	if code, ok := domain.StatusCode(err); !ok || code != statusUnsupportedOperation {
		t.Errorf("StatusCode = (%d, %t), want unsupported operation", code, ok)
	}
	if ch, _ := f.Channel(5, domain.ElementMain); ch.Volume != 0.2 {
		t.Errorf("volume changed to %v", ch.Volume)
	}
}

func TestAppleScript(t *testing.T) {
	var scripts []string
	out := "73\n"
	a := &AppleScript{run: func(script string) ([]byte, error) {
		scripts = append(scripts, script)
		return []byte(out), nil
	}}
	mainAddr := domain.InputVolumeAddress(domain.ElementMain)

	id, err := a.DeviceProperty(domain.SystemObject, domain.DefaultInputDeviceAddress)
	if err != nil || id != scriptDevice {
		t.Fatalf("DeviceProperty = (%d, %v)", id, err)
	}
	if !a.HasProperty(id, mainAddr) || a.HasProperty(id, domain.InputVolumeAddress(domain.ElementChannel1)) {
		t.Error("only the main element should be addressable")
	}

	v, err := a.ScalarProperty(id, mainAddr)
	if err != nil || math.Abs(float64(v)-0.73) > 1e-6 {
		t.Errorf("ScalarProperty = (%v, %v), want 0.73", v, err)
	}

	if err := a.SetScalarProperty(id, mainAddr, 0.456); err != nil {
		t.Fatalf("SetScalarProperty: %v", err)
	}
	if last := scripts[len(scripts)-1]; last != "set volume input volume 46" {
		t.Errorf("script = %q", last)
	}

	out = "missing value"
	if _, err := a.ScalarProperty(id, mainAddr); err == nil {
		t.Error("expected error for missing value output")
	} else if _, ok := domain.StatusCode(err); !ok {
		t.Errorf("error %v carries no status", err)
	}
}

func TestAppleScriptRunFailure(t *testing.T) {
	a := &AppleScript{run: func(string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}
	err := a.SetScalarProperty(scriptDevice, domain.InputVolumeAddress(domain.ElementMain), 0.5)
	if code, ok := domain.StatusCode(err); !ok || code != statusParamError {
		t.Errorf("StatusCode = (%d, %t), want param error", code, ok)
	}
}
