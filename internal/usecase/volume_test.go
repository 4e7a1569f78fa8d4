package usecase

import (
	"errors"
	"math"
	"sync"
	"testing"

	"mic-check/internal/adapter/secondary/hardware"
	"mic-check/internal/domain"
)

const testDevice domain.DeviceID = 7

func newFakeHardware(channels map[domain.PropertyElement]hardware.FakeChannel) *hardware.Fake {
	hw := hardware.NewFake()
	hw.AddDevice(testDevice, channels)
	hw.SetDefaultInput(testDevice)
	return hw
}

func settableMain(v float32) map[domain.PropertyElement]hardware.FakeChannel {
	return map[domain.PropertyElement]hardware.FakeChannel{
		domain.ElementMain: {Volume: v, Settable: true},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// countingDispatcher records how many calls went through it.
type countingDispatcher struct {
	mu    sync.Mutex
	calls int
}

func (d *countingDispatcher) Call(fn func()) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	fn()
}

func TestInitialStateIsSafe(t *testing.T) {
	uc := NewVolumeUseCase(newFakeHardware(settableMain(0.5)), nil)
	if got := uc.State(); got != domain.SafeState {
		t.Errorf("State() before Refresh = %+v, want %+v", got, domain.SafeState)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	uc := NewVolumeUseCase(newFakeHardware(settableMain(0.6)), nil)

	var published []domain.State
	uc.Subscribe(func(st domain.State) { published = append(published, st) })

	first := uc.Refresh()
	second := uc.Refresh()
	if first != second {
		t.Errorf("refresh without device change differs: %+v vs %+v", first, second)
	}
	if !first.Adjustable || !almostEqual(first.Volume, 0.6) {
		t.Errorf("Refresh = %+v", first)
	}
	if len(published) != 1 {
		t.Errorf("observers notified %d times, want 1", len(published))
	}
}

func TestRefreshFollowsDefaultDevice(t *testing.T) {
	hw := newFakeHardware(settableMain(0.6))
	hw.AddDevice(99, map[domain.PropertyElement]hardware.FakeChannel{
		domain.ElementChannel1: {Volume: 0.2},
	})
	uc := NewVolumeUseCase(hw, nil)
	uc.Refresh()

	hw.SetDefaultInput(99)
	got := uc.Refresh()
	if got.Adjustable || !almostEqual(got.Volume, 0.2) {
		t.Errorf("after device switch = %+v, want read-only 0.2", got)
	}
}

func TestRefreshFailurePublishesSafeState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*hardware.Fake)
	}{
		{"device resolution fails", func(hw *hardware.Fake) { hw.FailDefaultInput(-50) }},
		{"no default device", func(hw *hardware.Fake) { hw.SetDefaultInput(domain.UnknownDevice) }},
		{"no volume property", func(hw *hardware.Fake) {
			hw.AddDevice(testDevice, nil)
		}},
		{"read fails", func(hw *hardware.Fake) {
			hw.SetChannel(testDevice, domain.ElementMain, hardware.FakeChannel{Settable: true, ReadStatus: -50})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hw := newFakeHardware(settableMain(0.8))
			uc := NewVolumeUseCase(hw, nil)
			uc.Refresh()

			tt.setup(hw)
			if got := uc.Refresh(); got != domain.SafeState {
				t.Errorf("Refresh = %+v, want safe state", got)
			}
			if got := uc.State(); got != domain.SafeState {
				t.Errorf("State = %+v, want safe state", got)
			}
		})
	}
}

func TestSetVolume(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"in range", 0.35, 0.35},
		{"above range", 1.5, 1},
		{"below range", -0.2, 0},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hw := newFakeHardware(settableMain(0.5))
			uc := NewVolumeUseCase(hw, nil)

			got := uc.SetVolume(tt.value)
			if !almostEqual(got.Volume, tt.want) || !got.Adjustable {
				t.Errorf("SetVolume(%v) = %+v, want volume %v", tt.value, got, tt.want)
			}
			writes := hw.Writes()
			if len(writes) != 1 || !almostEqual(float64(writes[0].Value), tt.want) {
				t.Errorf("writes = %+v", writes)
			}
		})
	}
}

func TestSetVolumeReadOnlyDevice(t *testing.T) {
	hw := newFakeHardware(map[domain.PropertyElement]hardware.FakeChannel{
		domain.ElementMain: {Volume: 0.4},
	})
	uc := NewVolumeUseCase(hw, nil)

	got := uc.SetVolume(0.9)
	if got.Adjustable || !almostEqual(got.Volume, 0.4) {
		t.Errorf("SetVolume = %+v, want unchanged read-only 0.4", got)
	}
	if len(hw.Writes()) != 0 {
		t.Errorf("read-only device was written: %+v", hw.Writes())
	}

	_, err := uc.TrySetVolume(0.9)
	if !errors.Is(err, domain.ErrNotAdjustable) {
		t.Errorf("TrySetVolume err = %v, want ErrNotAdjustable", err)
	}
}

func TestSetVolumeWriteFailure(t *testing.T) {
	hw := newFakeHardware(map[domain.PropertyElement]hardware.FakeChannel{
		domain.ElementMain: {Volume: 0.4, Settable: true, WriteStatus: -50},
	})
	uc := NewVolumeUseCase(hw, nil)

	got := uc.SetVolume(0.9)
	if !almostEqual(got.Volume, 0.4) {
		t.Errorf("SetVolume = %+v, want the previous level after a failed write", got)
	}
	if _, err := uc.TrySetVolume(0.9); err == nil {
		t.Error("TrySetVolume should report the failed write")
	} else if code, ok := domain.StatusCode(err); !ok || code != -50 {
		t.Errorf("StatusCode = (%d, %t), want (-50, true)", code, ok)
	}
}

func TestToggleMute(t *testing.T) {
	hw := newFakeHardware(settableMain(0.7))
	uc := NewVolumeUseCase(hw, nil)
	uc.Refresh()

	muted := uc.ToggleMute()
	if !muted.Muted() || muted.Icon() != domain.IconMicSlash {
		t.Fatalf("first toggle = %+v, want muted", muted)
	}

	restored := uc.ToggleMute()
	if !almostEqual(restored.Volume, 0.7) {
		t.Errorf("second toggle = %+v, want 0.7 restored", restored)
	}
}

func TestToggleMuteFromSilence(t *testing.T) {
	uc := NewVolumeUseCase(newFakeHardware(settableMain(0)), nil)
	if got := uc.ToggleMute(); !almostEqual(got.Volume, defaultUnmuteVolume) {
		t.Errorf("unmute without history = %+v, want %v", got, defaultUnmuteVolume)
	}
}

func TestStep(t *testing.T) {
	uc := NewVolumeUseCase(newFakeHardware(settableMain(0.5)), nil)

	if got := uc.Step(0.1); !almostEqual(got.Volume, 0.6) {
		t.Errorf("Step(+0.1) = %+v", got)
	}
	if got := uc.Step(2); !almostEqual(got.Volume, 1) {
		t.Errorf("Step(+2) = %+v, want clamped to 1", got)
	}
	if got := uc.Step(-5); got.Volume != 0 {
		t.Errorf("Step(-5) = %+v, want clamped to 0", got)
	}
}

func TestSubscribeCancel(t *testing.T) {
	hw := newFakeHardware(settableMain(0.5))
	uc := NewVolumeUseCase(hw, nil)

	var a, b int
	cancelA := uc.Subscribe(func(domain.State) { a++ })
	uc.Subscribe(func(domain.State) { b++ })

	uc.Refresh()
	cancelA()
	uc.SetVolume(0.9)

	if a != 1 {
		t.Errorf("cancelled observer called %d times, want 1", a)
	}
	if b != 2 {
		t.Errorf("observer called %d times, want 2", b)
	}
}

func TestOperationsGoThroughDispatcher(t *testing.T) {
	d := &countingDispatcher{}
	uc := NewVolumeUseCase(newFakeHardware(settableMain(0.5)), d)

	uc.Refresh()
	uc.SetVolume(0.3)
	uc.ToggleMute()
	uc.Step(0.1)

	if d.calls != 4 {
		t.Errorf("dispatcher calls = %d, want 4", d.calls)
	}
}
