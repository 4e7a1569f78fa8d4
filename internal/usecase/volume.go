package usecase

import (
	"errors"
	"sync"

	"mic-check/internal/domain"
	"mic-check/internal/logging"
)

// VolumeUseCase is the primary port for reading and adjusting the default
// input volume. None of its methods fail: failures publish domain.SafeState.
type VolumeUseCase interface {
	Refresh() domain.State
	SetVolume(v float64) domain.State
	TrySetVolume(v float64) (domain.State, error)
	ToggleMute() domain.State
	Step(delta float64) domain.State
	State() domain.State
	Subscribe(fn func(domain.State)) (cancel func())
}

// defaultUnmuteVolume is restored by ToggleMute when no earlier level is known.
const defaultUnmuteVolume = 0.5

// InlineDispatcher runs functions on the calling goroutine.
type InlineDispatcher struct{}

// Call implements domain.Dispatcher.
func (InlineDispatcher) Call(fn func()) { fn() }

// volumeInteractor implements VolumeUseCase.
// All hardware access and state writes happen inside dispatcher.Call.
type volumeInteractor struct {
	service    *domain.VolumeService
	dispatcher domain.Dispatcher

	mu        sync.RWMutex
	state     domain.State
	published bool
	observers map[int]func(domain.State)
	nextID    int

	// lastAudible is only touched inside dispatcher.Call.
	lastAudible float64
}

// NewVolumeUseCase creates the volume use case. The initial state is the safe
// default until the first Refresh.
func NewVolumeUseCase(hw domain.AudioHardware, dispatcher domain.Dispatcher) VolumeUseCase {
	if dispatcher == nil {
		dispatcher = InlineDispatcher{}
	}
	return &volumeInteractor{
		service:     domain.NewVolumeService(hw),
		dispatcher:  dispatcher,
		state:       domain.SafeState,
		observers:   make(map[int]func(domain.State)),
		lastAudible: defaultUnmuteVolume,
	}
}

// State returns the last published state.
func (v *volumeInteractor) State() domain.State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Subscribe registers fn to receive every state change. fn is called on the
// dispatcher context and must not call back into the use case synchronously.
func (v *volumeInteractor) Subscribe(fn func(domain.State)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.observers[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

// Refresh re-reads the device and publishes the result.
func (v *volumeInteractor) Refresh() domain.State {
	var st domain.State
	v.dispatcher.Call(func() {
		st = v.refresh()
	})
	return st
}

// SetVolume writes v (clamped) when the device allows it, then refreshes.
func (v *volumeInteractor) SetVolume(value float64) domain.State {
	st, err := v.TrySetVolume(value)
	if err != nil {
		if errors.Is(err, domain.ErrNotAdjustable) {
			logging.Debugw("input volume is read-only, write skipped", "requested", value)
		} else {
			logging.Warnw("set input volume failed", "requested", value, "error", err)
		}
	}
	return st
}

// TrySetVolume is SetVolume that also reports why a write did not happen.
// The state is refreshed either way.
func (v *volumeInteractor) TrySetVolume(value float64) (domain.State, error) {
	var (
		st  domain.State
		err error
	)
	v.dispatcher.Call(func() {
		err = v.write(value)
		st = v.refresh()
	})
	return st, err
}

// ToggleMute sets the volume to zero, or restores the last audible level.
func (v *volumeInteractor) ToggleMute() domain.State {
	var (
		st  domain.State
		err error
	)
	v.dispatcher.Call(func() {
		current := v.refresh()
		target := 0.0
		if current.Muted() {
			target = v.lastAudible
		}
		err = v.write(target)
		st = v.refresh()
	})
	if err != nil && !errors.Is(err, domain.ErrNotAdjustable) {
		logging.Warnw("toggle mute failed", "error", err)
	}
	return st
}

// Step changes the volume by delta relative to the freshly read level.
func (v *volumeInteractor) Step(delta float64) domain.State {
	var (
		st  domain.State
		err error
	)
	v.dispatcher.Call(func() {
		current := v.refresh()
		err = v.write(current.Volume + delta)
		st = v.refresh()
	})
	if err != nil && !errors.Is(err, domain.ErrNotAdjustable) {
		logging.Warnw("step volume failed", "delta", delta, "error", err)
	}
	return st
}

// write resolves the device and writes value. Caller holds the dispatcher context.
func (v *volumeInteractor) write(value float64) error {
	id, err := v.service.ResolveDefaultInputDevice()
	if err != nil {
		return err
	}
	element, err := v.service.WriteVolume(id, value)
	if err != nil {
		return err
	}
	logging.Debugw("input volume written", "device", id, "element", element, "value", domain.ClampVolume(value))
	return nil
}

// refresh reads the device and publishes. Caller holds the dispatcher context.
func (v *volumeInteractor) refresh() domain.State {
	st, err := v.service.Read()
	if err != nil {
		if domain.IsUnavailable(err) {
			logging.Debugw("input volume unavailable", "error", err)
		} else {
			logging.Warnw("refresh input volume failed", "error", err)
		}
		st = domain.SafeState
	}
	if st.Adjustable && !st.Muted() {
		v.lastAudible = st.Volume
	}
	v.publish(st)
	return st
}

func (v *volumeInteractor) publish(st domain.State) {
	v.mu.Lock()
	changed := !v.published || v.state != st
	v.state = st
	v.published = true
	var observers []func(domain.State)
	if changed {
		observers = make([]func(domain.State), 0, len(v.observers))
		for _, fn := range v.observers {
			observers = append(observers, fn)
		}
	}
	v.mu.Unlock()

	if changed {
		logging.Tracef("published state volume=%.3f adjustable=%t", st.Volume, st.Adjustable)
	}
	for _, fn := range observers {
		fn(st)
	}
}
