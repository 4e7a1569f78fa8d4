package domain

// ConfigRepository is a secondary port that defines how to persist the gain lock.
// This interface is defined in the domain layer and implemented by adapters.
type ConfigRepository interface {
	Load() (Config, ScheduleState, error)
	Save(config Config, state ScheduleState) error
}

// AudioHardware is a secondary port over the OS audio property interface.
// Failed calls return *StatusError carrying the OS status.
type AudioHardware interface {
	// DeviceProperty reads a property holding an object handle.
	DeviceProperty(object DeviceID, addr PropertyAddress) (DeviceID, error)
	HasProperty(object DeviceID, addr PropertyAddress) bool
	ScalarProperty(object DeviceID, addr PropertyAddress) (float32, error)
	IsPropertySettable(object DeviceID, addr PropertyAddress) (bool, error)
	SetScalarProperty(object DeviceID, addr PropertyAddress, value float32) error
}

// Dispatcher runs fn on the execution context that owns the observable state
// and returns once fn has completed.
type Dispatcher interface {
	Call(fn func())
}
