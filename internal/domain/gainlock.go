package domain

import "time"

// GainLock holds the rules for re-applying the locked input volume.
// It has no side effects; the scheduler owns time, storage and hardware.
type GainLock struct{}

// NewGainLock creates the gain lock rules.
func NewGainLock() *GainLock {
	return &GainLock{}
}

// Due reports whether the lock target should be written at now.
// A lock that never ran is due immediately.
func (g *GainLock) Due(state ScheduleState, config Config, now time.Time) bool {
	if !config.Enabled {
		return false
	}
	return state.NextRun.IsZero() || !now.Before(state.NextRun)
}

// NextApply is one lock interval after from.
func (g *GainLock) NextApply(from time.Time, interval time.Duration) time.Time {
	if from.IsZero() {
		from = time.Now()
	}
	return from.Add(interval)
}

// Applying marks a lock write in progress.
func (g *GainLock) Applying(state ScheduleState) ScheduleState {
	state.IsRunning = true
	return state
}

// Applied records a successful write of the target volume at appliedAt.
func (g *GainLock) Applied(config Config, appliedAt time.Time) ScheduleState {
	return ScheduleState{
		LastApplied:     appliedAt,
		LastApplyStatus: StatusSuccess,
		NextRun:         g.NextApply(appliedAt, config.Interval),
	}
}

// Failed records a failed write. The last successful write time is kept, and
// the next attempt still waits a full interval.
func (g *GainLock) Failed(state ScheduleState, config Config, err error, attemptedAt time.Time) ScheduleState {
	return ScheduleState{
		LastApplied:     state.LastApplied,
		LastApplyStatus: StatusFailed,
		LastError:       err,
		NextRun:         g.NextApply(attemptedAt, config.Interval),
	}
}

// Normalize validates config and truncates the interval to whole seconds,
// the resolution the config file stores.
func (g *GainLock) Normalize(config Config) (Config, error) {
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	config.Interval = config.Interval.Truncate(time.Second)
	return config, nil
}
