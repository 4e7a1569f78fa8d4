package usecase

import (
	"context"
	"sync"
	"time"

	"mic-check/internal/domain"
	"mic-check/internal/logging"
)

// DefaultPollInterval is how often the scheduler re-reads the device.
const DefaultPollInterval = 2 * time.Second

// SchedulerUseCase is the primary port for gain lock operations.
// This represents the application's use cases.
type SchedulerUseCase interface {
	Start(ctx context.Context)
	GetSnapshot() domain.Snapshot
	ApplyNow() error
	UpdateConfig(config domain.Config, applyNow bool) error
}

// schedulerInteractor implements SchedulerUseCase.
// It depends only on domain layer, secondary ports and the volume use case.
type schedulerInteractor struct {
	repo   domain.ConfigRepository
	volume VolumeUseCase
	lock   *domain.GainLock
	poll   time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	config domain.Config
	state  domain.ScheduleState
}

// NewSchedulerUseCase creates a new scheduler use case.
// The loop re-reads the device every poll and applies the lock target when due.
func NewSchedulerUseCase(
	repo domain.ConfigRepository,
	volume VolumeUseCase,
	poll time.Duration,
) (SchedulerUseCase, error) {
	lock := domain.NewGainLock()

	// Load initial state
	config, state, err := repo.Load()
	if err != nil {
		return nil, err
	}

	// Validate and normalize
	config, err = lock.Normalize(config)
	if err != nil {
		return nil, err
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	return &schedulerInteractor{
		repo:   repo,
		volume: volume,
		lock:   lock,
		poll:   poll,
		now:    time.Now,
		config: config,
		state:  state,
	}, nil
}

// Start begins the scheduler loop.
func (s *schedulerInteractor) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *schedulerInteractor) loop(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	s.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick applies the lock target when due and otherwise just refreshes the device.
func (s *schedulerInteractor) tick() {
	s.mu.Lock()
	now := s.now()
	if !s.lock.Due(s.state, s.config, now) {
		s.mu.Unlock()
		s.volume.Refresh()
		return
	}

	// Mark as running
	s.state = s.lock.Applying(s.state)
	config := s.config
	s.mu.Unlock()

	logging.Debugw("gain lock due", "target", config.TargetVolume)
	_, err := s.volume.TrySetVolume(config.TargetVolume)

	s.mu.Lock()
	s.record(config, err, now)
	s.mu.Unlock()
}

// record stores the outcome of an apply. Caller holds s.mu.
func (s *schedulerInteractor) record(config domain.Config, err error, now time.Time) {
	if err != nil {
		logging.Warnw("gain lock apply failed", "target", config.TargetVolume, "error", err)
		s.state = s.lock.Failed(s.state, config, err, now)
	} else {
		logging.Infow("gain lock applied", "target", config.TargetVolume)
		s.state = s.lock.Applied(config, now)
	}
	// Persist state
	if err := s.repo.Save(s.config, s.state); err != nil {
		logging.Warnw("persist schedule state failed", "error", err)
	}
}

// GetSnapshot returns the current system state.
func (s *schedulerInteractor) GetSnapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{
		Config:        s.config,
		ScheduleState: s.state,
		Device:        s.volume.State(),
	}
}

// ApplyNow immediately applies the configured target volume.
func (s *schedulerInteractor) ApplyNow() error {
	s.mu.Lock()
	s.state = s.lock.Applying(s.state)
	config := s.config
	now := s.now()
	s.mu.Unlock()

	_, err := s.volume.TrySetVolume(config.TargetVolume)

	s.mu.Lock()
	s.record(config, err, now)
	s.mu.Unlock()

	return err
}

// UpdateConfig updates the configuration and optionally applies immediately.
func (s *schedulerInteractor) UpdateConfig(config domain.Config, applyNow bool) error {
	config, err := s.lock.Normalize(config)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.config = config
	s.state.NextRun = s.lock.NextApply(s.now(), config.Interval)
	state := s.state
	s.mu.Unlock()

	// Persist
	if err := s.repo.Save(config, state); err != nil {
		return err
	}

	if applyNow {
		return s.ApplyNow()
	}

	return nil
}
