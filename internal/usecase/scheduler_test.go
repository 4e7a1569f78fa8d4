package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"mic-check/internal/adapter/secondary/hardware"
	"mic-check/internal/domain"
)

// memoryRepository is an in-memory domain.ConfigRepository.
type memoryRepository struct {
	mu      sync.Mutex
	config  domain.Config
	state   domain.ScheduleState
	saves   int
	saveErr error
}

func (m *memoryRepository) Load() (domain.Config, domain.ScheduleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config, m.state, nil
}

func (m *memoryRepository) Save(config domain.Config, state domain.ScheduleState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.config = config
	m.state = state
	m.saves++
	return nil
}

func newTestScheduler(t *testing.T, repo *memoryRepository, volume VolumeUseCase, now time.Time) *schedulerInteractor {
	t.Helper()
	uc, err := NewSchedulerUseCase(repo, volume, time.Second)
	if err != nil {
		t.Fatalf("NewSchedulerUseCase: %v", err)
	}
	s := uc.(*schedulerInteractor)
	s.now = func() time.Time { return now }
	return s
}

func TestNewSchedulerRejectsInvalidConfig(t *testing.T) {
	repo := &memoryRepository{config: domain.Config{TargetVolume: 2, Interval: time.Minute}}
	_, err := NewSchedulerUseCase(repo, NewVolumeUseCase(newFakeHardware(settableMain(0.5)), nil), 0)
	if !errors.Is(err, domain.ErrInvalidVolume) {
		t.Errorf("err = %v, want ErrInvalidVolume", err)
	}
}

func TestTickAppliesWhenDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hw := newFakeHardware(settableMain(0.9))
	repo := &memoryRepository{config: domain.Config{TargetVolume: 0.4, Interval: time.Minute, Enabled: true}}
	s := newTestScheduler(t, repo, NewVolumeUseCase(hw, nil), now)

	s.tick()

	snap := s.GetSnapshot()
	if snap.ScheduleState.LastApplyStatus != domain.StatusSuccess {
		t.Fatalf("status = %v, want ok", snap.ScheduleState.LastApplyStatus)
	}
	if !snap.ScheduleState.NextRun.Equal(now.Add(time.Minute)) {
		t.Errorf("NextRun = %v", snap.ScheduleState.NextRun)
	}
	if !almostEqual(snap.Device.Volume, 0.4) {
		t.Errorf("device volume = %v, want 0.4", snap.Device.Volume)
	}
	if repo.saves != 1 {
		t.Errorf("saves = %d, want 1", repo.saves)
	}

	// Not due again until NextRun: only a refresh happens.
	s.tick()
	if got := len(hw.Writes()); got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}
}

func TestTickRefreshesWhenDisabled(t *testing.T) {
	hw := newFakeHardware(settableMain(0.9))
	repo := &memoryRepository{config: domain.Config{TargetVolume: 0.4, Interval: time.Minute}}
	volume := NewVolumeUseCase(hw, nil)
	s := newTestScheduler(t, repo, volume, time.Now())

	s.tick()

	if len(hw.Writes()) != 0 {
		t.Errorf("disabled lock wrote: %+v", hw.Writes())
	}
	if !almostEqual(volume.State().Volume, 0.9) {
		t.Errorf("state = %+v, want refreshed 0.9", volume.State())
	}
}

func TestApplyNowRecordsFailure(t *testing.T) {
	hw := newFakeHardware(map[domain.PropertyElement]hardware.FakeChannel{
		domain.ElementMain: {Volume: 0.9},
	})
	repo := &memoryRepository{config: domain.Config{TargetVolume: 0.4, Interval: time.Minute}}
	s := newTestScheduler(t, repo, NewVolumeUseCase(hw, nil), time.Now())

	err := s.ApplyNow()
	if !errors.Is(err, domain.ErrNotAdjustable) {
		t.Fatalf("ApplyNow err = %v, want ErrNotAdjustable", err)
	}
	if repo.state.LastApplyStatus != domain.StatusFailed || repo.state.LastError == nil {
		t.Errorf("persisted state = %+v, want error recorded", repo.state)
	}
}

func TestUpdateConfig(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hw := newFakeHardware(settableMain(0.9))
	repo := &memoryRepository{config: domain.DefaultConfig()}
	s := newTestScheduler(t, repo, NewVolumeUseCase(hw, nil), now)

	if err := s.UpdateConfig(domain.Config{TargetVolume: 1.2, Interval: time.Minute}, false); !errors.Is(err, domain.ErrInvalidVolume) {
		t.Errorf("err = %v, want ErrInvalidVolume", err)
	}
	if err := s.UpdateConfig(domain.Config{TargetVolume: 0.5, Interval: 10 * time.Millisecond}, false); !errors.Is(err, domain.ErrInvalidInterval) {
		t.Errorf("err = %v, want ErrInvalidInterval", err)
	}

	cfg := domain.Config{TargetVolume: 0.25, Interval: 45 * time.Second, Enabled: true}
	if err := s.UpdateConfig(cfg, true); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if repo.config != cfg {
		t.Errorf("persisted config = %+v, want %+v", repo.config, cfg)
	}
	if ch, _ := hw.Channel(testDevice, domain.ElementMain); !almostEqual(float64(ch.Volume), 0.25) {
		t.Errorf("device volume = %v, want 0.25 after applyNow", ch.Volume)
	}
}

func TestUpdateConfigSaveError(t *testing.T) {
	boom := errors.New("disk full")
	repo := &memoryRepository{config: domain.DefaultConfig()}
	s := newTestScheduler(t, repo, NewVolumeUseCase(newFakeHardware(settableMain(0.5)), nil), time.Now())
	repo.saveErr = boom

	if err := s.UpdateConfig(domain.DefaultConfig(), false); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
