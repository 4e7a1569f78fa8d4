package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestGainLockDue(t *testing.T) {
	lock := NewGainLock()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	enabled := Config{TargetVolume: 0.5, Interval: time.Minute, Enabled: true}

	tests := []struct {
		name   string
		state  ScheduleState
		config Config
		want   bool
	}{
		{"disabled", ScheduleState{}, Config{TargetVolume: 0.5, Interval: time.Minute}, false},
		{"never run", ScheduleState{}, enabled, true},
		{"due", ScheduleState{NextRun: now.Add(-time.Second)}, enabled, true},
		{"exactly due", ScheduleState{NextRun: now}, enabled, true},
		{"not yet", ScheduleState{NextRun: now.Add(time.Second)}, enabled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lock.Due(tt.state, tt.config, now); got != tt.want {
				t.Errorf("Due = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestGainLockOutcome(t *testing.T) {
	lock := NewGainLock()
	cfg := Config{TargetVolume: 0.5, Interval: 30 * time.Second, Enabled: true}
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if !lock.Applying(ScheduleState{}).IsRunning {
		t.Error("Applying should mark the lock in progress")
	}
	st := lock.Applied(cfg, first)
	if st.LastApplyStatus != StatusSuccess || st.IsRunning || !st.LastApplied.Equal(first) {
		t.Fatalf("unexpected success state: %+v", st)
	}
	if !st.NextRun.Equal(first.Add(30 * time.Second)) {
		t.Errorf("NextRun = %v", st.NextRun)
	}

	later := first.Add(time.Minute)
	boom := errors.New("boom")
	st = lock.Failed(st, cfg, boom, later)
	if st.LastApplyStatus != StatusFailed || !errors.Is(st.LastError, boom) {
		t.Fatalf("unexpected failure state: %+v", st)
	}
	if !st.LastApplied.Equal(first) {
		t.Error("failure should keep the previous success time")
	}
	if !st.NextRun.Equal(later.Add(30 * time.Second)) {
		t.Errorf("NextRun = %v", st.NextRun)
	}
}

func TestGainLockNormalize(t *testing.T) {
	lock := NewGainLock()
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"ok", Config{TargetVolume: 0.3, Interval: 1500 * time.Millisecond}, nil},
		{"negative volume", Config{TargetVolume: -0.1, Interval: time.Minute}, ErrInvalidVolume},
		{"volume above 1", Config{TargetVolume: 1.01, Interval: time.Minute}, ErrInvalidVolume},
		{"nan volume", Config{TargetVolume: math.NaN(), Interval: time.Minute}, ErrInvalidVolume},
		{"short interval", Config{TargetVolume: 0.5, Interval: 500 * time.Millisecond}, ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lock.Normalize(tt.config)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got.Interval != time.Second {
				t.Errorf("Interval = %v, want 1s", got.Interval)
			}
		})
	}
}

func TestParseApplyStatus(t *testing.T) {
	// Persisted files store the failed status as "error".
	if StatusFailed.String() != "error" || ParseApplyStatus("error") != StatusFailed {
		t.Errorf("StatusFailed round trip through %q broken", StatusFailed.String())
	}
	for _, s := range []ApplyStatus{StatusNever, StatusSuccess, StatusFailed} {
		if got := ParseApplyStatus(s.String()); got != s {
			t.Errorf("ParseApplyStatus(%q) = %v, want %v", s.String(), got, s)
		}
	}
}
