package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"mic-check/internal/domain"
)

// Settings holds the ambient preferences stored next to the gain lock.
type Settings struct {
	Backend      string
	Addr         string
	PollInterval time.Duration
	MuteHotkey   string
	Log          LogSettings
}

// LogSettings configures the optional rotating log file.
type LogSettings struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultSettings returns the settings used when the file has none.
func DefaultSettings() Settings {
	return Settings{
		Backend:      "auto",
		Addr:         "127.0.0.1:7070",
		PollInterval: 2 * time.Second,
		MuteHotkey:   "Ctrl+Option+M",
		Log: LogSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// FileRepository implements domain.ConfigRepository using a TOML file.
// This is a secondary adapter.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a new file-based config repository.
func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	return &FileRepository{path: path}, nil
}

// Path returns the backing file path.
func (f *FileRepository) Path() string {
	return f.path
}

// persistedData represents the TOML structure on disk.
type persistedData struct {
	Lock     lockSection     `toml:"lock"`
	State    stateSection    `toml:"state"`
	Hardware hardwareSection `toml:"hardware"`
	Server   serverSection   `toml:"server"`
	Hotkey   hotkeySection   `toml:"hotkey"`
	Log      logSection      `toml:"log"`
}

type lockSection struct {
	TargetVolume    float64 `toml:"target_volume"`
	IntervalSeconds int     `toml:"interval_seconds"`
	Enabled         bool    `toml:"enabled"`
}

type stateSection struct {
	LastApplied     string `toml:"last_applied,omitempty"`
	LastApplyStatus string `toml:"last_apply_status"`
	LastError       string `toml:"last_error,omitempty"`
}

type hardwareSection struct {
	Backend             string `toml:"backend"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

type serverSection struct {
	Addr string `toml:"addr"`
}

type hotkeySection struct {
	ToggleMute string `toml:"toggle_mute"`
}

type logSection struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

func defaultData() persistedData {
	cfg := domain.DefaultConfig()
	st := DefaultSettings()
	return persistedData{
		Lock: lockSection{
			TargetVolume:    cfg.TargetVolume,
			IntervalSeconds: int(cfg.Interval.Seconds()),
			Enabled:         cfg.Enabled,
		},
		State:    stateSection{LastApplyStatus: domain.StatusNever.String()},
		Hardware: hardwareSection{Backend: st.Backend, PollIntervalSeconds: int(st.PollInterval.Seconds())},
		Server:   serverSection{Addr: st.Addr},
		Hotkey:   hotkeySection{ToggleMute: st.MuteHotkey},
		Log: logSection{
			MaxSizeMB:  st.Log.MaxSizeMB,
			MaxBackups: st.Log.MaxBackups,
			MaxAgeDays: st.Log.MaxAgeDays,
		},
	}
}

// read decodes the file over the defaults. Caller holds f.mu.
func (f *FileRepository) read() (persistedData, error) {
	data := defaultData()
	if _, err := toml.DecodeFile(f.path, &data); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultData(), nil
		}
		return persistedData{}, fmt.Errorf("read config: %w", err)
	}
	return data, nil
}

// Load reads the configuration and state from disk.
func (f *FileRepository) Load() (domain.Config, domain.ScheduleState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	persisted, err := f.read()
	if err != nil {
		return domain.Config{}, domain.ScheduleState{}, err
	}

	// Convert to domain models
	config := domain.Config{
		TargetVolume: persisted.Lock.TargetVolume,
		Interval:     time.Duration(persisted.Lock.IntervalSeconds) * time.Second,
		Enabled:      persisted.Lock.Enabled,
	}

	// Apply defaults if necessary
	if config.Interval <= 0 {
		config.Interval = domain.DefaultConfig().Interval
	}

	state := domain.ScheduleState{
		LastApplyStatus: domain.ParseApplyStatus(persisted.State.LastApplyStatus),
	}

	if persisted.State.LastApplied != "" {
		if t, err := time.Parse(time.RFC3339, persisted.State.LastApplied); err == nil {
			state.LastApplied = t
		}
	}

	if persisted.State.LastError != "" {
		state.LastError = errors.New(persisted.State.LastError)
	}

	return config, state, nil
}

// Settings reads the ambient preferences, filling gaps with defaults.
func (f *FileRepository) Settings() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	persisted, err := f.read()
	if err != nil {
		return Settings{}, err
	}
	def := DefaultSettings()
	st := Settings{
		Backend:      persisted.Hardware.Backend,
		Addr:         persisted.Server.Addr,
		PollInterval: time.Duration(persisted.Hardware.PollIntervalSeconds) * time.Second,
		MuteHotkey:   persisted.Hotkey.ToggleMute,
		Log: LogSettings{
			File:       persisted.Log.File,
			MaxSizeMB:  persisted.Log.MaxSizeMB,
			MaxBackups: persisted.Log.MaxBackups,
			MaxAgeDays: persisted.Log.MaxAgeDays,
		},
	}
	if st.Backend == "" {
		st.Backend = def.Backend
	}
	if st.Addr == "" {
		st.Addr = def.Addr
	}
	if st.PollInterval <= 0 {
		st.PollInterval = def.PollInterval
	}
	return st, nil
}

// Save persists the configuration and state to disk, keeping other sections.
func (f *FileRepository) Save(config domain.Config, state domain.ScheduleState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	persisted, err := f.read()
	if err != nil {
		return err
	}

	persisted.Lock = lockSection{
		TargetVolume:    config.TargetVolume,
		IntervalSeconds: int(config.Interval.Seconds()),
		Enabled:         config.Enabled,
	}
	persisted.State = stateSection{
		LastApplyStatus: state.LastApplyStatus.String(),
	}

	if !state.LastApplied.IsZero() {
		persisted.State.LastApplied = state.LastApplied.Format(time.RFC3339)
	}

	if state.LastError != nil {
		persisted.State.LastError = state.LastError.Error()
	}

	return f.write(persisted)
}

// write replaces the file atomically. Caller holds f.mu.
func (f *FileRepository) write(persisted persistedData) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".mic-check-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(persisted); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename tmp: %w", err)
	}

	return nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, "mic-check-config.toml")
	}
	return filepath.Join(home, ".config", "mic-check", "config.toml")
}
