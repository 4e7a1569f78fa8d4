package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mic-check/internal/adapter/primary/hotkey"
	"mic-check/internal/adapter/primary/tui"
	"mic-check/internal/adapter/primary/web"
	"mic-check/internal/adapter/secondary/hardware"
	"mic-check/internal/adapter/secondary/repository"
	"mic-check/internal/domain"
	"mic-check/internal/logging"
	"mic-check/internal/usecase"
)

var (
	cfgPath   string
	verbosity int
	backend   string

	dispatcher domain.Dispatcher = usecase.InlineDispatcher{}
)

// SetDispatcher sets the context refresh/set operations run on.
// main installs the main-thread dispatcher; tests keep the inline default.
func SetDispatcher(d domain.Dispatcher) {
	dispatcher = d
}

// app bundles the wired adapters for one command invocation.
type app struct {
	repo      *repository.FileRepository
	settings  repository.Settings
	volume    usecase.VolumeUseCase
	scheduler usecase.SchedulerUseCase
}

func newApp() (*app, error) {
	repo, err := repository.NewFileRepository(cfgPath)
	if err != nil {
		return nil, err
	}
	settings, err := repo.Settings()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		settings.Backend = backend
	}
	hw, err := hardware.New(settings.Backend)
	if err != nil {
		return nil, err
	}
	logging.Debugw("audio backend selected", "backend", settings.Backend)

	volume := usecase.NewVolumeUseCase(hw, dispatcher)
	scheduler, err := usecase.NewSchedulerUseCase(repo, volume, settings.PollInterval)
	if err != nil {
		return nil, err
	}
	return &app{repo: repo, settings: settings, volume: volume, scheduler: scheduler}, nil
}

// NewRootCmd creates the root CLI command.
// This is the primary adapter that translates CLI inputs to use case calls.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mic-check",
		Short:         "Show and adjust the macOS default microphone input volume",
		Long:          "Reads and writes the input volume of the default input device, with a gain lock, web UI, terminal slider and mute hotkey.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", repository.DefaultPath(), "config file path")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase logging (-v, -vv, ... up to 4)")
	cmd.PersistentFlags().StringVar(&backend, "backend", "", "audio backend: "+strings.Join(hardware.Backends, "|")+" (default from config)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.SetVerbosity(verbosity)
		return nil
	}

	cmd.AddCommand(
		newStatusCmd(),
		newSetCmd(),
		newMuteCmd(),
		newWatchCmd(),
		newTUICmd(),
		newDaemonCmd(),
		newWebCmd(),
		newServeCmd(),
		newConfigCmd(),
		newApplyCmd(),
		newShellCmd(),
	)

	return cmd
}

// setupLogFile enables the rotating log file for long running commands.
func setupLogFile(s repository.Settings) {
	if s.Log.File == "" {
		return
	}
	logging.SetFile(logging.FileConfig{
		Path:       s.Log.File,
		MaxSizeMB:  s.Log.MaxSizeMB,
		MaxBackups: s.Log.MaxBackups,
		MaxAgeDays: s.Log.MaxAgeDays,
	})
}

// ParseVolume accepts "0.5", "50%" or "-5". Values are not clamped here.
func ParseVolume(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percentage %q", s)
		}
		return v / 100, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q (use 0-1 or N%%)", s)
	}
	return v, nil
}

func formatState(st domain.State) string {
	mode := "adjustable"
	if !st.Adjustable {
		mode = "read-only"
	}
	return fmt.Sprintf("%s %3d%% (%s)", st.Icon(), st.Percent(), mode)
}

func printState(w io.Writer, st domain.State, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, formatState(st))
		return err
	}
	out, err := json.Marshal(map[string]any{
		"volume":     st.Volume,
		"adjustable": st.Adjustable,
		"icon":       st.Icon(),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current input volume and whether it can be changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), a.volume.Refresh(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSetCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "set <volume>",
		Short: "Set the input volume (0-1 or N%); out of range values are clamped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := ParseVolume(args[0])
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			st, err := a.volume.TrySetVolume(v)
			if errors.Is(err, domain.ErrNotAdjustable) {
				fmt.Fprintln(cmd.ErrOrStderr(), "input volume is read-only on this device; nothing written")
			} else if err != nil {
				logging.Warnw("set input volume failed", "error", err)
			}
			return printState(cmd.OutOrStdout(), st, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newMuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mute",
		Short: "Toggle between zero and the last audible input volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), a.volume.ToggleMute(), false)
		},
	}
}

func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the device and print every state change",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.settings.PollInterval
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			cancel := a.volume.Subscribe(func(st domain.State) {
				printState(out, st, asJSON)
			})
			defer cancel()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			a.volume.Refresh()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					a.volume.Refresh()
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON lines")
	return cmd
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal slider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			// Console logs would tear the TUI; keep only the file sink.
			logging.SetOutput(io.Discard)
			setupLogFile(a.settings)
			defer logging.SetOutput(os.Stderr)
			return tui.Run(a.volume)
		},
	}
}

// startHotkey registers the mute hotkey when configured and supported.
func startHotkey(ctx context.Context, a *app) {
	if a.settings.MuteHotkey == "" {
		return
	}
	listener, err := hotkey.New(a.settings.MuteHotkey)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupported) {
			logging.Debugw("mute hotkey not available", "error", err)
		} else {
			logging.Warnw("invalid mute hotkey", "hotkey", a.settings.MuteHotkey, "error", err)
		}
		return
	}
	go func() {
		logging.Infow("mute hotkey registered", "hotkey", listener.KeyName())
		err := listener.Start(ctx, func() {
			st := a.volume.ToggleMute()
			logging.Infow("mute toggled", "volume", st.Volume, "muted", st.Muted())
		})
		if err != nil && ctx.Err() == nil {
			logging.Warnw("hotkey listener stopped", "error", err)
		}
	}()
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the gain lock and mute hotkey only (no web server)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			setupLogFile(a.settings)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "mic-check daemon started")
			logging.Infof("Scheduler daemon started")
			a.scheduler.Start(ctx)
			startHotkey(ctx, a)

			<-ctx.Done()
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon shutting down...")
			return nil
		},
	}
}

func runServer(cmd *cobra.Command, a *app, addr string, withScheduler bool) error {
	if addr == "" {
		addr = a.settings.Addr
	}
	setupLogFile(a.settings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if withScheduler {
		a.scheduler.Start(ctx)
		startHotkey(ctx, a)
	} else {
		a.volume.Refresh()
	}

	srv := web.NewServer(a.volume, a.scheduler, addr)
	fmt.Fprintf(cmd.OutOrStdout(), "mic-check UI running at http://%s\n", addr)
	logging.Infow("web UI listening", "addr", addr, "scheduler", withScheduler)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newWebCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Run the web UI and REST API only (no gain lock)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return runServer(cmd, a, addr, false)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI, the gain lock and the mute hotkey",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return runServer(cmd, a, addr, true)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the gain lock configuration",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the gain lock configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.NewFileRepository(cfgPath)
			if err != nil {
				return err
			}
			config, state, err := repo.Load()
			if err != nil {
				return err
			}
			settings, err := repo.Settings()
			if err != nil {
				return err
			}

			// Convert to display format
			display := map[string]any{
				"targetVolume":    config.TargetVolume,
				"intervalSeconds": int(config.Interval.Seconds()),
				"enabled":         config.Enabled,
				"lastApplyStatus": state.LastApplyStatus.String(),
				"backend":         settings.Backend,
				"addr":            settings.Addr,
				"muteHotkey":      settings.MuteHotkey,
			}
			if !state.LastApplied.IsZero() {
				display["lastApplied"] = state.LastApplied.Format(time.RFC3339)
			}
			if state.LastError != nil {
				display["lastError"] = state.LastError.Error()
			}

			out, _ := json.MarshalIndent(display, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var (
		targetFlag   string
		intervalFlag time.Duration
		enabledFlag  string
		applyNow     bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the gain lock (and optionally apply it right away)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			config := a.scheduler.GetSnapshot().Config

			if cmd.Flags().Changed("target") {
				v, err := ParseVolume(targetFlag)
				if err != nil {
					return err
				}
				config.TargetVolume = v
			}
			if cmd.Flags().Changed("interval") {
				config.Interval = intervalFlag
			}
			if cmd.Flags().Changed("enabled") {
				switch enabledFlag {
				case "true":
					config.Enabled = true
				case "false":
					config.Enabled = false
				default:
					return errors.New("--enabled takes true or false")
				}
			}

			if err := a.scheduler.UpdateConfig(config, applyNow); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved: target=%.2f interval=%s enabled=%t\n",
				config.TargetVolume, config.Interval, config.Enabled)
			if applyNow {
				fmt.Fprintln(cmd.OutOrStdout(), "applied")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetFlag, "target", "0.5", "lock target volume (0-1 or N%)")
	cmd.Flags().DurationVar(&intervalFlag, "interval", time.Minute, "re-apply interval, e.g. 45s, 2m")
	cmd.Flags().StringVar(&enabledFlag, "enabled", "", "true/false to turn the gain lock on or off")
	cmd.Flags().BoolVar(&applyNow, "apply-now", false, "apply the target right after saving")
	return cmd
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the gain lock target once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "applying...")
			if err := a.scheduler.ApplyNow(); err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), a.volume.State(), false)
		},
	}
}
