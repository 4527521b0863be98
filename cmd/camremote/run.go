package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/chaz8081/camremote/internal/ble"
	"github.com/chaz8081/camremote/internal/bluez"
	"github.com/chaz8081/camremote/internal/config"
	"github.com/chaz8081/camremote/internal/hotkey"
	"github.com/chaz8081/camremote/internal/httpapi"
	"github.com/chaz8081/camremote/internal/input"
	"github.com/chaz8081/camremote/internal/metrics"
	"github.com/chaz8081/camremote/internal/prefs"
	"github.com/chaz8081/camremote/internal/registry"
	"github.com/chaz8081/camremote/internal/remote"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the remote",
	Long: `Start advertising as a remote. The paired camera, if any, reconnects on
its own; use "camremote pair" to pair a new one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: config.ParseLogLevel(cfg.LogLevel),
		})))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runRemote(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRemote(ctx context.Context, cfg *config.Config) error {
	printBanner(cfg)

	if runtime.GOOS == "linux" && cfg.BlueZ.PowerOn {
		if err := powerOn(cfg.BlueZ.Adapter); err != nil {
			return err
		}
	}

	reg := registry.New(prefs.Open(cfg.Store.Path))
	m := metrics.New()

	opts := remote.DefaultOptions()
	opts.Name = cfg.BroadcastName()
	opts.PairingTimeout = cfg.Pairing.Timeout
	opts.WakePulse = cfg.Wake.Pulse
	opts.AdvertiseSettle = cfg.Advertising.Settle

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl := remote.New(ble.NewPeripheral(), reg, remote.Notifiers{remote.LogNotifier{}, m}, opts)

	errc := make(chan error, 2)
	go func() { errc <- ctrl.Run(ctx) }()

	if cfg.HTTP.Listen != "" {
		go func() {
			if err := httpapi.Serve(ctx, cfg.HTTP.Listen, httpapi.NewRouter(ctrl, m.Handler())); err != nil {
				errc <- err
			}
		}()
	}

	if cfg.Input.Enabled {
		listener := hotkey.NewListener(hotkey.Bindings{
			hotkey.ButtonNext:    cfg.Input.Keys.Next,
			hotkey.ButtonRun:     cfg.Input.Keys.Run,
			hotkey.ButtonShutter: cfg.Input.Keys.Shutter,
			hotkey.ButtonSleep:   cfg.Input.Keys.Sleep,
			hotkey.ButtonWake:    cfg.Input.Keys.Wake,
		})
		router := input.NewRouter(ctrl, input.Options{
			StartupDelay: cfg.Input.StartupDelay,
			ActionDelay:  cfg.Input.ActionDelay,
		})
		go listener.Start()
		go router.Run(ctx, listener.Events())
		slog.Info("[INPUT] buttons bound", "keys", listener.Describe())
	}

	notifySystemd(daemon.SdNotifyReady)
	slog.Info("Ready", "name", cfg.BroadcastName())

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down...")
	case runErr = <-errc:
		slog.Error("remote stopped", "error", runErr)
	}
	notifySystemd(daemon.SdNotifyStopping)
	cancel()
	<-ctrl.Done()

	if runErr != nil {
		return runErr
	}
	slog.Info("Goodbye!")
	if cfg.Input.Enabled {
		// Exit directly to avoid gohook's C cleanup crash.
		// The OS reclaims the event hook on process exit.
		os.Exit(0)
	}
	return nil
}

// notifySystemd sends state to the service manager. It reports whether the
// notification was delivered; false without error means not under systemd.
func notifySystemd(state string) bool {
	ok, err := daemon.SdNotify(false, state)
	if err != nil {
		slog.Warn("sd_notify failed", "state", state, "error", err)
		return false
	}
	if ok {
		slog.Debug("notified systemd", "state", state)
	}
	return ok
}

func powerOn(name string) error {
	adapter, err := bluez.Open(name)
	if err != nil {
		return err
	}
	defer adapter.Close()
	if err := adapter.EnsurePowered(); err != nil {
		return err
	}
	if addr, err := adapter.Address(); err == nil {
		slog.Info("[BLE] adapter ready", "adapter", name, "address", addr)
	}
	return nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, writing it on first run.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg = c
	} else {
		written, err := config.WriteDefault()
		if err != nil {
			slog.Warn("could not write default config", "error", err)
		} else if written != "" {
			slog.Info("Wrote default config", "path", written)
		}

		defaultPath := config.DefaultConfigPath()
		if _, err := os.Stat(defaultPath); err == nil {
			c, err := config.Load(defaultPath)
			if err != nil {
				return nil, fmt.Errorf("config: loading %s: %w", defaultPath, err)
			}
			cfg = c
		} else {
			slog.Info("No config file found, using defaults")
			cfg = config.Default()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	api := cfg.HTTP.Listen
	if api == "" {
		api = "disabled"
	}
	fmt.Println("=== camremote ===")
	fmt.Printf("  Name:    %s\n", cfg.BroadcastName())
	fmt.Printf("  Store:   %s\n", cfg.Store.Path)
	fmt.Printf("  Pairing: %s timeout\n", cfg.Pairing.Timeout)
	fmt.Printf("  Wake:    %s pulse\n", cfg.Wake.Pulse)
	fmt.Printf("  API:     %s\n", api)
	fmt.Printf("  Input:   %t\n", cfg.Input.Enabled)
	fmt.Printf("  Log:     %s\n", cfg.LogLevel)
	fmt.Println("=================")
}
