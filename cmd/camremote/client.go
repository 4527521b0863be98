package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/camremote/internal/config"
	"github.com/chaz8081/camremote/internal/httpapi"
	"github.com/chaz8081/camremote/internal/prefs"
	"github.com/chaz8081/camremote/internal/registry"
)

var jsonOutput bool

// setupClient resolves the API address from --addr or the config.
func setupClient() (*httpapi.Client, error) {
	addr := apiAddr
	if addr == "" {
		cfg, err := clientConfig()
		if err != nil {
			return nil, err
		}
		addr = cfg.HTTP.Listen
	}
	if addr == "" {
		return nil, fmt.Errorf("control API disabled: set http.listen in the config or pass --addr")
	}
	return httpapi.NewClient(addr), nil
}

// clientConfig loads the config without writing a default file.
func clientConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// clientCommand builds a command that makes one API call and prints the
// resulting status.
func clientCommand(use, short string, call func(context.Context, *httpapi.Client) (httpapi.StatusResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := setupClient()
			if err != nil {
				return err
			}
			st, err := call(cmd.Context(), client)
			if err != nil {
				return err
			}
			return printStatus(st)
		},
	}
}

var statusCmd = clientCommand("status", "Show the remote's state",
	func(ctx context.Context, c *httpapi.Client) (httpapi.StatusResponse, error) {
		return c.Status(ctx)
	})

var pairCmd = clientCommand("pair", "Start pairing with a camera",
	func(ctx context.Context, c *httpapi.Client) (httpapi.StatusResponse, error) {
		return c.StartPairing(ctx)
	})

var cancelCmd = clientCommand("cancel", "Cancel an active pairing session",
	func(ctx context.Context, c *httpapi.Client) (httpapi.StatusResponse, error) {
		return c.CancelPairing(ctx)
	})

var wakeCmd = clientCommand("wake", "Broadcast a wake pulse to the paired camera",
	func(ctx context.Context, c *httpapi.Client) (httpapi.StatusResponse, error) {
		return c.Command(ctx, "wake")
	})

var sendCmd = &cobra.Command{
	Use:       "send <shutter|mode|screen|sleep>",
	Short:     "Send a button press to the connected camera",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"shutter", "mode", "screen", "sleep"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := setupClient()
		if err != nil {
			return err
		}
		st, err := client.Command(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printStatus(st)
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Forget the paired camera (the remote must be stopped)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := clientConfig()
		if err != nil {
			return err
		}
		if cfg.HTTP.Listen != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Second)
			defer cancel()
			if httpapi.NewClient(cfg.HTTP.Listen).Ping(ctx) {
				return fmt.Errorf("a remote is running on %s; use \"camremote pair\" to replace the camera", cfg.HTTP.Listen)
			}
		}
		reg := registry.New(prefs.Open(cfg.Store.Path))
		if err := reg.Clear(); err != nil {
			return err
		}
		fmt.Println("Paired camera forgotten.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.AddCommand(statusCmd, pairCmd, cancelCmd, wakeCmd, sendCmd, forgetCmd)
}

func printStatus(st httpapi.StatusResponse) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	link := "disconnected"
	if st.Connected {
		link = "connected " + st.PeerAddress
	}
	fmt.Fprintf(w, "LINK\t%s\n", link)
	fmt.Fprintf(w, "PAIRING\t%s\n", st.Pairing)
	fmt.Fprintf(w, "ADVERTISING\t%s\n", st.Advertising)
	fmt.Fprintf(w, "MODE\t%s\n", st.Mode)
	if st.Camera != nil {
		fmt.Fprintf(w, "CAMERA\t%s (%s)\n", st.Camera.Name, st.Camera.Address)
	} else {
		fmt.Fprintln(w, "CAMERA\tnone")
	}
	return w.Flush()
}
