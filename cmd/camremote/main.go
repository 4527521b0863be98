// Command camremote turns the machine into a Bluetooth remote for Insta360
// cameras.
//
// Usage:
//
//	camremote run              # start the remote daemon
//	camremote pair             # ask the running daemon to pair
//	camremote send shutter     # press a button
//	camremote status
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	apiAddr string
)

var rootCmd = &cobra.Command{
	Use:   "camremote",
	Short: "Bluetooth remote for Insta360 cameras",
	Long: `camremote advertises as an Insta360 GPS remote, pairs with one camera,
and forwards shutter, mode, screen, sleep and wake presses to it.

"camremote run" starts the remote. The other commands talk to a running
remote over its local control API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/camremote/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", "", "control API address (default from config http.listen)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
