// Command test-hotkey is a manual test for the global button bindings.
// Run it, then press the default combos to see button events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaz8081/camremote/internal/config"
	"github.com/chaz8081/camremote/internal/hotkey"
)

func main() {
	keys := config.Default().Input.Keys
	listener := hotkey.NewListener(hotkey.Bindings{
		hotkey.ButtonNext:    keys.Next,
		hotkey.ButtonRun:     keys.Run,
		hotkey.ButtonShutter: keys.Shutter,
		hotkey.ButtonSleep:   keys.Sleep,
		hotkey.ButtonWake:    keys.Wake,
	})
	fmt.Printf("Listening for %s\n", listener.Describe())
	fmt.Println("Press Ctrl+C to exit.")

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Read events
	go func() {
		for ev := range listener.Events() {
			fmt.Printf(">>> %s\n", ev.Button)
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}
