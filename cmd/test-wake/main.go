// Command test-wake is a manual test for the wake broadcast.
// It advertises normally, switches to the wake advertisement for one pulse,
// then switches back. Watch with a BLE scanner or an asleep camera nearby.
//
// Usage:
//
//	go run ./cmd/test-wake --name "X5 ABC123" [--pulse 3s]
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/chaz8081/camremote/internal/ble"
	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/config"
	"github.com/chaz8081/camremote/internal/remote"
)

func main() {
	name := flag.String("name", "", "camera name to derive the wake payload from, e.g. \"X5 ABC123\"")
	pulse := flag.Duration("pulse", 3*time.Second, "how long to broadcast the wake advertisement")
	flag.Parse()

	payload, err := protocol.WakePayloadFromName(*name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	cfg := config.Default()
	radio := ble.NewPeripheral()
	if err := radio.Enable(ble.HandlerFunc(func(ev ble.Event) {
		fmt.Printf("event: %+v\n", ev)
	})); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	adv := remote.NewAdvertiser(radio, remote.SystemClock{}, cfg.BroadcastName(), cfg.Advertising.Settle)
	if err := adv.EnterNormal(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Advertising as %q, waking in 2 seconds...\n", cfg.BroadcastName())
	time.Sleep(2 * time.Second)

	fmt.Printf("Wake payload % x for %s\n", payload, *pulse)
	if err := adv.EnterWake(payload); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	time.Sleep(*pulse)

	if err := adv.EnterNormal(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if err := adv.Stop(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\nDone!")
}
