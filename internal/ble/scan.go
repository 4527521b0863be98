package ble

import "time"

// Stop retry policy for a scan whose goroutine may not have reached the
// stack's Scan call yet.
const (
	stopScanInterval = 20 * time.Millisecond
	stopScanAttempts = 10
)

// stopScanning calls stop until it succeeds and waits for done, the scan
// goroutine's exit. A scan that exits on its own while stop is failing
// counts as stopped. The last stop error is returned when attempts run out.
func stopScanning(stop func() error, done <-chan struct{}, interval time.Duration, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = stop(); err == nil {
			<-done
			return nil
		}
		select {
		case <-done:
			return nil
		case <-time.After(interval):
		}
	}
	return err
}
