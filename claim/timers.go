package claim

import "time"

const (
	subscriptionCheckInterval  = 10 * time.Second
	contractCheckSilence       = 60 * time.Second
	contractCheckAfterConflict = 10 * time.Second
)

// watchdog wraps a time.Timer the way the spec's two liveness watchdogs
// need: rearmable, stoppable, and safe to rearm from a different duration
// (the contract-check timer runs at 60s normally and 10s after a mempool
// conflict).
type watchdog struct {
	timer *time.Timer
	fire  func()
}

func newWatchdog(fire func()) *watchdog {
	return &watchdog{fire: fire}
}

// arm (re)starts the timer for d, stopping and draining any previous one.
func (w *watchdog) arm(d time.Duration) {
	w.stop()
	w.timer = time.AfterFunc(d, w.fire)
}

// stop cancels the timer if armed. Safe to call when not armed.
func (w *watchdog) stop() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
