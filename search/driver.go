package search

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/radiant-core/dmint-miner/preimage"
	"github.com/radiant-core/dmint-miner/verify"
)

// Status is the driver's cooperative state, set by the coordinator and
// observed by the dispatch loop between dispatches.
type Status int

const (
	StatusReady Status = iota
	StatusMining
	StatusChange
	StatusStop
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusMining:
		return "mining"
	case StatusChange:
		return "change"
	case StatusStop:
		return "stop"
	default:
		return "unknown"
	}
}

// defaultThreadsPerWorkgroup is S in spec terms.
const defaultThreadsPerWorkgroup = 256

var errDriverStopped = errors.New("search: driver stopped")

// Driver runs the cooperative dispatch loop against a Device: it owns
// nonce_offset bookkeeping, the midstate/target rewrite on `change`, and
// the hash-rate EMA. Exactly one loop runs per Driver; SetWork/SetStatus
// are safe to call from the coordinator goroutine concurrently with the
// loop.
type Driver struct {
	log zerolog.Logger

	mu     sync.Mutex
	status Status
	work   Work

	workgroups int
	threads    int

	nonceHi     uint32
	nonceOffset uint32

	rate *hashrateEstimator

	candidates chan Candidate
}

// NewDriver builds a Driver. workgroups*threads is the per-dispatch sweep
// width W*S; threads defaults to 256 when zero.
func NewDriver(log zerolog.Logger, workgroups, threads int) *Driver {
	if threads <= 0 {
		threads = defaultThreadsPerWorkgroup
	}
	if workgroups <= 0 {
		workgroups = 1
	}
	return &Driver{
		log:        log.With().Str("component", "search.driver").Logger(),
		status:     StatusReady,
		workgroups: workgroups,
		threads:    threads,
		rate:       newHashrateEstimator(),
		candidates: make(chan Candidate, 64),
	}
}

// Candidates returns the channel the coordinator reads verified-by-device
// nonces from. The driver never closes it; the caller stops reading once
// the loop has returned.
func (d *Driver) Candidates() <-chan Candidate {
	return d.candidates
}

// HashRate returns the current EMA estimate in hashes/sec.
func (d *Driver) HashRate() float64 {
	return d.rate.value()
}

// SetWork installs new work and requests a `change`: the dispatch loop
// rewrites its midstate/target in place without restarting the device,
// then resumes as `mining`. Calling SetWork while stopped leaves status
// untouched; Run will pick up the work on the next Start.
func (d *Driver) SetWork(w Work) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.work = w
	d.nonceHi = 0
	d.nonceOffset = 0
	if d.status != StatusStop && d.status != StatusReady {
		d.status = StatusChange
	}
}

// Start transitions a `ready` driver to `mining`. It does not check whether
// Work has been installed; with none, the loop mines the zero Work.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == StatusReady {
		d.status = StatusMining
	}
}

// Stop requests cancellation. The loop observes `stop` within one
// dispatch interval, discards any in-flight dispatch's results, and
// transitions to `ready`.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != StatusReady {
		d.status = StatusStop
	}
	d.rate.reset()
}

func (d *Driver) currentStatus() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Driver) snapshotWork() Work {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.work
}

// Run drives dev against the installed Work until ctx is cancelled or the
// coordinator sets status to `stop`. It blocks; callers run it in its own
// goroutine.
func (d *Driver) Run(ctx context.Context, dev Device) error {
	for {
		select {
		case <-ctx.Done():
			d.setReady()
			return ctx.Err()
		default:
		}

		switch d.currentStatus() {
		case StatusStop:
			d.setReady()
			return errDriverStopped
		case StatusReady:
			time.Sleep(10 * time.Millisecond)
			continue
		case StatusChange:
			d.mu.Lock()
			d.status = StatusMining
			d.mu.Unlock()
			continue
		case StatusMining:
			if err := d.dispatchOnce(ctx, dev); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					d.setReady()
					return err
				}
				d.log.Error().Err(err).Msg("dispatch failed")
				d.setReady()
				return err
			}
		}
	}
}

func (d *Driver) setReady() {
	d.mu.Lock()
	d.status = StatusReady
	d.mu.Unlock()
}

// dispatchOnce runs one W*S sweep, advances nonce_offset (wrapping
// nonce_hi on nonce_lo overflow), folds the elapsed time into the
// hash-rate estimator, and forwards any accepted candidates. A `stop`
// observed mid-dispatch still lets the in-flight dispatch finish, but its
// results are discarded per the cancellation contract.
func (d *Driver) dispatchOnce(ctx context.Context, dev Device) error {
	w := d.snapshotWork()

	d.mu.Lock()
	nonceHi := d.nonceHi
	nonceOffset := d.nonceOffset
	workgroups := d.workgroups
	threads := d.threads
	d.mu.Unlock()

	pre := w.Preimage()
	midstate, err := preimage.Compute(w.Algorithm, pre)
	if err != nil {
		return err
	}

	params := DispatchParams{
		Config: DeviceConfig{
			Algorithm: w.Algorithm,
			Midstate:  midstate,
			Target:    w.Target,
		},
		NonceHi:             nonceHi,
		NonceOffset:         nonceOffset,
		Workgroups:          workgroups,
		ThreadsPerWorkgroup: threads,
	}

	start := time.Now()
	result, err := dev.Dispatch(ctx, params)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	sweep := uint64(workgroups) * uint64(threads)
	d.rate.sample(sweep, elapsed)

	if d.currentStatus() == StatusStop {
		return nil
	}

	// Devices fill result slots in completion order; forward candidates in
	// (nonce_hi, nonce_lo) order.
	sort.Slice(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Less(result.Candidates[j])
	})

	for _, c := range result.Candidates {
		ok, h, verr := verify.Verify(w.Algorithm, pre, c.NonceHi, c.NonceLo, w.Target)
		if verr != nil {
			d.log.Warn().Err(verr).Msg("host verify error for device candidate")
			continue
		}
		if !ok {
			d.log.Debug().Msg("device false positive discarded")
			continue
		}
		c.Hash = h
		select {
		case d.candidates <- c:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.mu.Lock()
	next := uint64(nonceOffset) + sweep
	if next > 0xFFFF_FFFF {
		d.nonceHi = nonceHi + 1
		d.nonceOffset = uint32(next - 0x1_0000_0000)
	} else {
		d.nonceOffset = uint32(next)
	}
	d.mu.Unlock()

	return nil
}
