package search

import (
	"context"

	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/preimage"
	"github.com/radiant-core/dmint-miner/verify"
)

// DeviceConfig is written to the device's read-only buffers once per work
// change: midstate and target. The device never mutates these; the driver
// rewrites them only between dispatches (the `change` status transition).
type DeviceConfig struct {
	Algorithm algo.AlgoID
	Midstate  preimage.Midstate
	Target    verify.Target
}

// DispatchParams describes one device dispatch: W workgroups of S threads
// each, starting at NonceOffset. Thread i computes nonce = NonceOffset + i.
type DispatchParams struct {
	Config              DeviceConfig
	NonceHi             uint32 // the fixed upper 32 bits for this dispatch
	NonceOffset         uint32 // base nonce_lo for this dispatch
	Workgroups          int    // W
	ThreadsPerWorkgroup int    // S
}

// DispatchResult is what the driver reads back after a dispatch: the raw
// slots the device's atomic result buffer filled (flag=1 slots only,
// already capped at the buffer's N ≥ 128 capacity).
type DispatchResult struct {
	Candidates []Candidate
}

// Device is the data-parallel search backend the driver dispatches against.
// The only shipped implementation in this repository is CPU-backed
// (cpuDevice); a real GPU backend (CUDA/OpenCL/wgpu) implements this same
// interface and nothing else in the package changes — see DESIGN.md.
type Device interface {
	// Dispatch runs exactly one W×S sweep and returns every candidate that
	// passed the device-side predicate (word-compared, byte-swapped per
	// the endianness rules in spec.md §4.D). Dispatch must await the
	// device queue; it never busy-waits.
	Dispatch(ctx context.Context, params DispatchParams) (DispatchResult, error)
}
