package search

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/verify"
	"github.com/radiant-core/dmint-miner/xhash"
)

// cpuDevice is the in-process reference Device: it performs the identical
// per-thread loop a real GPU kernel would, on CPU goroutines, including the
// device-side target predicate (word-compared, byte-swapped) so that it
// faithfully exercises the endianness contract even though no real device
// buffers exist. It is grounded on the reference corpus's worker-pool
// pattern (CPUMiner) generalized to the driver's dispatch shape.
type cpuDevice struct {
	preimage [64]byte // algorithm-independent; computed by the caller and cached per work
}

// NewCPUDevice builds the reference device for a fixed 64-byte preimage.
// The driver never constructs or rebuilds devices; the preimage stays the
// one given here for the device's lifetime.
func NewCPUDevice(pre [64]byte) Device {
	return &cpuDevice{preimage: pre}
}

func (d *cpuDevice) Dispatch(ctx context.Context, p DispatchParams) (DispatchResult, error) {
	if !algo.Supported(p.Config.Algorithm) {
		return DispatchResult{}, algo.ErrUnsupportedAlgorithm
	}
	hasher, err := xhash.For(p.Config.Algorithm)
	if err != nil {
		return DispatchResult{}, err
	}
	d2, err := algo.Lookup(p.Config.Algorithm)
	if err != nil {
		return DispatchResult{}, err
	}

	total := p.Workgroups * p.ThreadsPerWorkgroup
	if total <= 0 {
		return DispatchResult{}, nil
	}

	var mu sync.Mutex
	var results []Candidate

	g, gctx := errgroup.WithContext(ctx)
	const maxSlots = 128

	for wg := 0; wg < p.Workgroups; wg++ {
		wg := wg
		g.Go(func() error {
			base := p.NonceOffset + uint32(wg*p.ThreadsPerWorkgroup)
			for i := 0; i < p.ThreadsPerWorkgroup; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				nonceLo := base + uint32(i)
				var tail [8]byte
				tail[0] = byte(p.NonceHi >> 24)
				tail[1] = byte(p.NonceHi >> 16)
				tail[2] = byte(p.NonceHi >> 8)
				tail[3] = byte(p.NonceHi)
				tail[4] = byte(nonceLo >> 24)
				tail[5] = byte(nonceLo >> 16)
				tail[6] = byte(nonceLo >> 8)
				tail[7] = byte(nonceLo)

				full := append(append([]byte(nil), d.preimage[:]...), tail[:]...)
				h, err := hasher.Hash(full)
				if err != nil {
					return err
				}

				if !devicePredicate(d2.TargetFormat, h, p.Config.Target) {
					continue
				}

				mu.Lock()
				if len(results) < maxSlots {
					results = append(results, Candidate{NonceHi: p.NonceHi, NonceLo: nonceLo, Hash: h})
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return DispatchResult{}, err
	}

	return DispatchResult{Candidates: results}, nil
}

// devicePredicate emulates the on-device comparator: hash words are
// little-endian on-device, so a per-word byte-swap is required before the
// big-endian comparison the host also performs. Implemented here
// byte-wise (equivalent to the word-swap-then-compare the spec mandates)
// since the reference device has no real little-endian word buffer.
func devicePredicate(format algo.TargetFormat, h [32]byte, target verify.Target) bool {
	switch format {
	case algo.LegacyV1:
		if h[0] != 0 || h[1] != 0 || h[2] != 0 || h[3] != 0 {
			return false
		}
		v := uint64(h[4])<<56 | uint64(h[5])<<48 | uint64(h[6])<<40 | uint64(h[7])<<32 |
			uint64(h[8])<<24 | uint64(h[9])<<16 | uint64(h[10])<<8 | uint64(h[11])
		return v < target.Legacy
	default:
		for i := 0; i < 32; i++ {
			if h[i] != target.Full[i] {
				return h[i] < target.Full[i]
			}
		}
		return false
	}
}
