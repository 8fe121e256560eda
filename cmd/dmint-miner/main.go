// Command dmint-miner mines dMint UTXO contracts: it watches a contract
// reference, searches for a nonce satisfying the current target, and
// broadcasts a claim transaction that advances the contract to its next
// state. Signing, key management, and chain/wallet transport are supplied
// by adapters this binary does not implement.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/radiant-core/dmint-miner/adapter"
	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/claim"
	"github.com/radiant-core/dmint-miner/config"
	"github.com/radiant-core/dmint-miner/contract"
	"github.com/radiant-core/dmint-miner/daa"
	"github.com/radiant-core/dmint-miner/kvstore"
	"github.com/radiant-core/dmint-miner/metadata"
	"github.com/radiant-core/dmint-miner/obslog"
	"github.com/radiant-core/dmint-miner/search"
	"github.com/radiant-core/dmint-miner/verify"
)

// errNoAdapterWired is returned by the default factory functions below: this
// binary ships with no concrete ChainGateway/Wallet, by design (spec scope
// keeps signing and transport out of this module). A real deployment
// overrides newChainGatewayFn/newWalletFn at build time with a transport-
// specific implementation.
var errNoAdapterWired = errors.New("dmint-miner: no chain gateway/wallet adapter wired into this build")

// newChainGatewayFn and newWalletFn are injectable for testing, in the same
// spirit as the teacher's newMinerFn/newSyncEngineFn package-level function
// variables in cmd/rubin-node.
var newChainGatewayFn = func(cfg config.Config) (adapter.ChainGateway, error) {
	return nil, errNoAdapterWired
}

var newWalletFn = func(cfg config.Config) (adapter.Wallet, error) {
	return nil, errNoAdapterWired
}

const (
	exitOK                   = 0
	exitConfigInvalid        = 1
	exitUnsupportedAlgorithm = 2
	exitDeviceUnavailable    = 3
	exitInterrupted          = 130
)

// metricsLogInterval is how often logMetrics snapshots and logs the search
// driver's hash rate and the coordinator's accepted/rejected counters.
const metricsLogInterval = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return exitConfigInvalid
	}

	log := obslog.New(stdout, cfg.LogLevel)

	if _, err := algo.Lookup(cfg.Algorithm); err != nil || !algo.Supported(cfg.Algorithm) {
		fmt.Fprintf(stderr, "unsupported algorithm %v\n", cfg.Algorithm)
		return exitUnsupportedAlgorithm
	}

	kv, err := kvstore.Open(filepath.Join(cfg.DataDir, "cache.db"))
	if err != nil {
		fmt.Fprintf(stderr, "cache open failed: %v\n", err)
		return exitConfigInvalid
	}
	defer kv.Close()

	gw, err := newChainGatewayFn(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "chain gateway unavailable: %v\n", err)
		return exitDeviceUnavailable
	}
	wallet, err := newWalletFn(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "wallet unavailable: %v\n", err)
		return exitDeviceUnavailable
	}

	var contractRef [36]byte
	refBytes, err := hex.DecodeString(cfg.ContractRef)
	if err != nil || len(refBytes) != 36 {
		fmt.Fprintf(stderr, "invalid contract-ref: %v\n", err)
		return exitConfigInvalid
	}
	copy(contractRef[:], refBytes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state, err := loadInitialState(ctx, gw, kv, contractRef, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "initial state load failed: %v\n", err)
		return exitDeviceUnavailable
	}

	driver := search.NewDriver(log, cfg.Threads, cfg.WorkgroupHint)
	coord := claim.NewCoordinator(log, gw, wallet, driver, func(msg string) {
		fmt.Fprintf(stdout, "stopped: %s\n", msg)
	})
	coord.SetContractState(state)

	initialWork := engineWork(state)
	driver.SetWork(initialWork)
	dev := search.NewCPUDevice(initialWork.Preimage())

	if err := coord.EnableMining(state.Reward / 100); err != nil {
		fmt.Fprintf(stderr, "cannot start mining: %v\n", err)
		return exitConfigInvalid
	}

	coordDone := make(chan struct{})
	go func() {
		coord.Run(ctx)
		close(coordDone)
	}()

	metricsDone := make(chan struct{})
	go func() {
		logMetrics(ctx, log, driver, coord)
		close(metricsDone)
	}()

	fmt.Fprintln(stdout, "dmint-miner running")
	err = driver.Run(ctx, dev)
	<-coordDone
	<-metricsDone

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stdout, "dmint-miner stopped (interrupted)")
		return exitInterrupted
	}
	if err != nil {
		fmt.Fprintf(stderr, "search driver stopped: %v\n", err)
	}
	return exitOK
}

// loadInitialState resolves the contract's current on-chain location and
// parses its state, caching the raw transaction in kv. Token metadata CBOR
// already cached in kv, when present, selects the algorithm; the DAA mode
// always comes from cfg.
func loadInitialState(ctx context.Context, gw adapter.ChainGateway, kv *kvstore.Store, ref [36]byte, cfg config.Config) (claim.ContractState, error) {
	_, current, err := gw.FetchRef(ctx, ref)
	if err != nil {
		return claim.ContractState{}, fmt.Errorf("fetch ref: %w", err)
	}

	rawTx, err := gw.FetchTx(ctx, current.Txid, false)
	if err != nil {
		return claim.ContractState{}, fmt.Errorf("fetch tx: %w", err)
	}
	_ = kv.PutTx(current.Txid, rawTx)

	script, _, err := claim.LocateOutput(rawTx, current.Output)
	if err != nil {
		return claim.ContractState{}, fmt.Errorf("locate output: %w", err)
	}

	parsed, err := contract.Parse(script, ref)
	if err != nil {
		return claim.ContractState{}, fmt.Errorf("parse contract state: %w", err)
	}

	algoID := cfg.Algorithm
	if rawMeta, ok, _ := kv.GetTokenMetadata(parsed.TokenRef); ok {
		if m, err := metadata.Decode(rawMeta); err == nil && m.Dmint != nil {
			algoID = algo.AlgoID(m.EffectiveAlgo())
		}
	}

	format := algo.LegacyV1
	if d, err := algo.Lookup(algoID); err == nil {
		format = d.TargetFormat
	}

	return claim.ContractState{
		ContractRef:  ref,
		TokenRef:     parsed.TokenRef,
		Height:       parsed.Height,
		MaxHeight:    parsed.MaxHeight,
		Reward:       parsed.Reward,
		AlgoID:       algoID,
		Location:     current,
		InputScript:  script,
		OutputScript: contract.BuildMessageOutput(cfg.MintMessage),
		Daa: daa.State{
			Mode: cfg.DaaMode,
			// parsed.Target is the on-chain comparand, not a difficulty;
			// invert it so the DAA engine's own difficulty space and a
			// later DifficultyToTarget round-trip agree with the chain.
			Difficulty: algo.TargetToDifficulty(format, parsed.Target),
		},
	}, nil
}

// engineWork builds the initial search.Work for state, mirroring
// claim.Coordinator's own nextWork derivation for consistency.
func engineWork(state claim.ContractState) search.Work {
	format := algo.LegacyV1
	if d, err := algo.Lookup(state.AlgoID); err == nil {
		format = d.TargetFormat
	}
	legacy, full := algo.DifficultyToTarget(format, state.Daa.Difficulty)
	return search.Work{
		Txid:         state.Location.Txid,
		ContractRef:  state.ContractRef,
		InputScript:  state.InputScript,
		OutputScript: state.OutputScript,
		Algorithm:    state.AlgoID,
		Target: verify.Target{
			Legacy: legacy,
			Full:   full,
			Format: format,
		},
	}
}

// logMetrics periodically snapshots the search driver's hash-rate estimate
// and the claim coordinator's accepted/rejected counters, logging them
// until ctx is cancelled.
func logMetrics(ctx context.Context, log zerolog.Logger, driver *search.Driver, coord *claim.Coordinator) {
	ticker := time.NewTicker(metricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			accepted, rejected := coord.Counters()
			log.Info().
				Float64("hash_rate", driver.HashRate()).
				Uint64("accepted", accepted).
				Uint64("rejected", rejected).
				Msg("mining status")
		}
	}
}
