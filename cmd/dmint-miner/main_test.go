package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/radiant-core/dmint-miner/adapter"
	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/config"
	"github.com/radiant-core/dmint-miner/contract"
	"github.com/radiant-core/dmint-miner/kvstore"
)

// fakeGateway is a minimal adapter.ChainGateway test double returning a
// single fixed contract state wrapped in a hand-built raw transaction.
type fakeGateway struct {
	loc   adapter.Location
	rawTx []byte
	broke int32
}

func (g *fakeGateway) FetchTx(ctx context.Context, txid [32]byte, fresh bool) ([]byte, error) {
	return g.rawTx, nil
}

func (g *fakeGateway) FetchRef(ctx context.Context, ref [36]byte) (adapter.Location, adapter.Location, error) {
	return g.loc, g.loc, nil
}

func (g *fakeGateway) Subscribe(ctx context.Context, scriptHash [32]byte, callback func(adapter.SubscriptionStatus)) error {
	return nil
}

func (g *fakeGateway) Unsubscribe(ctx context.Context, scriptHash [32]byte) error { return nil }

func (g *fakeGateway) Broadcast(ctx context.Context, rawTx []byte) ([32]byte, error) {
	atomic.AddInt32(&g.broke, 1)
	return [32]byte{}, errors.New("fake gateway never broadcasts in this test")
}

type fakeWallet struct{}

func (fakeWallet) Address() []byte      { return []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} }
func (fakeWallet) ChangeScript() []byte { return []byte{0x76, 0xa9, 0x00, 0x88, 0xac} }
func (fakeWallet) SigningKey() []byte   { return []byte("signing-key") }
func (fakeWallet) Unspent() (adapter.WalletSnapshot, error) {
	return adapter.WalletSnapshot{
		Unspent: []adapter.Utxo{{Txid: [32]byte{9}, Vout: 0, Value: 10_000_000}},
		Address: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}, nil
}

// buildRawTxSingleOutput hand-builds a raw transaction with one output
// carrying script/value, in the wire layout claim.LocateOutput expects:
// version(4) | input_count | inputs | output_count | outputs.
func buildRawTxSingleOutput(script []byte, value uint64) []byte {
	var tx []byte
	tx = append(tx, 0, 0, 0, 0) // version
	tx = append(tx, 0)          // zero inputs
	tx = append(tx, 1)          // one output
	valBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(valBytes, value)
	tx = append(tx, valBytes...)
	tx = append(tx, byte(len(script)))
	tx = append(tx, script...)
	return tx
}

func testContractRef() [36]byte {
	var ref [36]byte
	ref[0] = 0xAA
	return ref
}

func testGateway() *fakeGateway {
	ref := testContractRef()
	var tokenRef [36]byte
	tokenRef[0] = 0xBB
	script := contract.BuildStateScript(contract.State{
		Layout:      contract.LayoutV1,
		Height:      1,
		ContractRef: ref,
		TokenRef:    tokenRef,
		MaxHeight:   1000,
		Reward:      100_000,
		Target:      1,
	})
	return &fakeGateway{
		loc:   adapter.Location{Txid: [32]byte{7}, Output: 0},
		rawTx: buildRawTxSingleOutput(script, 100_000),
	}
}

func testGatewayWithTarget(target uint64) *fakeGateway {
	ref := testContractRef()
	var tokenRef [36]byte
	tokenRef[0] = 0xBB
	script := contract.BuildStateScript(contract.State{
		Layout:      contract.LayoutV1,
		Height:      1,
		ContractRef: ref,
		TokenRef:    tokenRef,
		MaxHeight:   1000,
		Reward:      100_000,
		Target:      target,
	})
	return &fakeGateway{
		loc:   adapter.Location{Txid: [32]byte{7}, Output: 0},
		rawTx: buildRawTxSingleOutput(script, 100_000),
	}
}

func validArgs(dataDir string) []string {
	ref := testContractRef()
	return []string{
		"-address", "miner-address-1",
		"-contract-ref", hex.EncodeToString(ref[:]),
		"-datadir", dataDir,
	}
}

func TestRunFailsWhenConfigInvalid(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-datadir", t.TempDir()}, &out, &errOut)
	if code != exitConfigInvalid {
		t.Fatalf("code = %d, want %d (stderr=%s)", code, exitConfigInvalid, errOut.String())
	}
}

func TestRunFailsWhenGatewayNotWired(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(validArgs(t.TempDir()), &out, &errOut)
	if code != exitDeviceUnavailable {
		t.Fatalf("code = %d, want %d (stderr=%s)", code, exitDeviceUnavailable, errOut.String())
	}
}

func TestRunFailsOnUnsupportedAlgorithm(t *testing.T) {
	prevGw, prevW := newChainGatewayFn, newWalletFn
	newChainGatewayFn = func(config.Config) (adapter.ChainGateway, error) { return testGateway(), nil }
	newWalletFn = func(config.Config) (adapter.Wallet, error) { return fakeWallet{}, nil }
	t.Cleanup(func() { newChainGatewayFn, newWalletFn = prevGw, prevW })

	args := append(validArgs(t.TempDir()), "-algo", "argon2id-light")
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	// argon2id-light is rejected by config.Validate before algorithm lookup.
	if code != exitConfigInvalid {
		t.Fatalf("code = %d, want %d (stderr=%s)", code, exitConfigInvalid, errOut.String())
	}
}

// TestRunStartsMiningThenExitsOnCancel runs in a subprocess so the SIGINT
// it sends itself doesn't take down the whole test binary, mirroring the
// teacher's own signal-exit test shape.
func TestRunStartsMiningThenExitsOnCancel(t *testing.T) {
	if os.Getenv("DMINT_MINER_SIGNAL_CHILD") == "1" {
		newChainGatewayFn = func(config.Config) (adapter.ChainGateway, error) { return testGateway(), nil }
		newWalletFn = func(config.Config) (adapter.Wallet, error) { return fakeWallet{}, nil }

		dir, err := os.MkdirTemp("", "dmint-miner-signal-*")
		if err != nil {
			os.Exit(90)
		}
		go func() {
			time.Sleep(200 * time.Millisecond)
			p, _ := os.FindProcess(os.Getpid())
			_ = p.Signal(syscall.SIGINT)
		}()
		code := run(validArgs(dir), os.Stdout, os.Stderr)
		os.Exit(code)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestRunStartsMiningThenExitsOnCancel")
	cmd.Env = append(os.Environ(), "DMINT_MINER_SIGNAL_CHILD=1")
	err := cmd.Run()
	if err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("unexpected error: %v", err)
		}
		if ee.ExitCode() != exitInterrupted {
			t.Fatalf("exit code = %d, want %d", ee.ExitCode(), exitInterrupted)
		}
		return
	}
	t.Fatalf("expected non-zero (interrupted) exit code, got 0")
}

// TestLoadInitialStateBootstrapsMatchingTarget exercises the
// parsed-target-to-difficulty inversion end to end: the search.Work derived
// from a freshly loaded ContractState must mine against the exact same
// target the contract published on-chain, not a re-inverted one.
func TestLoadInitialStateBootstrapsMatchingTarget(t *testing.T) {
	const onChainTarget = 0x0000_0FFF_FFFF_FFFF // spec's S1 scenario target

	gw := testGatewayWithTarget(onChainTarget)
	kv, err := kvstore.Open(t.TempDir() + "/cache.db")
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	defer kv.Close()

	parsedCfg, loadErr := config.Load(validArgs(t.TempDir()), &bytes.Buffer{})
	if loadErr != nil {
		t.Fatalf("config.Load: %v", loadErr)
	}

	state, err := loadInitialState(context.Background(), gw, kv, testContractRef(), parsedCfg)
	if err != nil {
		t.Fatalf("loadInitialState: %v", err)
	}

	work := engineWork(state)
	if work.Target.Format != algo.LegacyV1 {
		t.Fatalf("target format = %v, want LegacyV1", work.Target.Format)
	}
	if work.Target.Legacy != onChainTarget {
		t.Fatalf("derived target = %d, want %d (on-chain target)", work.Target.Legacy, onChainTarget)
	}
}

func TestMainExitCodeNonZeroOnMissingConfig(t *testing.T) {
	if os.Getenv("DMINT_MINER_CHILD") == "1" {
		os.Args = []string{"dmint-miner"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainExitCodeNonZeroOnMissingConfig")
	cmd.Env = append(os.Environ(), "DMINT_MINER_CHILD=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected non-zero exit for missing required flags")
	}
	ee, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("unexpected error type: %v", err)
	}
	if ee.ExitCode() != exitConfigInvalid {
		t.Fatalf("exit code = %d, want %d", ee.ExitCode(), exitConfigInvalid)
	}
}
