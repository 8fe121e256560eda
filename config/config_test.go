package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/daa"
)

func validArgs(dataDir string) []string {
	return []string{
		"-address", "miner-address-1",
		"-contract-ref", "000000000000000000000000000000000000000000000000000000000000000000000000",
		"-datadir", dataDir,
	}
}

func TestLoadMinimalValidArgs(t *testing.T) {
	var stderr bytes.Buffer
	cfg, err := Load(validArgs(t.TempDir()), &stderr)
	if err != nil {
		t.Fatalf("Load: %v (stderr=%s)", err, stderr.String())
	}
	if cfg.Algorithm != algo.Sha256d {
		t.Fatalf("default algorithm = %v, want sha256d", cfg.Algorithm)
	}
	if cfg.DaaMode != daa.ModeFixed {
		t.Fatalf("default daa mode = %v, want fixed", cfg.DaaMode)
	}
	if cfg.Threads != 1 {
		t.Fatalf("default threads = %d, want 1", cfg.Threads)
	}
}

func TestLoadRejectsMissingAddress(t *testing.T) {
	var stderr bytes.Buffer
	args := []string{"-contract-ref", "000000000000000000000000000000000000000000000000000000000000000000000000", "-datadir", t.TempDir()}
	if _, err := Load(args, &stderr); err == nil {
		t.Fatal("expected error for missing address")
	}
}

func TestLoadRejectsBadContractRefLength(t *testing.T) {
	var stderr bytes.Buffer
	args := []string{"-address", "a", "-contract-ref", "deadbeef", "-datadir", t.TempDir()}
	if _, err := Load(args, &stderr); err == nil {
		t.Fatal("expected error for short contract-ref")
	}
}

func TestLoadRejectsUnsupportedArgon2idLight(t *testing.T) {
	var stderr bytes.Buffer
	args := append(validArgs(t.TempDir()), "-algo", "argon2id-light")
	if _, err := Load(args, &stderr); err == nil {
		t.Fatal("expected error selecting argon2id-light")
	}
}

func TestLoadRejectsUnknownDaaMode(t *testing.T) {
	var stderr bytes.Buffer
	args := append(validArgs(t.TempDir()), "-daa", "made-up-mode")
	if _, err := Load(args, &stderr); err == nil {
		t.Fatal("expected error for unknown DAA mode")
	}
}

func TestLoadParsesAlgoAndDaaAndServers(t *testing.T) {
	var stderr bytes.Buffer
	args := append(validArgs(t.TempDir()), "-algo", "blake3", "-daa", "lwma", "-servers", "a:1,b:2, ,a:1")
	cfg, err := Load(args, &stderr)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Algorithm != algo.Blake3 {
		t.Fatalf("algorithm = %v, want blake3", cfg.Algorithm)
	}
	if cfg.DaaMode != daa.ModeLWMA {
		t.Fatalf("daa mode = %v, want lwma", cfg.DaaMode)
	}
	if len(cfg.PreferredServers) != 3 {
		t.Fatalf("servers = %v, want 3 entries (dedup skipped by design, blank trimmed)", cfg.PreferredServers)
	}
}

func TestPersistedStateOverlayFillsUnsetFlags(t *testing.T) {
	dataDir := t.TempDir()
	if err := SavePersistedState(dataDir, PersistedState{
		WalletAddress: "persisted-address",
		MintMessage:   "hello from disk",
	}); err != nil {
		t.Fatalf("SavePersistedState: %v", err)
	}

	var stderr bytes.Buffer
	args := []string{
		"-contract-ref", "000000000000000000000000000000000000000000000000000000000000000000000000",
		"-datadir", dataDir,
	}
	cfg, err := Load(args, &stderr)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WalletAddress != "persisted-address" {
		t.Fatalf("WalletAddress = %q, want persisted-address", cfg.WalletAddress)
	}
	if cfg.MintMessage != "hello from disk" {
		t.Fatalf("MintMessage = %q, want %q", cfg.MintMessage, "hello from disk")
	}
}

func TestPersistedStateDoesNotOverrideExplicitFlag(t *testing.T) {
	dataDir := t.TempDir()
	if err := SavePersistedState(dataDir, PersistedState{WalletAddress: "persisted-address"}); err != nil {
		t.Fatalf("SavePersistedState: %v", err)
	}

	var stderr bytes.Buffer
	args := append(validArgs(dataDir), "-address", "explicit-address")
	cfg, err := Load(args, &stderr)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WalletAddress != "explicit-address" {
		t.Fatalf("WalletAddress = %q, want explicit-address to win over persisted state", cfg.WalletAddress)
	}
}

func TestSavePersistedStateCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "dir")
	if err := SavePersistedState(dataDir, PersistedState{WalletAddress: "x"}); err != nil {
		t.Fatalf("SavePersistedState: %v", err)
	}
	if _, err := os.Stat(StatePath(dataDir)); err != nil {
		t.Fatalf("expected state file to exist: %v", err)
	}
}
