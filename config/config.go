// Package config loads and validates the miner's CLI-flag configuration
// surface, with an optional JSON-file overlay for the small slice of state
// that persists across restarts (mining address, mint message, preferred
// servers, discovery URL).
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/daa"
)

// Config is the full CLI/operator surface the miner needs to start.
type Config struct {
	Algorithm         algo.AlgoID
	InitialDifficulty uint64
	DaaMode           daa.Mode
	TargetBlockTime   uint64 // seconds
	Threads           int
	WorkgroupHint     int
	WalletAddress     string
	ContractRef       string // hex, 36 bytes
	MaxMemoryMB       int    // Argon2id-Light only
	PreferredServers  []string
	DiscoveryURL      string
	MintMessage       string
	LogLevel          string
	DataDir           string
}

// PersistedState is the subset of Config written to/read from the JSON
// state file between runs.
type PersistedState struct {
	WalletAddress    string   `json:"wallet_address"`
	MintMessage      string   `json:"mint_message"`
	PreferredServers []string `json:"preferred_servers"`
	DiscoveryURL     string   `json:"discovery_url"`
	MnemonicBlobRef  string   `json:"mnemonic_blob_ref"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "error": {},
}

// DefaultDataDir mirrors the teacher's ~/.rubin convention, adapted to this
// project's own state directory name.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".dmint-miner"
	}
	return filepath.Join(home, ".dmint-miner")
}

// StatePath returns the persisted-state file path under dataDir.
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "config.json")
}

// Default returns the zero-configuration baseline, the same role the
// teacher's DefaultConfig plays for node.Config.
func Default() Config {
	return Config{
		Algorithm:         algo.Sha256d,
		InitialDifficulty: 1,
		DaaMode:           daa.ModeFixed,
		TargetBlockTime:   150,
		Threads:           1,
		WorkgroupHint:     4096,
		LogLevel:          "info",
		DataDir:           DefaultDataDir(),
	}
}

// Load parses args against the stdlib flag package in the teacher's
// ContinueOnError + injectable-writer style, overlays any persisted state
// found under the resolved data directory, then validates the result.
func Load(args []string, stderr io.Writer) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("dmint-miner", flag.ContinueOnError)
	fs.SetOutput(stderr)

	algoFlag := fs.String("algo", cfg.Algorithm.String(), "hash algorithm: sha256d|blake3|k12|argon2id-light")
	fs.Uint64Var(&cfg.InitialDifficulty, "difficulty", cfg.InitialDifficulty, "initial difficulty")
	daaFlag := fs.String("daa", cfg.DaaMode.String(), "DAA mode: fixed|epoch|asert-lite|lwma|schedule")
	fs.Uint64Var(&cfg.TargetBlockTime, "target-block-time", cfg.TargetBlockTime, "target block time in seconds")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "number of CPU mining threads")
	fs.IntVar(&cfg.WorkgroupHint, "workgroup-size", cfg.WorkgroupHint, "device workgroup size hint")
	fs.StringVar(&cfg.WalletAddress, "address", cfg.WalletAddress, "mining reward address")
	fs.StringVar(&cfg.ContractRef, "contract-ref", cfg.ContractRef, "dMint contract reference (hex)")
	fs.IntVar(&cfg.MaxMemoryMB, "max-memory-mb", cfg.MaxMemoryMB, "max memory in MiB (argon2id-light only)")
	serversCSV := fs.String("servers", "", "preferred chain servers, comma-separated")
	fs.StringVar(&cfg.DiscoveryURL, "discovery-url", cfg.DiscoveryURL, "discovery service URL")
	fs.StringVar(&cfg.MintMessage, "message", cfg.MintMessage, "mint message embedded in the message sibling output")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "data directory for persisted state and kv cache")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	algoID, err := parseAlgo(*algoFlag)
	if err != nil {
		return Config{}, err
	}
	cfg.Algorithm = algoID

	mode, err := parseDaaMode(*daaFlag)
	if err != nil {
		return Config{}, err
	}
	cfg.DaaMode = mode

	if *serversCSV != "" {
		cfg.PreferredServers = splitCSV(*serversCSV)
	}

	if persisted, ok, err := loadPersistedState(StatePath(cfg.DataDir)); err != nil {
		return Config{}, fmt.Errorf("config: load persisted state: %w", err)
	} else if ok {
		applyPersisted(&cfg, persisted)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAlgo(s string) (algo.AlgoID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sha256d", "":
		return algo.Sha256d, nil
	case "blake3":
		return algo.Blake3, nil
	case "k12":
		return algo.K12, nil
	case "argon2id-light":
		return algo.Argon2Light, nil
	default:
		return 0, fmt.Errorf("config: unknown algorithm %q", s)
	}
}

func parseDaaMode(s string) (daa.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return daa.ModeFixed, nil
	case "epoch":
		return daa.ModeEpoch, nil
	case "asert-lite", "asert":
		return daa.ModeASERT, nil
	case "lwma":
		return daa.ModeLWMA, nil
	case "schedule":
		return daa.ModeSchedule, nil
	default:
		return 0, fmt.Errorf("config: unknown DAA mode %q", s)
	}
}

// Validate applies the same "fail fast on operator error" checks the
// teacher's ValidateConfig does for node.Config.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.WalletAddress) == "" {
		return errors.New("config: address is required")
	}
	if strings.TrimSpace(cfg.ContractRef) == "" {
		return errors.New("config: contract-ref is required")
	}
	if len(cfg.ContractRef) != 72 { // 36 bytes, hex-encoded
		return fmt.Errorf("config: contract-ref must be 72 hex characters (36 bytes), got %d", len(cfg.ContractRef))
	}
	if cfg.Threads <= 0 {
		return errors.New("config: threads must be > 0")
	}
	if cfg.WorkgroupHint <= 0 {
		return errors.New("config: workgroup-size must be > 0")
	}
	if cfg.TargetBlockTime == 0 {
		return errors.New("config: target-block-time must be > 0")
	}
	if cfg.Algorithm == algo.Argon2Light {
		return errors.New("config: argon2id-light is not supported by any compute backend")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("config: invalid log_level %q", cfg.LogLevel)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("config: datadir is required")
	}
	return nil
}

func loadPersistedState(path string) (PersistedState, bool, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return PersistedState{}, false, nil
		}
		return PersistedState{}, false, err
	}
	var p PersistedState
	if err := json.Unmarshal(raw, &p); err != nil {
		return PersistedState{}, false, err
	}
	return p, true, nil
}

// applyPersisted fills in cfg fields the operator didn't explicitly set on
// the command line from the persisted state file. Flags always win.
func applyPersisted(cfg *Config, p PersistedState) {
	if cfg.WalletAddress == "" {
		cfg.WalletAddress = p.WalletAddress
	}
	if cfg.MintMessage == "" {
		cfg.MintMessage = p.MintMessage
	}
	if cfg.DiscoveryURL == "" {
		cfg.DiscoveryURL = p.DiscoveryURL
	}
	if len(cfg.PreferredServers) == 0 {
		cfg.PreferredServers = p.PreferredServers
	}
}

// SavePersistedState writes the subset of cfg that should survive a
// restart to dataDir's state file, creating dataDir if needed.
func SavePersistedState(dataDir string, p PersistedState) error {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return fmt.Errorf("config: create datadir: %w", err)
	}
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(StatePath(dataDir), raw, 0o600)
}
