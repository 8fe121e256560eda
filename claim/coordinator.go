package claim

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/radiant-core/dmint-miner/adapter"
	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/contract"
	"github.com/radiant-core/dmint-miner/daa"
	"github.com/radiant-core/dmint-miner/search"
	"github.com/radiant-core/dmint-miner/verify"
)

// recentAcceptedCapacity bounds the coordinator's own-mint suppression set.
const recentAcceptedCapacity = 20

// minBalanceBase and reward fraction gate: wallet_balance >= 0.01 +
// reward_fraction, expressed in photons (1 unit = 1e8 photons by the
// project's existing fixed-point convention, matched by the base
// threshold below).
const minBalanceBase = 1_000_000 // 0.01 in 1e8-scaled photons

// Coordinator is the claim coordinator: single-producer single-consumer
// over device-verified nonces, owner of ContractState, wallet snapshot,
// and mining counters.
type Coordinator struct {
	log     zerolog.Logger
	gateway adapter.ChainGateway
	wallet  adapter.Wallet
	driver  *search.Driver

	mu                   sync.Mutex
	state                ContractState
	miningEnabled        bool
	inFlight             bool
	pending              *search.Candidate
	accepted             uint64
	rejected             uint64
	consecutiveConflicts int
	recentAccepted       [][32]byte
	walletSnapshot       adapter.WalletSnapshot
	lastStatusToken      map[[32]byte]string
	rewardFraction       uint64

	subWatchdog      *watchdog
	contractWatchdog *watchdog

	onStopAndNotify func(reason string)
}

// NewCoordinator wires a Coordinator to its chain gateway, wallet, and
// search driver. onStopAndNotify is called for every stop-and-notify
// reaction with a user-facing message; it may be nil.
func NewCoordinator(log zerolog.Logger, gw adapter.ChainGateway, w adapter.Wallet, drv *search.Driver, onStopAndNotify func(string)) *Coordinator {
	c := &Coordinator{
		log:             log.With().Str("component", "claim.coordinator").Logger(),
		gateway:         gw,
		wallet:          w,
		driver:          drv,
		lastStatusToken: make(map[[32]byte]string),
		onStopAndNotify: onStopAndNotify,
	}
	c.subWatchdog = newWatchdog(c.onSubscriptionSilence)
	c.contractWatchdog = newWatchdog(c.onContractSilence)
	return c
}

// Run reads verified candidates off the driver until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cand, ok := <-c.driver.Candidates():
			if !ok {
				return
			}
			c.OnCandidate(ctx, cand)
		}
	}
}

// SetContractState installs a freshly observed or re-derived contract
// state. Called on startup and whenever the engine transitions to
// `change`.
func (c *Coordinator) SetContractState(state ContractState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// ContractState returns a copy of the coordinator's current view.
func (c *Coordinator) ContractState() ContractState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Counters returns the accepted/rejected tallies.
func (c *Coordinator) Counters() (accepted, rejected uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accepted, c.rejected
}

// CheckBalanceGate enforces wallet_balance >= 0.01 + reward_fraction
// before mining starts or continues. rewardFraction is expressed in the
// same 1e8-scaled photon unit as minBalanceBase.
func (c *Coordinator) CheckBalanceGate(rewardFraction uint64) error {
	snap, err := c.wallet.Unspent()
	if err != nil {
		return err
	}
	var total uint64
	for _, u := range snap.Unspent {
		total += u.Value
	}
	c.mu.Lock()
	c.walletSnapshot = snap
	c.mu.Unlock()

	if total < minBalanceBase+rewardFraction {
		return claimErr(ErrBalanceTooLow, "wallet balance below mint threshold")
	}
	return nil
}

// EnableMining checks the balance gate, then marks mining enabled and
// starts the search driver. rewardFraction is the contract's per-block
// reward expressed in the same unit as CheckBalanceGate.
func (c *Coordinator) EnableMining(rewardFraction uint64) error {
	if err := c.CheckBalanceGate(rewardFraction); err != nil {
		return err
	}
	c.mu.Lock()
	c.miningEnabled = true
	c.rewardFraction = rewardFraction
	c.mu.Unlock()
	if c.driver != nil {
		c.driver.Start()
	}
	return nil
}

// OnCandidate implements the single-producer single-consumer arrival
// contract: if a claim is already in flight, cand overwrites any earlier
// pending candidate and is dropped from this call's perspective; it will
// be tried once the in-flight attempt resolves.
func (c *Coordinator) OnCandidate(ctx context.Context, cand search.Candidate) {
	c.mu.Lock()
	if c.inFlight {
		cp := cand
		c.pending = &cp
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	c.attemptClaim(ctx, cand)
}

// attemptClaim assembles, signs, and broadcasts one claim transaction for
// cand, then processes the broadcast result and, if a fresher candidate
// arrived meanwhile, immediately starts the next attempt.
func (c *Coordinator) attemptClaim(ctx context.Context, cand search.Candidate) {
	state := c.ContractState()

	if state.Burned() {
		c.finishInFlight()
		c.stopAndNotify(ErrContractBurnedCode, "contract burned, mining suspended")
		return
	}

	nextDaaState, nextTarget := c.deriveNextDaa(state)

	wallet := c.currentWalletSnapshot()
	params := ClaimParams{
		Current:  state,
		NextDaa:  DaaUpdate{Target: nextTarget},
		NonceHi:  cand.NonceHi,
		NonceLo:  cand.NonceLo,
		Wallet:   wallet,
		RewardTo: BuildRewardScript(wallet.Address),
		Message:  state.OutputScript,
	}

	rawTx, err := BuildClaimTx(params)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to assemble claim transaction")
		c.recordRejected()
		c.finishInFlight()
		c.drainPending(ctx)
		return
	}

	txid, err := c.gateway.Broadcast(ctx, rawTx)
	if err != nil {
		c.handleBroadcastError(ctx, err)
		c.finishInFlight()
		c.drainPending(ctx)
		return
	}

	c.handleBroadcastSuccess(txid, nextDaaState)
	c.recheckBalanceAfterAccept()
	c.finishInFlight()
	c.drainPending(ctx)
}

// deriveNextDaa runs state.Daa through daa.Update for the height this claim
// advances to, immediately before assembly, per the DaaState lifecycle
// (updated before assembling a claim, and again on an observed new
// location). Returns the updated DaaState plus the on-chain target it
// implies, ready to embed in the claim's next-state output. A DAA error
// (unknown mode, corrupt history) leaves the prior difficulty in place
// rather than aborting the claim.
func (c *Coordinator) deriveNextDaa(state ContractState) (daa.State, uint64) {
	nextHeight := uint64(state.Height) + 1
	now := uint64(time.Now().Unix())
	solveTime := uint64(1)
	if now > state.Daa.LastTimestamp && state.Daa.LastTimestamp != 0 {
		solveTime = now - state.Daa.LastTimestamp
	}

	updated, difficulty, err := daa.Update(state.Daa, nextHeight, now, solveTime)
	if err != nil {
		c.log.Error().Err(err).Msg("daa update failed, carrying prior difficulty forward")
		updated = state.Daa
		difficulty = state.Daa.Difficulty
	}

	format := algo.LegacyV1
	if d, err := algo.Lookup(state.AlgoID); err == nil {
		format = d.TargetFormat
	}
	target, _ := algo.DifficultyToTarget(format, difficulty)
	return updated, target
}

// recheckBalanceAfterAccept re-enforces the balance gate after a successful
// claim: a burn-height mint or an unexpectedly large fee can drop the
// wallet below the mint threshold.
func (c *Coordinator) recheckBalanceAfterAccept() {
	c.mu.Lock()
	fraction := c.rewardFraction
	mining := c.miningEnabled
	c.mu.Unlock()
	if !mining {
		return
	}
	if err := c.CheckBalanceGate(fraction); err != nil {
		c.stopAndNotify(ErrBalanceTooLow, err.Error())
	}
}

func (c *Coordinator) currentWalletSnapshot() adapter.WalletSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.walletSnapshot
}

func (c *Coordinator) finishInFlight() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// drainPending starts the next attempt if a fresher candidate arrived
// while the previous one was in flight.
func (c *Coordinator) drainPending(ctx context.Context) {
	c.mu.Lock()
	next := c.pending
	c.pending = nil
	if next != nil {
		c.inFlight = true
	}
	c.mu.Unlock()

	if next != nil {
		c.attemptClaim(ctx, *next)
	}
}

// handleBroadcastSuccess implements the optimistic local advance: the
// coordinator updates its own ContractState before any subscription event
// arrives, and remembers txid in the recent-accepted set IsOwnMint reads.
// nextDaa is the DaaState already derived in attemptClaim for this height,
// adopted here so the coordinator's view and the broadcast claim agree.
func (c *Coordinator) handleBroadcastSuccess(txid [32]byte, nextDaa daa.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accepted++
	c.consecutiveConflicts = 0
	c.state.Location = adapter.Location{Txid: txid, Output: 0}
	c.state.Height++
	c.state.Daa = nextDaa
	c.recentAccepted = append(c.recentAccepted, txid)
	if len(c.recentAccepted) > recentAcceptedCapacity {
		c.recentAccepted = c.recentAccepted[len(c.recentAccepted)-recentAcceptedCapacity:]
	}
	if c.driver != nil {
		c.driver.SetWork(nextWork(c.state))
	}
	c.subWatchdog.arm(subscriptionCheckInterval)
	c.contractWatchdog.arm(contractCheckSilence)
}

// nextWork derives the search.Work the device driver should mine against
// immediately after a successful claim, from the coordinator's own
// optimistic view of the contract's next state (no chain round-trip).
func nextWork(state ContractState) search.Work {
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
		Target:       verify.Target{Legacy: legacy, Full: full, Format: format},
		Algorithm:    state.AlgoID,
	}
}

// IsOwnMint reports whether txid is in the recent-accepted-locations set
// (the last recentAcceptedCapacity claims this coordinator broadcast).
// OnSubscriptionStatus does not consult it.
func (c *Coordinator) IsOwnMint(txid [32]byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.recentAccepted {
		if t == txid {
			return true
		}
	}
	return false
}

func (c *Coordinator) recordRejected() {
	c.mu.Lock()
	c.rejected++
	c.mu.Unlock()
}

// handleBroadcastError classifies err and applies the reaction from
// §4.G's error taxonomy.
func (c *Coordinator) handleBroadcastError(ctx context.Context, err error) {
	code := ClassifyBroadcast(err)

	c.mu.Lock()
	c.rejected++
	conflicts := c.consecutiveConflicts
	if code == ErrMempoolConflict {
		c.consecutiveConflicts++
	} else {
		c.consecutiveConflicts = 0
	}
	c.mu.Unlock()

	switch ReactionFor(code, conflicts) {
	case ReactionArmRecoveryTimer:
		c.contractWatchdog.arm(contractCheckAfterConflict)
	case ReactionFullRecovery:
		c.fullRecovery(ctx)
	case ReactionStopAndNotify:
		c.stopAndNotify(code, err.Error())
	case ReactionRecord:
	}
}

// fullRecovery implements §4.G's full recovery: stop the engine, refresh
// the wallet unspent snapshot, refetch and re-parse the contract's current
// state (location, height, DAA) and re-derive Work from it, restart if
// mining was enabled. It does not resubscribe with the chain gateway; any
// existing subscription is left as it is.
func (c *Coordinator) fullRecovery(ctx context.Context) {
	c.mu.Lock()
	wasMining := c.miningEnabled
	c.mu.Unlock()

	if c.driver != nil {
		c.driver.Stop()
	}

	if snap, err := c.wallet.Unspent(); err != nil {
		c.log.Error().Err(err).Msg("full recovery: wallet refresh failed")
	} else {
		c.mu.Lock()
		c.walletSnapshot = snap
		c.mu.Unlock()
	}

	if err := c.refreshContractAndWork(ctx); err != nil {
		c.log.Error().Err(err).Msg("full recovery: contract refresh failed")
		return
	}

	if wasMining && c.driver != nil {
		c.driver.Start()
	}
}

// refreshContractAndWork re-observes the contract on-chain: it refetches
// the current location, re-parses the locking script's prologue, runs that
// observed height/time through daa.Update to re-derive DaaState, and hands
// the resulting search.Work to the driver. This is the "again when the
// coordinator observes a new location on-chain" half of the DaaState
// lifecycle; deriveNextDaa covers the "immediately before assembling a
// claim" half.
func (c *Coordinator) refreshContractAndWork(ctx context.Context) error {
	c.mu.Lock()
	ref := c.state.ContractRef
	prevDaa := c.state.Daa
	c.mu.Unlock()

	_, current, err := c.gateway.FetchRef(ctx, ref)
	if err != nil {
		return err
	}

	rawTx, err := c.gateway.FetchTx(ctx, current.Txid, true)
	if err != nil {
		return err
	}

	script, _, err := LocateOutput(rawTx, current.Output)
	if err != nil {
		return err
	}

	parsed, err := contract.Parse(script, ref)
	if err != nil {
		return err
	}

	now := uint64(time.Now().Unix())
	solveTime := uint64(1)
	if now > prevDaa.LastTimestamp && prevDaa.LastTimestamp != 0 {
		solveTime = now - prevDaa.LastTimestamp
	}
	nextDaa, _, err := daa.Update(prevDaa, uint64(parsed.Height), now, solveTime)
	if err != nil {
		c.log.Error().Err(err).Msg("daa update failed during refresh, carrying prior difficulty forward")
		nextDaa = prevDaa
	}

	c.mu.Lock()
	c.state.Location = current
	c.state.Height = parsed.Height
	c.state.MaxHeight = parsed.MaxHeight
	c.state.Reward = parsed.Reward
	c.state.InputScript = script
	c.state.Daa = nextDaa
	newState := c.state
	c.mu.Unlock()

	if c.driver != nil {
		c.driver.SetWork(nextWork(newState))
	}
	return nil
}

// stopAndNotify implements the stop-and-notify reaction: stop the engine,
// emit a user-visible message, leave the coordinator in `ready`.
func (c *Coordinator) stopAndNotify(code ErrorCode, msg string) {
	c.mu.Lock()
	c.miningEnabled = false
	c.mu.Unlock()

	if c.driver != nil {
		c.driver.Stop()
	}
	if c.onStopAndNotify != nil {
		c.onStopAndNotify(string(code) + ": " + msg)
	}
}

// OnSubscriptionStatus handles one chain subscription event: it ignores a
// repeated status token, otherwise refetches the contract and re-derives
// Work. The event is not checked against the recent-accepted set, so an
// echo of our own mint is refreshed like any other new status.
func (c *Coordinator) OnSubscriptionStatus(status adapter.SubscriptionStatus) {
	c.mu.Lock()
	last, seen := c.lastStatusToken[status.ScriptHash]
	if seen && last == status.Token {
		c.mu.Unlock()
		return
	}
	c.lastStatusToken[status.ScriptHash] = status.Token
	c.mu.Unlock()

	c.subWatchdog.stop()
	c.contractWatchdog.arm(contractCheckSilence)

	if err := c.refreshContractAndWork(context.Background()); err != nil {
		c.log.Warn().Err(err).Msg("subscription status: contract refresh failed")
	}
}

// onSubscriptionSilence fires when 10s pass with no script-hash status: it
// forces an unspent refresh.
func (c *Coordinator) onSubscriptionSilence() {
	snap, err := c.wallet.Unspent()
	if err != nil {
		c.log.Warn().Err(err).Msg("subscription watchdog: unspent refresh failed")
		return
	}
	c.mu.Lock()
	c.walletSnapshot = snap
	c.mu.Unlock()
}

// onContractSilence fires after 60s of silence (or 10s post-conflict): it
// forces a full contract re-parse and DaaState re-derivation.
func (c *Coordinator) onContractSilence() {
	c.mu.Lock()
	conflicted := c.consecutiveConflicts > 0
	c.mu.Unlock()

	if conflicted {
		c.fullRecovery(context.Background())
		return
	}

	if err := c.refreshContractAndWork(context.Background()); err != nil {
		c.log.Warn().Err(err).Msg("contract watchdog: refresh failed")
	}
}
