package claim

import (
	"errors"
	"testing"

	"github.com/radiant-core/dmint-miner/adapter"
)

func TestClassifyBroadcastErrorStringMatching(t *testing.T) {
	cases := map[string]ErrorCode{
		"txn-mempool-conflict":                   ErrMempoolConflict,
		"mandatory-script-verify-flag-failed (x)": ErrContractFail,
		"Missing inputs":                          ErrMissingInputs,
		"min relay fee not met":                   ErrLowFee,
		"bad-txns-in-belowout":                    ErrLowFee,
		"some unrelated rejection":                ErrOtherBroadcast,
	}
	for msg, want := range cases {
		if got := ClassifyBroadcastError(msg); got != want {
			t.Fatalf("ClassifyBroadcastError(%q) = %v, want %v", msg, got, want)
		}
	}
}

func TestClassifyBroadcastPrefersTypedKind(t *testing.T) {
	err := &adapter.BroadcastError{Kind: adapter.BroadcastMissingInputs, Message: "does not mention the string at all"}
	if got := ClassifyBroadcast(err); got != ErrMissingInputs {
		t.Fatalf("ClassifyBroadcast = %v, want ErrMissingInputs", got)
	}
}

func TestClassifyBroadcastFallsBackForUntypedError(t *testing.T) {
	if got := ClassifyBroadcast(errors.New("txn-mempool-conflict")); got != ErrMempoolConflict {
		t.Fatalf("ClassifyBroadcast = %v, want ErrMempoolConflict", got)
	}
}

func TestReactionForMempoolConflictEscalatesAfterThreeConsecutive(t *testing.T) {
	if r := ReactionFor(ErrMempoolConflict, 0); r != ReactionArmRecoveryTimer {
		t.Fatalf("first conflict: reaction = %v, want ArmRecoveryTimer", r)
	}
	if r := ReactionFor(ErrMempoolConflict, 1); r != ReactionArmRecoveryTimer {
		t.Fatalf("second conflict: reaction = %v, want ArmRecoveryTimer", r)
	}
	if r := ReactionFor(ErrMempoolConflict, 2); r != ReactionFullRecovery {
		t.Fatalf("third conflict: reaction = %v, want FullRecovery", r)
	}
}

func TestReactionForContractAndMissingInputsForceFullRecovery(t *testing.T) {
	if r := ReactionFor(ErrContractFail, 0); r != ReactionFullRecovery {
		t.Fatalf("ErrContractFail reaction = %v, want FullRecovery", r)
	}
	if r := ReactionFor(ErrMissingInputs, 0); r != ReactionFullRecovery {
		t.Fatalf("ErrMissingInputs reaction = %v, want FullRecovery", r)
	}
}

func TestReactionForFatalConditionsStopAndNotify(t *testing.T) {
	for _, code := range []ErrorCode{ErrLowFee, ErrBalanceTooLow, ErrContractBurnedCode} {
		if r := ReactionFor(code, 0); r != ReactionStopAndNotify {
			t.Fatalf("%v reaction = %v, want StopAndNotify", code, r)
		}
	}
}

func TestClaimErrorMessage(t *testing.T) {
	err := claimErr(ErrBalanceTooLow, "below threshold")
	if got, want := err.Error(), "BALANCE_TOO_LOW: below threshold"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
