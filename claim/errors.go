package claim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/radiant-core/dmint-miner/adapter"
)

// ErrorCode is the closed set of reasons the coordinator distinguishes
// when a broadcast is rejected or another fatal condition arises.
type ErrorCode string

const (
	ErrMempoolConflict    ErrorCode = "MEMPOOL_CONFLICT"
	ErrContractFail       ErrorCode = "CONTRACT_FAIL"
	ErrMissingInputs      ErrorCode = "MISSING_INPUTS"
	ErrLowFee             ErrorCode = "LOW_FEE"
	ErrOtherBroadcast     ErrorCode = "OTHER_BROADCAST"
	ErrSubscriptionLost   ErrorCode = "SUBSCRIPTION_LOST"
	ErrChainUnavailable   ErrorCode = "CHAIN_UNAVAILABLE"
	ErrContractBurnedCode ErrorCode = "CONTRACT_BURNED"
	ErrBalanceTooLow      ErrorCode = "BALANCE_TOO_LOW"
)

// ClaimError carries a classified Code alongside the underlying message.
type ClaimError struct {
	Code ErrorCode
	Msg  string
}

func (e *ClaimError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func claimErr(code ErrorCode, msg string) error {
	return &ClaimError{Code: code, Msg: msg}
}

// ClassifyBroadcastError maps a chain gateway's rejection string onto the
// closed broadcast error taxonomy from §4.G. It is the fallback used when
// the gateway error isn't a *adapter.BroadcastError; see ClassifyBroadcast
// for the typed path.
func ClassifyBroadcastError(reason string) ErrorCode {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "txn-mempool-conflict"):
		return ErrMempoolConflict
	case strings.Contains(lower, "mandatory-script-verify-flag-failed"):
		return ErrContractFail
	case strings.Contains(lower, "missing inputs"):
		return ErrMissingInputs
	case strings.Contains(lower, "min relay fee not met"), strings.Contains(lower, "bad-txns-in-belowout"):
		return ErrLowFee
	default:
		return ErrOtherBroadcast
	}
}

// ClassifyBroadcast prefers the gateway's own structured BroadcastErrorKind
// and falls back to string sniffing only for errors the gateway didn't
// classify itself.
func ClassifyBroadcast(err error) ErrorCode {
	var be *adapter.BroadcastError
	if errors.As(err, &be) {
		switch be.Kind {
		case adapter.BroadcastMempoolConflict:
			return ErrMempoolConflict
		case adapter.BroadcastContractFail:
			return ErrContractFail
		case adapter.BroadcastMissingInputs:
			return ErrMissingInputs
		case adapter.BroadcastLowFee:
			return ErrLowFee
		default:
			return ClassifyBroadcastError(be.Message)
		}
	}
	return ClassifyBroadcastError(err.Error())
}

// Reaction is what the coordinator does in response to a classified error.
type Reaction int

const (
	ReactionRecord Reaction = iota
	ReactionArmRecoveryTimer
	ReactionFullRecovery
	ReactionStopAndNotify
)

// ReactionFor decides the reaction for code given the current consecutive
// mempool-conflict count (observed strictly before this error is folded
// in).
func ReactionFor(code ErrorCode, consecutiveConflicts int) Reaction {
	switch code {
	case ErrMempoolConflict:
		if consecutiveConflicts+1 >= 3 {
			return ReactionFullRecovery
		}
		return ReactionArmRecoveryTimer
	case ErrContractFail, ErrMissingInputs:
		return ReactionFullRecovery
	case ErrLowFee, ErrBalanceTooLow, ErrContractBurnedCode:
		return ReactionStopAndNotify
	default:
		return ReactionRecord
	}
}
