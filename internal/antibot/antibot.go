// Package antibot implements the anti-bot gate of §4.8: the fixed-amount
// tax applied instead of a hard failure for a subset of the mint
// orchestrator's gates, and the compile-time-selected signer identity
// those gates check against.
package antibot

import "github.com/rawblock/mint-engine/pkg/models"

// TaxAmount is the fixed penalty, in the treasury's base unit, charged
// to the buyer on a bot-tax commit (§4.8).
const TaxAmount uint64 = 10_000_000

// IsTaxable reports whether kind is one of the gates the orchestrator
// (§4.7) marks bot-tax rather than hard fail. Every other kind aborts
// the mint with full rollback.
func IsTaxable(kind models.ErrorKind) bool {
	switch kind {
	case models.ErrInvalidBotSigner,
		models.ErrWrongRemainingAccountCount,
		models.ErrSuspiciousTransaction,
		models.ErrPhaseNotLivePublic,
		models.ErrPhaseNotLiveAllowlist:
		return true
	default:
		return false
	}
}

// CheckSigner validates gates 2-3 of §4.7: the anti-bot authority key
// must match SignerAuthority, and if bot protection is enabled that key
// must have signed.
func CheckSigner(botProtectionEnabled bool, gotSigner string, signed bool) error {
	if gotSigner != SignerAuthority {
		return models.NewError(models.ErrInvalidBotSigner, "anti-bot authority does not match the configured signer")
	}
	if botProtectionEnabled && !signed {
		return models.NewError(models.ErrInvalidBotSigner, "bot protection is enabled but the anti-bot authority did not sign")
	}
	return nil
}

// CheckRemainingAccounts validates gate 4: the caller-declared remaining
// account count must not exceed what the machine's current settings
// require.
func CheckRemainingAccounts(got, max int) error {
	if got > max {
		return models.NewError(models.ErrWrongRemainingAccountCount, "remaining account count exceeds the schema for current settings")
	}
	return nil
}

// CheckProgramIdentity validates gate 7: the instruction's declared
// program identity must equal the engine's own.
func CheckProgramIdentity(got, want string) error {
	if got != want {
		return models.NewError(models.ErrSuspiciousTransaction, "instruction program identity does not match the engine")
	}
	return nil
}

// CheckNextOperation validates gate 8: at most one trailing operation may
// follow a mint, and it must be exactly SetCollectionDuringMint. Absence
// of a next operation is only a problem if the collections feature is on.
func CheckNextOperation(nextOperation string, collectionsOn bool) error {
	const setCollectionDuringMint = "SetCollectionDuringMint"
	if nextOperation != "" {
		if nextOperation != setCollectionDuringMint {
			return models.NewError(models.ErrMissingSetCollection, "an instruction follows the mint that is not SetCollectionDuringMint")
		}
		return nil
	}
	if collectionsOn {
		return models.NewError(models.ErrSuspiciousTransaction, "collections are enabled but no SetCollectionDuringMint instruction follows the mint")
	}
	return nil
}

// allowedProgramIDs is the closed set of program identities permitted to
// appear anywhere in the enclosing transaction (gate 9).
var allowedProgramIDs = map[string]bool{
	"self":             true,
	"token-service":    true,
	"system":           true,
	"associated-token": true,
	"compute-budget":   true,
}

// CheckTransactionProgramIDs validates gate 9: every instruction in the
// enclosing transaction must belong to the allowed set. "self" stands in
// for the engine's own identity, passed by the caller as selfProgramID.
func CheckTransactionProgramIDs(programIDs []string, selfProgramID string) error {
	for _, id := range programIDs {
		name := id
		if id == selfProgramID {
			name = "self"
		}
		if !allowedProgramIDs[name] {
			return models.NewError(models.ErrSuspiciousTransaction, "unrecognized program identity in the enclosing transaction")
		}
	}
	return nil
}
