// Package pricing validates the base-unit price fields of a sale config
// and derives the remaining-account schema the anti-bot gate's account
// count check validates against (§4.7 step 4, SPEC_FULL's "Remaining-
// account schema" supplement). Reuses btcutil.Amount's fixed-point-
// safety idiom as a bounds check even though these prices are already
// integer base units, not satoshi conversions.
package pricing

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/rawblock/mint-engine/pkg/models"
)

// maxAmount bounds a price the same way btcutil bounds a satoshi count:
// btcutil.MaxSatoshi, 21,000,000 × 10^8 = 2.1×10^15 base units, far
// below the int64 limit.
const maxAmount = btcutil.MaxSatoshi

// ValidatePrice rejects a price field above maxAmount
// (btcutil.MaxSatoshi).
func ValidatePrice(price uint64) error {
	if price > uint64(maxAmount) {
		return models.NewError(models.ErrNumericOverflow, "price exceeds the representable base-unit range")
	}
	return nil
}

// RequiredInputs is the declared account/input schema a MintNFT call must
// satisfy, computed from the machine's current settings (SPEC_FULL,
// "Remaining-account schema"). The orchestrator's anti-bot gate (step 4)
// checks the caller-supplied RemainingAccounts count against Count().
type RequiredInputs struct {
	TokenAllowlistATA   bool // token-holdership allowlist present
	TokenAllowlistMint  bool // BurnEveryTime mode also needs the mint account
	TreasuryTokenATA    bool // treasury_mint present
	FreezeDelegateATA   bool // freeze feature active
}

// Resolve derives the schema for cfg given whether a treasury mint is
// bound and whether freeze is currently active on the owning machine.
func Resolve(cfg *models.SaleConfig, treasuryMintSet, freezeActive bool) RequiredInputs {
	var r RequiredInputs
	if cfg.SplTokenAllowlistSettings != nil {
		r.TokenAllowlistATA = true
		if cfg.SplTokenAllowlistSettings.Mode == models.BurnEveryTime {
			r.TokenAllowlistMint = true
		}
	}
	r.TreasuryTokenATA = treasuryMintSet
	r.FreezeDelegateATA = freezeActive
	return r
}

// Count returns how many extra remaining accounts the schema requires.
func (r RequiredInputs) Count() int {
	n := 0
	if r.TokenAllowlistATA {
		n++
	}
	if r.TokenAllowlistMint {
		n++
	}
	if r.TreasuryTokenATA {
		n++
	}
	if r.FreezeDelegateATA {
		n++
	}
	return n
}
