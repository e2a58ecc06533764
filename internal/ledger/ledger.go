// Package ledger implements the per-buyer consumption counters of §4.6.
package ledger

import "github.com/rawblock/mint-engine/pkg/models"

// ShouldTrackBuyer reports whether a BuyerInfo record needs to exist at
// all for this mint: only when a per-address limit is configured or an
// allowlist proof was submitted (§4.6). BuyerInfo is otherwise never
// allocated.
func ShouldTrackBuyer(limitPerAddress uint16, hasAllowlistProof bool) bool {
	return limitPerAddress > 0 || hasAllowlistProof
}

// ConsumeAllowlist enforces and advances allowlist_consumed against the
// committed proof amount (§4.3, §4.6): the buyer must have strictly fewer
// consumed slots than the committed amount before this mint.
func ConsumeAllowlist(info *models.BuyerInfo, amount uint16) error {
	if info.AllowlistConsumed >= amount {
		return models.NewError(models.ErrAllowlistExhausted, "allowlist_consumed has reached the committed amount")
	}
	info.AllowlistConsumed++
	return nil
}

// ConsumePublic enforces and advances public_consumed against
// limit_per_address during the Public phase (§4.6). Omni-mint wallets
// bypass the limit entirely and this is a no-op for them. A limit of 0
// means unlimited and is also a no-op.
func ConsumePublic(info *models.BuyerInfo, limitPerAddress uint16, isOmniMinter bool) error {
	if isOmniMinter || limitPerAddress == 0 {
		return nil
	}
	if info.PublicConsumed >= limitPerAddress {
		return models.NewError(models.ErrBuyLimitExceeded, "public_consumed has reached limit_per_address")
	}
	info.PublicConsumed++
	return nil
}

// IsOmniMinter reports whether buyer is one of the configured omni-mint
// wallets, which bypass both per-buyer limits and every phase check
// except Expired (§4.6, §9).
func IsOmniMinter(cfg *models.SaleConfig, buyer string) bool {
	for _, w := range cfg.OmniMintWallets {
		if w == buyer {
			return true
		}
	}
	return false
}
