// Package phase resolves a Machine's sale phase from wall-clock time and
// prices a mint against that phase (§4.1).
package phase

import "github.com/rawblock/mint-engine/pkg/models"

// Resolve computes the sale phase for now given the machine's timing
// config. Expired takes priority over every other phase, then Public,
// then Allowlist (only if configured), then Premint.
func Resolve(cfg *models.SaleConfig, now int64) models.Phase {
	switch {
	case now >= cfg.PublicSaleEndTime:
		return models.PhaseExpired
	case now >= cfg.PublicSaleStartTime:
		return models.PhasePublic
	case cfg.AllowlistSaleStartTime != nil && now >= *cfg.AllowlistSaleStartTime:
		return models.PhaseAllowlist
	default:
		return models.PhasePremint
	}
}

// Price returns the price a mint in the given phase must pay. Premint and
// Allowlist fall back to the base price when no phase-specific price is
// configured; Public and Expired always use the base price.
func Price(cfg *models.SaleConfig, p models.Phase) uint64 {
	switch p {
	case models.PhasePremint:
		if cfg.PremintPrice != nil {
			return *cfg.PremintPrice
		}
		return cfg.Price
	case models.PhaseAllowlist:
		if cfg.AllowlistPrice != nil {
			return *cfg.AllowlistPrice
		}
		return cfg.Price
	default:
		return cfg.Price
	}
}

// CheckExpectedPrice binds a caller's expected_price to the current phase
// price (§4.1): the handler must fail InvalidMintPrice on mismatch so a
// client can't silently mint across a phase boundary at a stale price.
func CheckExpectedPrice(cfg *models.SaleConfig, p models.Phase, expected uint64) error {
	if Price(cfg, p) != expected {
		return models.NewError(models.ErrInvalidMintPrice, "expected_price does not match the current phase price")
	}
	return nil
}

// RequireMintable fails if the phase does not permit minting at all. It
// does not check pricing; callers call CheckExpectedPrice separately.
//
// The Allowlist phase being open is necessary but not sufficient: per
// validate_mint_phase, a mint attempt during Allowlist is only live for
// a given buyer when they supplied a Merkle proof or the machine gates
// minting on SPL token holdership — otherwise nothing actually checked
// the buyer against an allowlist, and the window must reject exactly
// like Premint.
func RequireMintable(p models.Phase, hasProof, tokenAllowlistConfigured bool) error {
	switch p {
	case models.PhaseExpired:
		return models.NewError(models.ErrPublicPhaseEnded, "public sale has ended")
	case models.PhasePremint:
		return models.NewError(models.ErrPhaseNotLiveAllowlist, "sale has not entered the allowlist or public phase yet")
	case models.PhaseAllowlist:
		if !hasProof && !tokenAllowlistConfigured {
			return models.NewError(models.ErrPhaseNotLiveAllowlist, "allowlist phase requires a merkle proof or token-holdership gate")
		}
		return nil
	default:
		return nil
	}
}
