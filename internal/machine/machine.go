// Package machine implements the Machine lifecycle (§4.2) and the schema
// invariants (§3) that back every other component: the root sale record,
// its validation rules, and the operations that mutate it outside of a
// mint (Initialize, UpdateData, UpdateAuthority, SetCollection,
// RemoveCollection, Withdraw, AppendMerkleRoots, ClearMerkleRoots).
// AddConfigLines lives in internal/configline.
package machine

import (
	"strings"

	"github.com/rawblock/mint-engine/pkg/models"
)

const (
	maxOmniMintWallets = 5
	maxCreators        = 4
	maxMerkleRoots     = 100
	symbolFixedLen     = 10
	uuidFixedLen       = 6
)

func fail(kind models.ErrorKind, msg string) error {
	return models.NewError(kind, msg)
}

// ValidateSaleConfig enforces the invariants of §3/§4.2 that apply to any
// CandyMachineData-equivalent payload, independent of whether it arrives
// via Initialize or UpdateData.
func ValidateSaleConfig(cfg *models.SaleConfig) error {
	if len(cfg.Creators) == 0 || len(cfg.Creators) > maxCreators {
		return fail(models.ErrTooManyCreators, "creators length must be in [1,4]")
	}
	var shareSum int
	verifiedCount := 0
	for _, c := range cfg.Creators {
		shareSum += int(c.Share)
		if c.Verified {
			verifiedCount++
		}
	}
	if shareSum != 100 {
		return fail(models.ErrTooManyCreators, "creator shares must sum to 100")
	}

	if len(cfg.OmniMintWallets) > maxOmniMintWallets {
		return fail(models.ErrTooManyOmniWallets, "omni-mint wallet list exceeds 5")
	}

	if cfg.AllowlistSaleStartTime != nil && *cfg.AllowlistSaleStartTime >= cfg.PublicSaleStartTime {
		return fail(models.ErrInvalidPhaseTimes, "allowlist_sale_start_time must be strictly before public_sale_start_time")
	}
	if cfg.PublicSaleStartTime >= cfg.PublicSaleEndTime {
		return fail(models.ErrInvalidPhaseTimes, "public_sale_start_time must be strictly before public_sale_end_time")
	}

	if cfg.SplTokenAllowlistSettings != nil && len(cfg.MerkleAllowlistRootList) > 0 {
		return fail(models.ErrInvalidAllowlistSettings, "token-holdership and Merkle allowlists are mutually exclusive")
	}
	if len(cfg.MerkleAllowlistRootList) > maxMerkleRoots {
		return fail(models.ErrTooManyRoots, "merkle allowlist root list exceeds 100")
	}

	if len(cfg.UUID) != uuidFixedLen {
		return fail(models.ErrUuidLength, "uuid must be exactly 6 bytes")
	}

	return nil
}

// padSymbol right-pads symbol with zero bytes to the fixed wire length (§4.2).
func padSymbol(symbol string) string {
	if len(symbol) >= symbolFixedLen {
		return symbol[:symbolFixedLen]
	}
	return symbol + strings.Repeat("\x00", symbolFixedLen-len(symbol))
}

// InitializeMachine validates cfg and builds the initial Machine record
// (§4.2, "Initialize"). The caller is responsible for allocating the
// trailing config-line region when cfg carries no HiddenSettings (see
// internal/configline).
func InitializeMachine(id, saleAuthority, creatorAuthority, treasury, treasuryMint string, cfg models.SaleConfig) (*models.Machine, error) {
	if err := ValidateSaleConfig(&cfg); err != nil {
		return nil, err
	}
	if treasuryMint != "" && treasury == "" {
		return nil, fail(models.ErrPubkeyMismatch, "treasury destination required when treasury_mint is set")
	}

	cfg.Symbol = padSymbol(cfg.Symbol)

	m := &models.Machine{
		ID:               id,
		SaleAuthority:    saleAuthority,
		CreatorAuthority: creatorAuthority,
		Treasury:         treasury,
		TreasuryMint:     treasuryMint,
		ItemsRedeemed:    0,
		Data:             cfg,
		Feature:          DefaultFeature(), // forced regardless of input, per §4.2
	}
	return m, nil
}

// UpdateData replaces all config except the feature string, items_redeemed,
// and treasury mint (§4.2, "UpdateData"). UpdateData never changes the
// treasury mint; freezeActive is accepted but not consulted (the
// freeze-gated check is CanChangeTreasuryMint).
func UpdateData(m *models.Machine, next models.SaleConfig, freezeActive bool) error {
	if err := ValidateSaleConfig(&next); err != nil {
		return err
	}

	wasHidden := m.Data.HiddenSettings != nil
	willBeHidden := next.HiddenSettings != nil

	if !wasHidden && !willBeHidden && next.ItemsAvailable != m.Data.ItemsAvailable {
		return fail(models.ErrCannotChangeItemsAvailable, "items_available cannot change for a non-hidden machine")
	}
	if !wasHidden && willBeHidden && m.ItemsRedeemed > 0 {
		return fail(models.ErrCannotSwitchToHidden, "cannot switch to hidden mode after any item has been redeemed")
	}

	next.Symbol = padSymbol(next.Symbol)

	preservedTreasuryMint := m.TreasuryMint
	preservedFeature := m.Feature
	preservedRedeemed := m.ItemsRedeemed

	m.Data = next
	m.TreasuryMint = preservedTreasuryMint
	m.Feature = preservedFeature
	m.ItemsRedeemed = preservedRedeemed

	_ = freezeActive // unused: the treasury mint is always carried over above
	return nil
}

// UpdateAuthority sets a new sale authority, rejected while freeze is on
// (§4.2, "UpdateAuthority").
func UpdateAuthority(m *models.Machine, newAuthority string, freezeActive bool) error {
	if freezeActive {
		return fail(models.ErrNoChangeAuthorityWithFreeze, "cannot change authority while freeze is active")
	}
	m.SaleAuthority = newAuthority
	return nil
}

// CanChangeTreasuryMint reports whether a treasury-mint change is allowed:
// only when freeze is off (§4.2, "UpdateData").
func CanChangeTreasuryMint(freezeActive bool) error {
	if freezeActive {
		return fail(models.ErrNoChangeTokenWithFreeze, "cannot change treasury mint while freeze is active")
	}
	return nil
}

// SetCollection binds a collection mint to the machine, rejected once any
// item has been redeemed (§4.2, "SetCollection").
func SetCollection(m *models.Machine) error {
	if m.ItemsRedeemed > 0 {
		return fail(models.ErrWrongCollectionAuthority, "cannot set collection after any item has been redeemed")
	}
	setCollectionsOn(m, true)
	return nil
}

// RemoveCollection unbinds a collection mint, rejected once any item has
// been redeemed (§4.2, "RemoveCollection").
func RemoveCollection(m *models.Machine) error {
	if m.ItemsRedeemed > 0 {
		return fail(models.ErrWrongCollectionAuthority, "cannot remove collection after any item has been redeemed")
	}
	setCollectionsOn(m, false)
	return nil
}

// Withdraw validates that a machine may be closed: rejected if the freeze
// or freeze-lock flags are on (§4.2, "Withdraw").
func Withdraw(m *models.Machine) error {
	if FreezeOn(m) {
		return fail(models.ErrNoWithdrawWithFreeze, "cannot withdraw while freeze is active")
	}
	if FreezeLockOn(m) {
		return fail(models.ErrNoWithdrawWithFrozenFunds, "cannot withdraw while frozen funds remain locked")
	}
	return nil
}

// MarkFreezeOn / MarkFreezeOff / MarkFreezeLockOn / MarkFreezeLockOff are
// small exported mutators the freeze package calls, wrapping machine's
// unexported feature-bit setters and keeping the feature string as the single source of truth for these
// flags (§9, "Feature string as compact flag set").
func MarkFreezeOn(m *models.Machine)      { setFreezeOn(m, true) }
func MarkFreezeOff(m *models.Machine)     { setFreezeOn(m, false) }
func MarkFreezeLockOn(m *models.Machine)  { setFreezeLockOn(m, true) }
func MarkFreezeLockOff(m *models.Machine) { setFreezeLockOn(m, false) }
