// Package freeze implements the freeze escrow state machine of §4.9:
// SetFreeze/RemoveFreeze/ThawNFT/UnlockFunds and thaw-eligibility,
// grounded on the original FreezePda.
package freeze

import (
	"github.com/rawblock/mint-engine/internal/machine"
	"github.com/rawblock/mint-engine/pkg/models"
)

// MaxFreezeTimeSeconds bounds freeze_time to 31 days (§3).
const MaxFreezeTimeSeconds = 31 * 24 * 3600

// State is the freeze lifecycle state derived from the machine's feature
// flags and the record's frozen_count (§4.9).
type State int

const (
	StateAbsent State = iota
	StateActive
	StateUnlocking
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "Absent"
	case StateActive:
		return "Active"
	case StateUnlocking:
		return "Unlocking"
	case StateDrained:
		return "Drained"
	default:
		return "Unknown"
	}
}

// Resolve derives the current freeze state (§4.9).
func Resolve(freezeOn, freezeLockOn bool, frozenCount uint64) State {
	switch {
	case freezeOn:
		return StateActive
	case !freezeOn && freezeLockOn && frozenCount > 0:
		return StateUnlocking
	case !freezeOn && freezeLockOn:
		return StateDrained
	default:
		return StateAbsent
	}
}

// SetFreeze transitions a machine from Absent to Active (§4.9). Setting
// freeze while also changing the machine's treasury mint is rejected
// once any item has been redeemed.
func SetFreeze(m *models.Machine, freezeTime int64, freezeFee uint64, changingTokenMint bool) (*models.FreezeRecord, error) {
	if freezeTime > MaxFreezeTimeSeconds {
		return nil, models.NewError(models.ErrFreezeTooLong, "freeze_time exceeds the 31-day maximum")
	}
	if changingTokenMint && m.ItemsRedeemed > 0 {
		return nil, models.NewError(models.ErrNoChangeTokenWithFreeze, "cannot change the treasury mint once any item has been redeemed")
	}
	machine.MarkFreezeOn(m)
	machine.MarkFreezeLockOn(m)
	return &models.FreezeRecord{
		AllowThaw:   false,
		FrozenCount: 0,
		FreezeTime:  freezeTime,
		FreezeFee:   freezeFee,
	}, nil
}

// RemoveFreeze transitions Active to Unlocking (§4.9): clears the freeze
// flag and sets allow_thaw. If nothing has been redeemed the record has
// no frozen NFTs to unwind, so the freeze-lock flag is cleared too and
// the transition lands directly on Drained.
func RemoveFreeze(m *models.Machine, f *models.FreezeRecord) {
	machine.MarkFreezeOff(m)
	f.AllowThaw = true
	if m.ItemsRedeemed == 0 {
		machine.MarkFreezeLockOff(m)
	}
}

// ThawEligible reports whether a frozen NFT may be thawed right now
// (§4.9, mirroring FreezePda.thaw_eligible): allow_thaw is set, the
// machine has sold out, or the freeze window has elapsed since the
// first frozen mint.
func ThawEligible(f *models.FreezeRecord, itemsRedeemed, itemsAvailable uint64, now int64) bool {
	if f.AllowThaw || itemsRedeemed >= itemsAvailable {
		return true
	}
	if f.MintStart != nil && now >= *f.MintStart+f.FreezeTime {
		return true
	}
	return false
}

// ThawNFT decrements frozen_count if the record is currently eligible.
func ThawNFT(f *models.FreezeRecord, itemsRedeemed, itemsAvailable uint64, now int64) error {
	if !ThawEligible(f, itemsRedeemed, itemsAvailable, now) {
		return models.NewError(models.ErrInvalidThaw, "not eligible to thaw yet")
	}
	if f.FrozenCount > 0 {
		f.FrozenCount--
	}
	return nil
}

// UnlockFunds transitions Unlocking to Drained (§4.9): rejected while
// any NFT remains frozen.
func UnlockFunds(m *models.Machine, f *models.FreezeRecord) error {
	if f.FrozenCount > 0 {
		return models.NewError(models.ErrNFTsStillFrozen, "cannot unlock escrow funds while frozen NFTs remain")
	}
	machine.MarkFreezeLockOff(m)
	return nil
}

// RecordFrozenMint applies step 21 of the mint orchestrator (§4.7) to a
// FreezeRecord once escrow routing has been decided: sets mint_start on
// the first frozen mint and increments frozen_count.
func RecordFrozenMint(f *models.FreezeRecord, now int64) {
	if f.MintStart == nil {
		t := now
		f.MintStart = &t
	}
	f.FrozenCount++
}

// AssertOwnedBy guards against a FreezeRecord being applied to the wrong
// machine (§9, assert_from_candy in the original).
func AssertOwnedBy(f *models.FreezeRecord, machineID string) error {
	if f.MachineID != machineID {
		return models.NewError(models.ErrFreezePdaMismatch, "freeze record does not belong to this machine")
	}
	return nil
}
