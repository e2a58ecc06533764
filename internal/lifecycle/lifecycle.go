// Package lifecycle executes every Machine operation of §4.2 and §4.9
// other than MintNFT (that one belongs to internal/orchestrator): the
// CRUD-shaped calls an operator or the sale authority makes against a
// Machine's persisted record, each serialized under the owning
// Machine's mutex.
package lifecycle

import (
	"context"

	"github.com/rawblock/mint-engine/internal/configline"
	"github.com/rawblock/mint-engine/internal/freeze"
	"github.com/rawblock/mint-engine/internal/lock"
	"github.com/rawblock/mint-engine/internal/machine"
	"github.com/rawblock/mint-engine/internal/store"
	"github.com/rawblock/mint-engine/pkg/models"
)

type Manager struct {
	Store store.Store
	Locks *lock.KeyedMutex
}

func NewManager(s store.Store, locks *lock.KeyedMutex) *Manager {
	return &Manager{Store: s, Locks: locks}
}

// Initialize creates a new Machine record (§4.2, "Initialize").
func (mgr *Manager) Initialize(ctx context.Context, id, saleAuthority, creatorAuthority, treasury, treasuryMint string, cfg models.SaleConfig) (*models.Machine, error) {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, err := machine.InitializeMachine(id, saleAuthority, creatorAuthority, treasury, treasuryMint, cfg)
	if err != nil {
		return nil, err
	}

	var suffix *configline.Suffix
	if m.Data.HiddenSettings == nil {
		suffix = configline.NewSuffix(m.Data.ItemsAvailable)
	}

	if err := mgr.Store.SaveMachine(ctx, m, suffix); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateData replaces a Machine's config (§4.2, "UpdateData").
func (mgr *Manager) UpdateData(ctx context.Context, id string, next models.SaleConfig) (*models.Machine, error) {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := machine.UpdateData(m, next, machine.FreezeOn(m)); err != nil {
		return nil, err
	}
	if err := mgr.Store.SaveMachine(ctx, m, suffix); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateAuthority sets a new sale authority (§4.2, "UpdateAuthority").
func (mgr *Manager) UpdateAuthority(ctx context.Context, id, newAuthority string) (*models.Machine, error) {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := machine.UpdateAuthority(m, newAuthority, machine.FreezeOn(m)); err != nil {
		return nil, err
	}
	if err := mgr.Store.SaveMachine(ctx, m, suffix); err != nil {
		return nil, err
	}
	return m, nil
}

// AddConfigLines writes inventory slots into the trailing suffix
// (§4.2, "AddConfigLines").
func (mgr *Manager) AddConfigLines(ctx context.Context, id string, startIndex uint64, lines []models.ConfigLine) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	if suffix == nil {
		return models.NewError(models.ErrHiddenVsConfigLines, "machine has no config-line region allocated")
	}
	if err := configline.AddConfigLines(m, suffix, startIndex, lines); err != nil {
		return err
	}
	return mgr.Store.SaveMachine(ctx, m, suffix)
}

// AppendMerkleRoots pushes roots onto the allowlist root list
// (§4.2, "AppendMerkleRoots").
func (mgr *Manager) AppendMerkleRoots(ctx context.Context, id string, roots [][32]byte) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	if err := machine.AppendMerkleRoots(m, roots); err != nil {
		return err
	}
	return mgr.Store.SaveMachine(ctx, m, suffix)
}

// ClearMerkleRoots empties the allowlist root list (§4.2,
// "ClearMerkleRoots").
func (mgr *Manager) ClearMerkleRoots(ctx context.Context, id string) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	machine.ClearMerkleRoots(m)
	return mgr.Store.SaveMachine(ctx, m, suffix)
}

// SetCollection binds a collection mint to the machine (§4.2,
// "SetCollection").
func (mgr *Manager) SetCollection(ctx context.Context, id, mint string) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	if err := machine.SetCollection(m); err != nil {
		return err
	}
	if err := mgr.Store.SaveMachine(ctx, m, suffix); err != nil {
		return err
	}
	return mgr.Store.SaveCollectionBinding(ctx, &models.CollectionBinding{Mint: mint, MachineID: id})
}

// RemoveCollection unbinds a collection mint (§4.2, "RemoveCollection").
func (mgr *Manager) RemoveCollection(ctx context.Context, id string) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	if err := machine.RemoveCollection(m); err != nil {
		return err
	}
	return mgr.Store.SaveMachine(ctx, m, suffix)
}

// Withdraw closes the machine (§4.2, "Withdraw").
func (mgr *Manager) Withdraw(ctx context.Context, id string) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, _, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	if err := machine.Withdraw(m); err != nil {
		return err
	}
	return mgr.Store.DeleteMachine(ctx, id)
}

// SetFreeze activates the freeze feature (§4.9, "SetFreeze").
func (mgr *Manager) SetFreeze(ctx context.Context, id string, freezeTime int64, freezeFee uint64, changingTokenMint bool) (*models.FreezeRecord, error) {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := freeze.SetFreeze(m, freezeTime, freezeFee, changingTokenMint)
	if err != nil {
		return nil, err
	}
	f.MachineID = id
	if err := mgr.Store.SaveMachine(ctx, m, suffix); err != nil {
		return nil, err
	}
	if err := mgr.Store.SaveFreezeRecord(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RemoveFreeze begins unwinding an active freeze (§4.9, "RemoveFreeze").
func (mgr *Manager) RemoveFreeze(ctx context.Context, id string) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	f, err := mgr.Store.GetFreezeRecord(ctx, id)
	if err != nil {
		return err
	}
	freeze.RemoveFreeze(m, f)
	if err := mgr.Store.SaveMachine(ctx, m, suffix); err != nil {
		return err
	}
	return mgr.Store.SaveFreezeRecord(ctx, f)
}

// ThawNFT releases one frozen mint (§4.9, "ThawNFT").
func (mgr *Manager) ThawNFT(ctx context.Context, id string, now int64) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, _, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	f, err := mgr.Store.GetFreezeRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := freeze.AssertOwnedBy(f, id); err != nil {
		return err
	}
	if err := freeze.ThawNFT(f, m.ItemsRedeemed, m.Data.ItemsAvailable, now); err != nil {
		return err
	}
	return mgr.Store.SaveFreezeRecord(ctx, f)
}

// UnlockFunds drains the freeze escrow once every frozen mint has
// thawed (§4.9, "UnlockFunds").
func (mgr *Manager) UnlockFunds(ctx context.Context, id string) error {
	mgr.Locks.Lock(id)
	defer mgr.Locks.Unlock(id)

	m, suffix, err := mgr.Store.GetMachine(ctx, id)
	if err != nil {
		return err
	}
	f, err := mgr.Store.GetFreezeRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := freeze.UnlockFunds(m, f); err != nil {
		return err
	}
	if err := mgr.Store.SaveMachine(ctx, m, suffix); err != nil {
		return err
	}
	return mgr.Store.SaveFreezeRecord(ctx, f)
}
