// Package orchestrator drives the MintNFT operation through the
// ordered gates of §4.7: the single state machine every other package
// in this tree (phase, merkle, configline/inventory, ledger, freeze,
// antibot, chainfeed) exists to serve.
package orchestrator

import (
	"context"
	"log"

	"github.com/rawblock/mint-engine/internal/antibot"
	"github.com/rawblock/mint-engine/internal/chainfeed"
	"github.com/rawblock/mint-engine/internal/configline"
	"github.com/rawblock/mint-engine/internal/freeze"
	"github.com/rawblock/mint-engine/internal/ledger"
	"github.com/rawblock/mint-engine/internal/lock"
	"github.com/rawblock/mint-engine/internal/machine"
	"github.com/rawblock/mint-engine/internal/merkle"
	"github.com/rawblock/mint-engine/internal/metadatasvc"
	"github.com/rawblock/mint-engine/internal/phase"
	"github.com/rawblock/mint-engine/internal/pricing"
	"github.com/rawblock/mint-engine/internal/store"
	"github.com/rawblock/mint-engine/internal/tokensvc"
	"github.com/rawblock/mint-engine/pkg/models"
)

// Orchestrator holds everything a Mint call needs to run the gate
// sequence against persisted state.
type Orchestrator struct {
	Store     store.Store
	Locks     *lock.KeyedMutex
	Chain     *chainfeed.Poller
	Metadata  *metadatasvc.Client
	Token     *tokensvc.Client
	ProgramID string
}

// Mint runs §4.7's 22 ordered gates for one MintNFT call. A gate
// failure is returned as a *models.MachineError; errors from the store
// or the external clients are returned unchanged. The caller
// (internal/api) checks which of the two it got to decide HTTP status.
func (o *Orchestrator) Mint(ctx context.Context, req models.MintRequest) (*models.MintResult, error) {
	o.Locks.Lock(req.MachineID)
	defer o.Locks.Unlock(req.MachineID)

	m, suffix, err := o.Store.GetMachine(ctx, req.MachineID)
	if err != nil {
		return nil, err
	}

	freezeRec, ferr := o.Store.GetFreezeRecord(ctx, req.MachineID)
	if ferr != nil && ferr != store.ErrNotFound {
		return nil, ferr
	}

	result, mintErr := o.runGates(ctx, m, suffix, freezeRec, req)
	if mintErr == nil {
		return result, nil
	}

	kind, ok := errorKind(mintErr)
	if !ok || !antibot.IsTaxable(kind) {
		return nil, mintErr
	}

	// Bot-tax: commit a fixed penalty transfer and return success rather
	// than propagating the failure (§4.8).
	if err := o.Token.TransferNative(ctx, req.Buyer, m.Treasury, antibot.TaxAmount); err != nil {
		return nil, err
	}
	log.Printf("[orchestrator] bot-tax collected on machine %s buyer %s: %v", req.MachineID, req.Buyer, mintErr)
	return &models.MintResult{
		BotTaxed:      true,
		ErrorCode:     kind.String(),
		ItemsRedeemed: m.ItemsRedeemed,
	}, nil
}

func errorKind(err error) (models.ErrorKind, bool) {
	me, ok := err.(*models.MachineError)
	if !ok {
		return 0, false
	}
	return me.Kind, true
}

// runGates executes steps 1-22 against in-memory state, persisting only
// once every gate has passed (or never, on hard failure) so a failed
// mint never leaves partial effects (§5).
func (o *Orchestrator) runGates(ctx context.Context, m *models.Machine, suffix *configline.Suffix, freezeRec *models.FreezeRecord, req models.MintRequest) (*models.MintResult, error) {
	// Step 1: target metadata slot must be empty. The engine's analogue
	// is that the resolved inventory slot has not already been claimed;
	// checked again at step 18 once the slot is chosen, but a coarse
	// early check here preserves the "hard fail precedes any fee" rule.
	if m.ItemsRedeemed >= m.Data.ItemsAvailable {
		return nil, models.NewError(models.ErrMachineEmpty, "no slots remain")
	}

	// Steps 2-3: anti-bot signer.
	if err := antibot.CheckSigner(m.Data.BotProtectionEnabled, req.BotSignerAuthority, req.BotSignerSigned); err != nil {
		return nil, err
	}

	// Step 4: remaining-account count against the derived schema.
	schema := pricing.Resolve(&m.Data, m.TreasuryMint != "", machine.FreezeOn(m))
	if err := antibot.CheckRemainingAccounts(len(req.RemainingAccounts), schema.Count()); err != nil {
		return nil, err
	}

	// Step 5: items_redeemed < items_available (already checked above,
	// restated per the documented step order).
	if m.ItemsRedeemed >= m.Data.ItemsAvailable {
		return nil, models.NewError(models.ErrMachineEmpty, "no slots remain")
	}

	// Step 6: recent-hashes register identity.
	currentHash, ok := o.Chain.CurrentHash()
	if !ok {
		return nil, models.NewError(models.ErrSlotHashesEmpty, "no recent chain hash cached yet")
	}
	if err := chainfeed.CheckCanonical(req.RecentHashesPubkey, currentHash); err != nil {
		return nil, err
	}

	// Step 7: program identity.
	if err := antibot.CheckProgramIdentity(req.ProgramID, o.ProgramID); err != nil {
		return nil, err
	}

	// Step 8: trailing collection-binding operation.
	if err := antibot.CheckNextOperation(req.NextOperation, machine.CollectionsOn(m)); err != nil {
		return nil, err
	}

	// Step 9: every program identity in the enclosing transaction.
	if err := antibot.CheckTransactionProgramIDs(req.TransactionProgramIDs, o.ProgramID); err != nil {
		return nil, err
	}

	// Step 10: phase validation, with omni-mint override (§4.6: omni
	// wallets bypass every phase check except Expired). The Allowlist
	// phase is only actually live for this buyer if they supplied a
	// Merkle proof or the machine gates minting on SPL token
	// holdership; a bare allowlist window with neither configured must
	// reject exactly like Premint.
	isOmni := ledger.IsOmniMinter(&m.Data, req.Buyer)
	ph := phase.Resolve(&m.Data, req.Now)
	hasProof := req.MerkleProof != nil
	tokenAllowlistConfigured := m.Data.SplTokenAllowlistSettings != nil
	if !isOmni || ph == models.PhaseExpired {
		if err := phase.RequireMintable(ph, hasProof, tokenAllowlistConfigured); err != nil {
			return nil, err
		}
	}

	// Step 11: price.
	price := phase.Price(&m.Data, ph)
	if err := phase.CheckExpectedPrice(&m.Data, ph, req.ExpectedPrice); err != nil {
		return nil, err
	}

	// Step 12: BuyerInfo allocated lazily.
	var buyerInfo *models.BuyerInfo
	if ledger.ShouldTrackBuyer(m.Data.LimitPerAddress, hasProof) {
		existing, err := o.Store.GetBuyerInfo(ctx, req.MachineID, req.Buyer)
		if err != nil && err != store.ErrNotFound {
			return nil, err
		}
		if existing != nil {
			buyerInfo = existing
		} else {
			buyerInfo = &models.BuyerInfo{MachineID: req.MachineID, Buyer: req.Buyer}
		}
	}

	// Step 13: Merkle proof.
	if hasProof {
		if err := merkle.Verify(req.Buyer, req.MachineID, *req.MerkleProof, m.Data.MerkleAllowlistRootList); err != nil {
			return nil, err
		}
		if buyerInfo != nil {
			if err := ledger.ConsumeAllowlist(buyerInfo, req.MerkleProof.Amount); err != nil {
				return nil, err
			}
		}
	}

	// Steps 18 and 22 are resolved here, ahead of their documented
	// position, because every step from here on performs a real
	// external side effect (a token burn, a payment transfer, a mint,
	// a metadata issuance) that internal/tokensvc and
	// internal/metadatasvc do not roll back on a later failure — unlike
	// the original on-chain instruction, where the whole transaction
	// reverts on any CPI error. §5 requires a mint to commit in full or
	// be discarded in full, so every check still capable of a hard
	// failure must run before the first irreversible call (§4.8).

	// Step 18: select inventory slot.
	seed, ok := o.Chain.CurrentSeed()
	if !ok {
		return nil, models.NewError(models.ErrSlotHashesEmpty, "no PRNG seed cached yet")
	}
	slotIndex, configLine, err := configline.Take(m, suffix, seed, ph == models.PhasePremint)
	if err != nil {
		return nil, err
	}

	// Step 22: update BuyerInfo counters (§4.6: the public-phase limit
	// only applies during the Public phase itself).
	if buyerInfo != nil && ph == models.PhasePublic {
		if err := ledger.ConsumePublic(buyerInfo, m.Data.LimitPerAddress, isOmni); err != nil {
			return nil, err
		}
	}

	// Step 14: token-holdership allowlist, if configured. BurnOne is
	// the first irreversible external call in the gate sequence.
	if s := m.Data.SplTokenAllowlistSettings; s != nil {
		bal, err := o.Token.Balance(ctx, s.Mint, req.Buyer)
		if err != nil {
			return nil, err
		}
		if bal == 0 {
			return nil, models.NewError(models.ErrNoAllowlistToken, "buyer holds no allowlist token")
		}
		if s.Mode == models.BurnEveryTime {
			if err := o.Token.BurnOne(ctx, s.Mint, req.Buyer); err != nil {
				return nil, err
			}
		}
	}

	// Step 15: resolve payment destination.
	thawEligible := freezeRec != nil && freeze.ThawEligible(freezeRec, m.ItemsRedeemed, m.Data.ItemsAvailable, req.Now)
	routeToFreeze := machine.FreezeOn(m) && !thawEligible
	destination := m.Treasury
	if routeToFreeze {
		destination = req.MachineID // escrow is keyed by the machine's FreezeRecord
	}

	// Step 16: transfer payment.
	if m.TreasuryMint != "" {
		if err := o.Token.TransferSPL(ctx, m.TreasuryMint, req.Buyer, destination, price); err != nil {
			return nil, err
		}
	} else {
		if err := o.Token.TransferNative(ctx, req.Buyer, destination, price); err != nil {
			return nil, err
		}
	}

	// Step 17: create the NFT mint account and mint 1 unit to the
	// buyer. The mint identity is derived per mint (machine, buyer, and
	// the redemption ordinal this call is claiming) so no two mints,
	// even on the same machine, ever collide on one address.
	nftMint := machine.NFTMintID(req.MachineID, req.Buyer, m.ItemsRedeemed)
	if err := o.Token.CreateAndMintOne(ctx, nftMint, req.Buyer); err != nil {
		return nil, err
	}

	// Step 19: issue metadata/master edition, then finalize creators and
	// update authority.
	cmCreator := ""
	if len(m.Data.Creators) > 0 {
		cmCreator = m.Data.Creators[0].Address
	}
	if _, err := o.Metadata.Issue(ctx, metadatasvc.IssueRequest{
		NFTMint:              nftMint,
		Name:                 configLine.Name,
		URI:                  configLine.URI,
		SellerFeeBasisPoints: m.Data.SellerFeeBasisPoints,
		Creators:             m.Data.Creators,
		CmCreatorAddress:     cmCreator,
	}, m.CreatorAuthority); err != nil {
		return nil, err
	}

	// Step 20: increment items_redeemed.
	m.ItemsRedeemed++

	// Step 21: frozen-mint bookkeeping.
	routedToFreeze := false
	if routeToFreeze && freezeRec != nil {
		freeze.RecordFrozenMint(freezeRec, req.Now)
		if freezeRec.FreezeFee > 0 {
			if err := o.Token.TransferNative(ctx, req.Buyer, req.MachineID, freezeRec.FreezeFee); err != nil {
				return nil, err
			}
		}
		if err := o.Metadata.Freeze(ctx, nftMint, req.MachineID); err != nil {
			return nil, err
		}
		routedToFreeze = true
	}

	if err := o.Store.SaveMachine(ctx, m, suffix); err != nil {
		return nil, err
	}
	if buyerInfo != nil {
		if err := o.Store.SaveBuyerInfo(ctx, buyerInfo); err != nil {
			return nil, err
		}
	}
	if routedToFreeze {
		if err := o.Store.SaveFreezeRecord(ctx, freezeRec); err != nil {
			return nil, err
		}
	}

	return &models.MintResult{
		NFTMint:        nftMint,
		ConfigLine:     configLine,
		SlotIndex:      slotIndex,
		PricePaid:      price,
		RoutedToFreeze: routedToFreeze,
		ItemsRedeemed:  m.ItemsRedeemed,
	}, nil
}
