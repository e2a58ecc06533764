package orchestrator

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"golang.org/x/crypto/sha3"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/rawblock/mint-engine/internal/antibot"
	"github.com/rawblock/mint-engine/internal/chainfeed"
	"github.com/rawblock/mint-engine/internal/configline"
	"github.com/rawblock/mint-engine/internal/freeze"
	"github.com/rawblock/mint-engine/internal/lock"
	"github.com/rawblock/mint-engine/internal/metadatasvc"
	"github.com/rawblock/mint-engine/internal/store"
	"github.com/rawblock/mint-engine/internal/tokensvc"
	"github.com/rawblock/mint-engine/pkg/models"
)

type memStore struct {
	machines map[string]*models.Machine
	suffixes map[string]*configline.Suffix
	buyers   map[string]*models.BuyerInfo
	freezes  map[string]*models.FreezeRecord
}

func newMemStore() *memStore {
	return &memStore{
		machines: make(map[string]*models.Machine),
		suffixes: make(map[string]*configline.Suffix),
		buyers:   make(map[string]*models.BuyerInfo),
		freezes:  make(map[string]*models.FreezeRecord),
	}
}

func (s *memStore) GetMachine(ctx context.Context, id string) (*models.Machine, *configline.Suffix, error) {
	m, ok := s.machines[id]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	return m, s.suffixes[id], nil
}
func (s *memStore) SaveMachine(ctx context.Context, m *models.Machine, suffix *configline.Suffix) error {
	s.machines[m.ID] = m
	s.suffixes[m.ID] = suffix
	return nil
}
func (s *memStore) ListMachineIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.machines))
	for id := range s.machines {
		ids = append(ids, id)
	}
	return ids, nil
}
func (s *memStore) GetBuyerInfo(ctx context.Context, machineID, buyer string) (*models.BuyerInfo, error) {
	b, ok := s.buyers[machineID+"/"+buyer]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}
func (s *memStore) SaveBuyerInfo(ctx context.Context, b *models.BuyerInfo) error {
	s.buyers[b.MachineID+"/"+b.Buyer] = b
	return nil
}
func (s *memStore) GetFreezeRecord(ctx context.Context, machineID string) (*models.FreezeRecord, error) {
	f, ok := s.freezes[machineID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f, nil
}
func (s *memStore) SaveFreezeRecord(ctx context.Context, f *models.FreezeRecord) error {
	s.freezes[f.MachineID] = f
	return nil
}
func (s *memStore) GetCollectionBinding(ctx context.Context, machineID string) (*models.CollectionBinding, error) {
	return nil, store.ErrNotFound
}
func (s *memStore) SaveCollectionBinding(ctx context.Context, b *models.CollectionBinding) error {
	return nil
}
func (s *memStore) DeleteMachine(ctx context.Context, id string) error {
	delete(s.machines, id)
	return nil
}

func testMachine() (*models.Machine, *configline.Suffix) {
	m := &models.Machine{
		ID:               "machine-1",
		SaleAuthority:    "auth",
		CreatorAuthority: "creator",
		Treasury:         "treasury",
		Data: models.SaleConfig{
			Price:               1000,
			ItemsAvailable:      4,
			PublicSaleStartTime: 100,
			PublicSaleEndTime:   1000,
			Creators:            []models.Creator{{Address: "creator", Verified: true, Share: 100}},
			BotProtectionEnabled: false,
		},
	}
	suffix := configline.NewSuffix(4)
	for i := range suffix.Lines {
		suffix.Lines[i] = models.ConfigLine{Name: "item", URI: "ipfs://x"}
	}
	return m, suffix
}

func testOrchestrator(s store.Store, chain *chainfeed.Poller) *Orchestrator {
	return &Orchestrator{
		Store:     s,
		Locks:     lock.NewKeyedMutex(),
		Chain:     chain,
		Metadata:  metadatasvc.NewClient(""),
		Token:     tokensvc.NewClient(),
		ProgramID: "engine-1",
	}
}

// unseededPoller builds a Poller with no cached seed/hash and no
// backing RPC client, for the failure-path test below.
func unseededPoller() *chainfeed.Poller {
	return chainfeed.NewPoller(nil)
}

// canonicalHash is the fixed recent-chain hash every seeded test
// orchestrator resolves, so requests can declare it as their
// RecentHashesPubkey and clear gate 6.
var canonicalHash = chainhash.Hash{0x01, 0x02, 0x03}

// seededPoller builds a Poller pre-seeded with canonicalHash and no
// live RPC client, so the mint happy path can run without one
// (internal/chainfeed.NewPollerWithSeed).
func seededPoller() *chainfeed.Poller {
	return chainfeed.NewPollerWithSeed(canonicalHash, chainfeed.Seed(&canonicalHash))
}

func baseRequest(m *models.Machine) models.MintRequest {
	return models.MintRequest{
		MachineID:          m.ID,
		Buyer:              "buyer-1",
		ExpectedPrice:      m.Data.Price,
		BotSignerAuthority: antibot.SignerAuthority,
		RecentHashesPubkey: canonicalHash.String(),
		ProgramID:          "engine-1",
		Now:                500,
	}
}

func TestMintFailsWithoutCachedSeed(t *testing.T) {
	s := newMemStore()
	m, suffix := testMachine()
	s.SaveMachine(context.Background(), m, suffix)

	o := testOrchestrator(s, unseededPoller())
	req := baseRequest(m)
	_, err := o.Mint(context.Background(), req)
	if err == nil {
		t.Fatal("expected an error when no chain seed has been cached yet")
	}
}

func TestMintRejectsUnknownMachine(t *testing.T) {
	s := newMemStore()
	o := testOrchestrator(s, seededPoller())
	_, err := o.Mint(context.Background(), models.MintRequest{MachineID: "nope"})
	if err == nil {
		t.Fatal("expected an error for an unknown machine")
	}
}

func TestErrorKindExtractsMachineError(t *testing.T) {
	_, ok := errorKind(models.NewError(models.ErrMachineEmpty, "x"))
	if !ok {
		t.Fatal("expected errorKind to recognize a *MachineError")
	}
	_, ok = errorKind(errors.New("plain error"))
	if ok {
		t.Fatal("errorKind should not recognize non-MachineError types")
	}
}

// merkleLeaf reproduces internal/merkle's unexported leaf hash so tests
// can commit a root without a proof's sibling path.
func merkleLeaf(buyer, machineID string, amount uint16) [32]byte {
	var amountLE [2]byte
	binary.LittleEndian.PutUint16(amountLE[:], amount)
	d := sha3.NewLegacyKeccak256()
	d.Write([]byte{0x00})
	d.Write([]byte(buyer))
	d.Write([]byte(machineID))
	d.Write(amountLE[:])
	var out [32]byte
	copy(out[:], d.Sum(nil))
	return out
}

func publicMachine(itemsAvailable uint64) (*models.Machine, *configline.Suffix) {
	m := &models.Machine{
		ID:               "machine-public",
		SaleAuthority:    "auth",
		CreatorAuthority: "creator",
		Treasury:         "treasury",
		Data: models.SaleConfig{
			Price:               1000,
			ItemsAvailable:      itemsAvailable,
			PublicSaleStartTime: 100,
			PublicSaleEndTime:   1000,
			Creators:            []models.Creator{{Address: "creator", Verified: true, Share: 100}},
		},
	}
	suffix := configline.NewSuffix(itemsAvailable)
	for i := range suffix.Lines {
		suffix.Lines[i] = models.ConfigLine{Name: "item", URI: "ipfs://x"}
	}
	return m, suffix
}

// TestMintTwentyFivePublicMintsSucceed drives 25 successful public-phase
// mints against a 25-item machine, then confirms the 26th cleanly fails
// with the machine empty and that every minted NFTMint was distinct.
func TestMintTwentyFivePublicMintsSucceed(t *testing.T) {
	s := newMemStore()
	m, suffix := publicMachine(25)
	s.SaveMachine(context.Background(), m, suffix)
	o := testOrchestrator(s, seededPoller())

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		req := baseRequest(m)
		result, err := o.Mint(context.Background(), req)
		if err != nil {
			t.Fatalf("mint %d: unexpected error: %v", i, err)
		}
		if result.BotTaxed {
			t.Fatalf("mint %d: unexpectedly bot-taxed", i)
		}
		if seen[result.NFTMint] {
			t.Fatalf("mint %d: NFTMint %q collided with an earlier mint", i, result.NFTMint)
		}
		seen[result.NFTMint] = true
	}

	final, _, _ := s.GetMachine(context.Background(), m.ID)
	if final.ItemsRedeemed != 25 {
		t.Fatalf("items_redeemed = %d, want 25", final.ItemsRedeemed)
	}

	_, err := o.Mint(context.Background(), baseRequest(m))
	if err == nil {
		t.Fatal("expected the 26th mint to fail; machine should be empty")
	}
	kind, ok := errorKind(err)
	if !ok || kind != models.ErrMachineEmpty {
		t.Fatalf("got %v, want ErrMachineEmpty", err)
	}
}

// TestMintMerkleAllowlistExhaustion commits a single-leaf root for one
// buyer's allowlist entry and confirms the second mint attempt against
// the same proof is rejected once allowlist_consumed reaches amount.
func TestMintMerkleAllowlistExhaustion(t *testing.T) {
	s := newMemStore()
	m, suffix := testMachine()
	allowlistStart := int64(50)
	m.Data.AllowlistSaleStartTime = &allowlistStart

	buyer := "buyer-1"
	root := merkleLeaf(buyer, m.ID, 1)
	m.Data.MerkleAllowlistRootList = [][32]byte{root}
	s.SaveMachine(context.Background(), m, suffix)
	o := testOrchestrator(s, seededPoller())

	req := baseRequest(m)
	req.Now = 60 // inside the allowlist window, before public sale starts
	req.Buyer = buyer
	req.MerkleProof = &models.BuyerMerkleProof{Amount: 1, RootIndex: 0}

	if _, err := o.Mint(context.Background(), req); err != nil {
		t.Fatalf("first allowlist mint: unexpected error: %v", err)
	}

	_, err := o.Mint(context.Background(), req)
	if err == nil {
		t.Fatal("expected the second mint against the same exhausted proof to fail")
	}
	kind, ok := errorKind(err)
	if !ok || kind != models.ErrAllowlistExhausted {
		t.Fatalf("got %v, want ErrAllowlistExhausted", err)
	}
}

// TestMintTokenAllowlistBurnEveryTime confirms a machine gated on SPL
// token holdership (no Merkle proof at all) mints during the Allowlist
// phase, burning one allowlist token per the configured mode.
func TestMintTokenAllowlistBurnEveryTime(t *testing.T) {
	s := newMemStore()
	m, suffix := testMachine()
	allowlistStart := int64(50)
	m.Data.AllowlistSaleStartTime = &allowlistStart
	m.Data.SplTokenAllowlistSettings = &models.SplTokenAllowlistSettings{
		Mode: models.BurnEveryTime,
		Mint: "allowlist-token-mint",
	}
	s.SaveMachine(context.Background(), m, suffix)
	o := testOrchestrator(s, seededPoller())

	req := baseRequest(m)
	req.Now = 60 // inside the allowlist window, before public sale starts, no merkle proof supplied

	result, err := o.Mint(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BotTaxed {
		t.Fatal("token-gated allowlist mint should not be bot-taxed")
	}
}

// TestMintBuyLimitExceeded confirms a second public-phase mint past
// limit_per_address fails cleanly with no state mutation: items_redeemed
// and public_consumed must both remain exactly where the first, successful
// mint left them (§5's commit-in-full-or-discard-in-full requirement).
func TestMintBuyLimitExceeded(t *testing.T) {
	s := newMemStore()
	m, suffix := testMachine()
	m.Data.LimitPerAddress = 1
	s.SaveMachine(context.Background(), m, suffix)
	o := testOrchestrator(s, seededPoller())

	req := baseRequest(m)
	if _, err := o.Mint(context.Background(), req); err != nil {
		t.Fatalf("first mint: unexpected error: %v", err)
	}

	afterFirst, _, _ := s.GetMachine(context.Background(), m.ID)
	redeemedAfterFirst := afterFirst.ItemsRedeemed
	buyerAfterFirst, _ := s.GetBuyerInfo(context.Background(), m.ID, req.Buyer)
	publicAfterFirst := buyerAfterFirst.PublicConsumed

	_, err := o.Mint(context.Background(), req)
	if err == nil {
		t.Fatal("expected the second mint to fail against limit_per_address")
	}
	kind, ok := errorKind(err)
	if !ok || kind != models.ErrBuyLimitExceeded {
		t.Fatalf("got %v, want ErrBuyLimitExceeded", err)
	}

	afterSecond, _, _ := s.GetMachine(context.Background(), m.ID)
	if afterSecond.ItemsRedeemed != redeemedAfterFirst {
		t.Fatalf("items_redeemed changed on a failed mint: %d -> %d", redeemedAfterFirst, afterSecond.ItemsRedeemed)
	}
	buyerAfterSecond, _ := s.GetBuyerInfo(context.Background(), m.ID, req.Buyer)
	if buyerAfterSecond.PublicConsumed != publicAfterFirst {
		t.Fatalf("public_consumed changed on a failed mint: %d -> %d", publicAfterFirst, buyerAfterSecond.PublicConsumed)
	}
}

// TestMintFreezeThawUnlock drives a mint while freeze is active (routed
// to escrow), then a second mint once the record is thaw-eligible
// (routed straight to the treasury instead).
func TestMintFreezeThawUnlock(t *testing.T) {
	s := newMemStore()
	m, suffix := testMachine()
	freezeRec, err := freeze.SetFreeze(m, 1000, 0, false)
	if err != nil {
		t.Fatalf("SetFreeze: %v", err)
	}
	freezeRec.MachineID = m.ID
	s.SaveMachine(context.Background(), m, suffix)
	s.SaveFreezeRecord(context.Background(), freezeRec)
	o := testOrchestrator(s, seededPoller())

	req := baseRequest(m)
	result, err := o.Mint(context.Background(), req)
	if err != nil {
		t.Fatalf("frozen mint: unexpected error: %v", err)
	}
	if !result.RoutedToFreeze {
		t.Fatal("expected the mint to route to the freeze escrow")
	}
	frozen, _ := s.GetFreezeRecord(context.Background(), m.ID)
	if frozen.FrozenCount != 1 {
		t.Fatalf("frozen_count = %d, want 1", frozen.FrozenCount)
	}
	if frozen.MintStart == nil {
		t.Fatal("expected mint_start to be set on the first frozen mint")
	}

	freeze.RemoveFreeze(m, frozen)
	s.SaveMachine(context.Background(), m, suffix)
	s.SaveFreezeRecord(context.Background(), frozen)

	req2 := baseRequest(m)
	result2, err := o.Mint(context.Background(), req2)
	if err != nil {
		t.Fatalf("post-thaw mint: unexpected error: %v", err)
	}
	if result2.RoutedToFreeze {
		t.Fatal("expected the post-thaw mint to settle directly to the treasury")
	}

	if err := freeze.UnlockFunds(m, frozen); err == nil {
		t.Fatal("expected UnlockFunds to fail while a frozen NFT remains unthawed")
	}
	if err := freeze.ThawNFT(frozen, m.ItemsRedeemed, m.Data.ItemsAvailable, req2.Now); err != nil {
		t.Fatalf("ThawNFT: %v", err)
	}
	if err := freeze.UnlockFunds(m, frozen); err != nil {
		t.Fatalf("UnlockFunds after thawing the last frozen NFT: %v", err)
	}
}
