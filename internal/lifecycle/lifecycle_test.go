package lifecycle

import (
	"context"
	"testing"

	"github.com/rawblock/mint-engine/internal/configline"
	"github.com/rawblock/mint-engine/internal/lock"
	"github.com/rawblock/mint-engine/internal/store"
	"github.com/rawblock/mint-engine/pkg/models"
)

type memStore struct {
	machines   map[string]*models.Machine
	suffixes   map[string]*configline.Suffix
	freezes    map[string]*models.FreezeRecord
	bindings   map[string]*models.CollectionBinding
}

func newMemStore() *memStore {
	return &memStore{
		machines: make(map[string]*models.Machine),
		suffixes: make(map[string]*configline.Suffix),
		freezes:  make(map[string]*models.FreezeRecord),
		bindings: make(map[string]*models.CollectionBinding),
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
	return nil, store.ErrNotFound
}
func (s *memStore) SaveBuyerInfo(ctx context.Context, b *models.BuyerInfo) error { return nil }
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
	b, ok := s.bindings[machineID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}
func (s *memStore) SaveCollectionBinding(ctx context.Context, b *models.CollectionBinding) error {
	s.bindings[b.MachineID] = b
	return nil
}
func (s *memStore) DeleteMachine(ctx context.Context, id string) error {
	delete(s.machines, id)
	return nil
}

func testConfig() models.SaleConfig {
	return models.SaleConfig{
		Price:               100,
		ItemsAvailable:      10,
		UUID:                "abcdef",
		PublicSaleStartTime: 10,
		PublicSaleEndTime:   100,
		Creators:            []models.Creator{{Address: "c1", Verified: true, Share: 100}},
	}
}

func TestInitializeAllocatesConfigLineSuffix(t *testing.T) {
	s := newMemStore()
	mgr := NewManager(s, lock.NewKeyedMutex())
	m, err := mgr.Initialize(context.Background(), "m1", "auth", "creator", "treasury", "", testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sfx := s.suffixes["m1"]; sfx == nil || len(sfx.Lines) != 10 {
		t.Fatalf("expected a 10-line config-line suffix to be allocated, got %+v", sfx)
	}
	if m.Feature != ([6]byte{'0', '0', '0', '0', '0', '0'}) {
		t.Fatalf("expected default feature string, got %v", m.Feature)
	}
}

func TestAddConfigLinesRoundTrip(t *testing.T) {
	s := newMemStore()
	mgr := NewManager(s, lock.NewKeyedMutex())
	if _, err := mgr.Initialize(context.Background(), "m1", "auth", "creator", "treasury", "", testConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := mgr.AddConfigLines(context.Background(), "m1", 0, []models.ConfigLine{{Name: "n0", URI: "u0"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.suffixes["m1"].Lines[0].Name != "n0" {
		t.Fatalf("config line not persisted: %+v", s.suffixes["m1"].Lines[0])
	}
}

func TestSetFreezeThenRemoveFreeze(t *testing.T) {
	s := newMemStore()
	mgr := NewManager(s, lock.NewKeyedMutex())
	if _, err := mgr.Initialize(context.Background(), "m1", "auth", "creator", "treasury", "", testConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := mgr.SetFreeze(context.Background(), "m1", 3600, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.MachineID != "m1" {
		t.Fatalf("expected freeze record stamped with machine id, got %q", f.MachineID)
	}
	if err := mgr.RemoveFreeze(context.Background(), "m1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.freezes["m1"].AllowThaw {
		t.Fatal("expected allow_thaw to be set after RemoveFreeze")
	}
}

func TestWithdrawRejectedWhileFrozen(t *testing.T) {
	s := newMemStore()
	mgr := NewManager(s, lock.NewKeyedMutex())
	if _, err := mgr.Initialize(context.Background(), "m1", "auth", "creator", "treasury", "", testConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mgr.SetFreeze(context.Background(), "m1", 3600, 0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mgr.Withdraw(context.Background(), "m1"); err == nil {
		t.Fatal("expected withdraw to be rejected while freeze is active")
	}
}
