package ledger

import (
	"testing"

	"github.com/rawblock/mint-engine/pkg/models"
)

func TestShouldTrackBuyer(t *testing.T) {
	if ShouldTrackBuyer(0, false) {
		t.Fatal("no limit and no proof should not require tracking")
	}
	if !ShouldTrackBuyer(1, false) {
		t.Fatal("a configured limit should require tracking")
	}
	if !ShouldTrackBuyer(0, true) {
		t.Fatal("an allowlist proof should require tracking")
	}
}

func TestConsumeAllowlist(t *testing.T) {
	info := &models.BuyerInfo{}
	if err := ConsumeAllowlist(info, 2); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if info.AllowlistConsumed != 1 {
		t.Fatalf("got %d, want 1", info.AllowlistConsumed)
	}
	if err := ConsumeAllowlist(info, 2); err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if info.AllowlistConsumed != 2 {
		t.Fatalf("got %d, want 2", info.AllowlistConsumed)
	}
	err := ConsumeAllowlist(info, 2)
	if err == nil {
		t.Fatal("expected exhaustion error on the third attempt")
	}
	me, ok := err.(*models.MachineError)
	if !ok || me.Kind != models.ErrAllowlistExhausted {
		t.Fatalf("got %v, want ErrAllowlistExhausted", err)
	}
	if info.AllowlistConsumed != 2 {
		t.Fatal("a failed consume must not advance the counter")
	}
}

func TestConsumePublic(t *testing.T) {
	info := &models.BuyerInfo{}
	if err := ConsumePublic(info, 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.PublicConsumed != 1 {
		t.Fatalf("got %d, want 1", info.PublicConsumed)
	}
	err := ConsumePublic(info, 1, false)
	if err == nil {
		t.Fatal("expected limit-exceeded error")
	}
	me, ok := err.(*models.MachineError)
	if !ok || me.Kind != models.ErrBuyLimitExceeded {
		t.Fatalf("got %v, want ErrBuyLimitExceeded", err)
	}
}

func TestConsumePublicBypassesForOmniMinter(t *testing.T) {
	info := &models.BuyerInfo{PublicConsumed: 100}
	if err := ConsumePublic(info, 1, true); err != nil {
		t.Fatalf("omni minter should bypass the limit: %v", err)
	}
	if info.PublicConsumed != 100 {
		t.Fatal("an omni minter's counter must not be advanced")
	}
}

func TestConsumePublicZeroLimitIsUnlimited(t *testing.T) {
	info := &models.BuyerInfo{}
	for i := 0; i < 5; i++ {
		if err := ConsumePublic(info, 0, false); err != nil {
			t.Fatalf("unexpected error on iteration %d: %v", i, err)
		}
	}
	if info.PublicConsumed != 0 {
		t.Fatal("a zero limit must never advance the counter")
	}
}

func TestIsOmniMinter(t *testing.T) {
	cfg := &models.SaleConfig{OmniMintWallets: []string{"a", "b"}}
	if !IsOmniMinter(cfg, "b") {
		t.Fatal("b should be recognized as an omni minter")
	}
	if IsOmniMinter(cfg, "c") {
		t.Fatal("c should not be recognized as an omni minter")
	}
}
