package pricing

import (
	"testing"

	"github.com/rawblock/mint-engine/pkg/models"
)

func TestValidatePrice(t *testing.T) {
	if err := ValidatePrice(1_000_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePrice(1 << 62); err == nil {
		t.Fatal("expected an overflow error")
	}
}

func TestResolve(t *testing.T) {
	cfg := &models.SaleConfig{
		SplTokenAllowlistSettings: &models.SplTokenAllowlistSettings{Mode: models.BurnEveryTime},
	}
	r := Resolve(cfg, true, true)
	if !r.TokenAllowlistATA || !r.TokenAllowlistMint || !r.TreasuryTokenATA || !r.FreezeDelegateATA {
		t.Fatalf("expected all four inputs required, got %+v", r)
	}
	if r.Count() != 4 {
		t.Fatalf("expected count 4, got %d", r.Count())
	}

	cfg2 := &models.SaleConfig{
		SplTokenAllowlistSettings: &models.SplTokenAllowlistSettings{Mode: models.NeverBurn},
	}
	r2 := Resolve(cfg2, false, false)
	if !r2.TokenAllowlistATA || r2.TokenAllowlistMint || r2.TreasuryTokenATA || r2.FreezeDelegateATA {
		t.Fatalf("unexpected schema for NeverBurn mode: %+v", r2)
	}
	if r2.Count() != 1 {
		t.Fatalf("expected count 1, got %d", r2.Count())
	}
}
