package phase

import (
	"testing"

	"github.com/rawblock/mint-engine/pkg/models"
)

func cfg(allowlistStart *int64, publicStart, publicEnd int64) *models.SaleConfig {
	return &models.SaleConfig{
		Price:                  100,
		AllowlistSaleStartTime: allowlistStart,
		PublicSaleStartTime:    publicStart,
		PublicSaleEndTime:      publicEnd,
	}
}

func i64(v int64) *int64 { return &v }

func TestResolve(t *testing.T) {
	cases := []struct {
		name string
		cfg  *models.SaleConfig
		now  int64
		want models.Phase
	}{
		{"before allowlist", cfg(i64(100), 200, 300), 50, models.PhasePremint},
		{"no allowlist configured, before public", cfg(nil, 200, 300), 50, models.PhasePremint},
		{"in allowlist window", cfg(i64(100), 200, 300), 150, models.PhaseAllowlist},
		{"allowlist boundary is inclusive", cfg(i64(100), 200, 300), 100, models.PhaseAllowlist},
		{"in public window", cfg(i64(100), 200, 300), 250, models.PhasePublic},
		{"public boundary is inclusive", cfg(i64(100), 200, 300), 200, models.PhasePublic},
		{"expired boundary is inclusive", cfg(i64(100), 200, 300), 300, models.PhaseExpired},
		{"well past end", cfg(i64(100), 200, 300), 9999, models.PhaseExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.cfg, tc.now)
			if got != tc.want {
				t.Fatalf("Resolve() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPrice(t *testing.T) {
	premint := uint64(10)
	allowlist := uint64(20)
	c := &models.SaleConfig{Price: 30, PremintPrice: &premint, AllowlistPrice: &allowlist}

	if got := Price(c, models.PhasePremint); got != 10 {
		t.Fatalf("premint price = %d, want 10", got)
	}
	if got := Price(c, models.PhaseAllowlist); got != 20 {
		t.Fatalf("allowlist price = %d, want 20", got)
	}
	if got := Price(c, models.PhasePublic); got != 30 {
		t.Fatalf("public price = %d, want 30", got)
	}
	if got := Price(c, models.PhaseExpired); got != 30 {
		t.Fatalf("expired price = %d, want 30", got)
	}

	bare := &models.SaleConfig{Price: 5}
	if got := Price(bare, models.PhasePremint); got != 5 {
		t.Fatalf("premint fallback = %d, want 5", got)
	}
	if got := Price(bare, models.PhaseAllowlist); got != 5 {
		t.Fatalf("allowlist fallback = %d, want 5", got)
	}
}

func TestCheckExpectedPrice(t *testing.T) {
	c := &models.SaleConfig{Price: 30}
	if err := CheckExpectedPrice(c, models.PhasePublic, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := CheckExpectedPrice(c, models.PhasePublic, 31)
	if err == nil {
		t.Fatal("expected an error on price mismatch")
	}
	me, ok := err.(*models.MachineError)
	if !ok || me.Kind != models.ErrInvalidMintPrice {
		t.Fatalf("got %v, want ErrInvalidMintPrice", err)
	}
}

func TestRequireMintable(t *testing.T) {
	if err := RequireMintable(models.PhaseAllowlist, true, false); err != nil {
		t.Fatalf("allowlist with a proof should be mintable: %v", err)
	}
	if err := RequireMintable(models.PhaseAllowlist, false, true); err != nil {
		t.Fatalf("allowlist with token-gate configured should be mintable: %v", err)
	}
	if err := RequireMintable(models.PhaseAllowlist, false, false); err == nil {
		t.Fatal("allowlist with neither a proof nor a token gate should not be mintable")
	}
	if err := RequireMintable(models.PhasePublic, false, false); err != nil {
		t.Fatalf("public should be mintable: %v", err)
	}
	if err := RequireMintable(models.PhasePremint, false, false); err == nil {
		t.Fatal("premint should not be mintable")
	}
	if err := RequireMintable(models.PhaseExpired, true, true); err == nil {
		t.Fatal("expired should not be mintable even with a proof or token gate")
	}
}
