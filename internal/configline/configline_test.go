package configline

import (
	"testing"

	"github.com/rawblock/mint-engine/pkg/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := NewSuffix(4)
	s.Lines[0] = models.ConfigLine{Name: "item #1", URI: "ipfs://a"}
	s.Lines[1] = models.ConfigLine{Name: "item #2", URI: "ipfs://b"}

	enc := Encode(s)
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dec.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(dec.Lines))
	}
	if dec.Lines[0] != s.Lines[0] || dec.Lines[1] != s.Lines[1] {
		t.Fatalf("config lines did not round-trip: %+v", dec.Lines)
	}
	if len(dec.Bitmap) != len(s.Bitmap) {
		t.Fatalf("bitmap length mismatch: got %d want %d", len(dec.Bitmap), len(s.Bitmap))
	}
}

func TestAddConfigLines(t *testing.T) {
	m := &models.Machine{Data: models.SaleConfig{ItemsAvailable: 3}}
	s := NewSuffix(3)
	err := AddConfigLines(m, s, 1, []models.ConfigLine{{Name: "x", URI: "y"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Lines[1].Name != "x" {
		t.Fatalf("line not written: %+v", s.Lines[1])
	}
}

func TestAddConfigLinesRejectsHiddenMode(t *testing.T) {
	m := &models.Machine{Data: models.SaleConfig{ItemsAvailable: 3, HiddenSettings: &models.HiddenSettings{}}}
	s := NewSuffix(3)
	if err := AddConfigLines(m, s, 0, []models.ConfigLine{{Name: "x"}}); err == nil {
		t.Fatal("expected an error for hidden-mode machine")
	}
}

func TestAddConfigLinesRejectsOutOfRange(t *testing.T) {
	m := &models.Machine{Data: models.SaleConfig{ItemsAvailable: 2}}
	s := NewSuffix(2)
	if err := AddConfigLines(m, s, 1, []models.ConfigLine{{Name: "a"}, {Name: "b"}}); err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestTakeHiddenMode(t *testing.T) {
	m := &models.Machine{
		ItemsRedeemed: 2,
		Data: models.SaleConfig{
			ItemsAvailable: 10,
			HiddenSettings: &models.HiddenSettings{NamePrefix: "Item ", URI: "ipfs://hidden"},
		},
	}
	idx, line, err := Take(m, nil, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 2 {
		t.Fatalf("expected slot index 2, got %d", idx)
	}
	if line.Name != "Item #3" {
		t.Fatalf("unexpected hidden slot name: %q", line.Name)
	}
}

func TestTakeNonHiddenClaimsSlot(t *testing.T) {
	m := &models.Machine{Data: models.SaleConfig{ItemsAvailable: 4}}
	s := NewSuffix(4)
	s.Lines[2] = models.ConfigLine{Name: "n2", URI: "u2"}

	idx, line, err := Take(m, s, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 2 {
		t.Fatalf("expected slot 2, got %d", idx)
	}
	if line.Name != "n2" {
		t.Fatalf("unexpected config line: %+v", line)
	}
}
