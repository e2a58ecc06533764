// Package configline owns the non-hidden-mode inventory suffix: the
// items_available-entry ConfigLine array and its claim bitmap, stored as
// a raw byte region trailing the Machine record (§4.2 AddConfigLines,
// §4.4, §6). Slot selection itself lives in internal/inventory; this
// package is the persisted-layout and AddConfigLines half of the same
// mechanism.
package configline

import (
	"encoding/binary"
	"errors"

	"github.com/rawblock/mint-engine/internal/inventory"
	"github.com/rawblock/mint-engine/pkg/models"
)

// Suffix is the decoded form of the trailing region described in §6:
// "u32 len || items_available x ConfigLine(4+32+4+200) || u32 len ||
// ceil(items_available/8) bytes bitmap || u32 len || reserved bytes".
type Suffix struct {
	Lines  []models.ConfigLine
	Bitmap []byte
	// Reserved mirrors the legacy layout's trailing reserved region
	// (same length as Bitmap); the engine does not use it but preserves
	// it for wire shape compatibility.
	Reserved []byte
}

// NewSuffix allocates an empty suffix sized for n items (§4.2,
// "Initialize... Allocates the trailing config-line region iff not
// hidden-mode").
func NewSuffix(n uint64) *Suffix {
	bmLen := inventory.BitmapLen(n)
	return &Suffix{
		Lines:    make([]models.ConfigLine, n),
		Bitmap:   make([]byte, bmLen),
		Reserved: make([]byte, bmLen),
	}
}

func putString(buf *[]byte, s string, fixedLen int) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(fixedLen))
	*buf = append(*buf, tmp[:]...)
	b := make([]byte, fixedLen)
	copy(b, s)
	*buf = append(*buf, b...)
}

func getString(data []byte, off, fixedLen int) (string, int, error) {
	if off+4+fixedLen > len(data) {
		return "", off, errors.New("configline: truncated fixed string")
	}
	off += 4 // length prefix is redundant with fixedLen, kept for wire shape
	raw := data[off : off+fixedLen]
	off += fixedLen
	n := len(raw)
	for n > 0 && raw[n-1] == 0 {
		n--
	}
	return string(raw[:n]), off, nil
}

// Encode serializes the suffix per §6's byte layout.
func Encode(s *Suffix) []byte {
	buf := make([]byte, 0, 4+len(s.Lines)*(4+models.MaxConfigLineName+4+models.MaxConfigLineURI)+4+len(s.Bitmap)+4+len(s.Reserved))

	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(s.Lines)))
	buf = append(buf, tmp4[:]...)
	for _, l := range s.Lines {
		putString(&buf, l.Name, models.MaxConfigLineName)
		putString(&buf, l.URI, models.MaxConfigLineURI)
	}

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(s.Bitmap)))
	buf = append(buf, tmp4[:]...)
	buf = append(buf, s.Bitmap...)

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(s.Reserved)))
	buf = append(buf, tmp4[:]...)
	buf = append(buf, s.Reserved...)

	return buf
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*Suffix, error) {
	if len(data) < 4 {
		return nil, errors.New("configline: truncated suffix header")
	}
	off := 0
	nLines := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4

	lines := make([]models.ConfigLine, 0, nLines)
	var err error
	for i := 0; i < nLines; i++ {
		var name, uri string
		name, off, err = getString(data, off, models.MaxConfigLineName)
		if err != nil {
			return nil, err
		}
		uri, off, err = getString(data, off, models.MaxConfigLineURI)
		if err != nil {
			return nil, err
		}
		lines = append(lines, models.ConfigLine{Name: name, URI: uri})
	}

	if off+4 > len(data) {
		return nil, errors.New("configline: truncated bitmap length")
	}
	bmLen := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if off+bmLen > len(data) {
		return nil, errors.New("configline: truncated bitmap")
	}
	bitmap := make([]byte, bmLen)
	copy(bitmap, data[off:off+bmLen])
	off += bmLen

	if off+4 > len(data) {
		return nil, errors.New("configline: truncated reserved length")
	}
	resLen := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if off+resLen > len(data) {
		return nil, errors.New("configline: truncated reserved")
	}
	reserved := make([]byte, resLen)
	copy(reserved, data[off:off+resLen])

	return &Suffix{Lines: lines, Bitmap: bitmap, Reserved: reserved}, nil
}

// AddConfigLines writes lines starting at startIndex (§4.2,
// "AddConfigLines"). Rejected if the machine is in hidden mode or the
// write would run past the allocated array.
func AddConfigLines(m *models.Machine, s *Suffix, startIndex uint64, lines []models.ConfigLine) error {
	if m.Data.HiddenSettings != nil {
		return models.NewError(models.ErrHiddenVsConfigLines, "cannot add config lines to a hidden-mode machine")
	}
	if startIndex+uint64(len(lines)) > uint64(len(s.Lines)) {
		return models.NewError(models.ErrIndexOutOfRange, "config line write would exceed items_available")
	}
	for i, l := range lines {
		s.Lines[startIndex+uint64(i)] = l
	}
	return nil
}

// Take resolves and claims a slot for the next mint: hidden mode
// computes its implicit slot, otherwise the bitmap sweep of §4.4 runs
// against s.Bitmap. isPremint reflects the phase the orchestrator
// already resolved (internal/phase).
func Take(m *models.Machine, s *Suffix, seed uint64, isPremint bool) (uint64, models.ConfigLine, error) {
	if m.Data.HiddenSettings != nil {
		return m.ItemsRedeemed, inventory.HiddenSlot(m.Data.HiddenSettings, m.ItemsRedeemed), nil
	}

	i0 := inventory.InitialIndex(m.Data.SequentialMintOrderEnabled, isPremint, m.ItemsRedeemed, seed, m.Data.ItemsAvailable)
	idx, err := inventory.SelectSlot(s.Bitmap, m.Data.ItemsAvailable, i0)
	if err != nil {
		return 0, models.ConfigLine{}, err
	}
	return idx, s.Lines[idx], nil
}
