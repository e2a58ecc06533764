// Package inventory selects an unclaimed slot index out of items_available
// and marks it claimed (§4.4), grounded on the original's get_good_index /
// get_config_line bitmap sweep.
package inventory

import (
	"strconv"

	"github.com/rawblock/mint-engine/pkg/models"
)

// BitmapLen returns the byte length of a claim bitmap for n items.
func BitmapLen(n uint64) uint64 {
	return (n + 7) / 8
}

// InitialIndex computes i0 (§4.4, step 1-2): sequential order during
// Premint starts at items_redeemed, otherwise the PRNG seed modulo N.
func InitialIndex(sequentialOrderEnabled bool, isPremint bool, itemsRedeemed, seed, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	if sequentialOrderEnabled && isPremint {
		return itemsRedeemed % n
	}
	return seed % n
}

func bitSet(bitmap []byte, idx uint64) bool {
	byteIdx := idx / 8
	bitInByte := 7 - (idx % 8)
	mask := byte(1) << bitInByte
	return bitmap[byteIdx]&mask != 0
}

func claim(bitmap []byte, idx uint64) {
	byteIdx := idx / 8
	bitInByte := 7 - (idx % 8)
	mask := byte(1) << bitInByte
	bitmap[byteIdx] |= mask
}

// sweepForward scans from start toward n-1, fast-skipping any byte that
// is fully set (all eight slots claimed).
func sweepForward(bitmap []byte, n, start uint64) (uint64, bool) {
	i := start
	for i < n {
		byteIdx := i / 8
		if bitmap[byteIdx] == 0xFF {
			i = (byteIdx + 1) * 8
			continue
		}
		if !bitSet(bitmap, i) {
			claim(bitmap, i)
			return i, true
		}
		i++
	}
	return 0, false
}

// sweepBackward scans from start toward 0, same fast-skip rule.
func sweepBackward(bitmap []byte, start uint64) (uint64, bool) {
	i := start
	for {
		byteIdx := i / 8
		if bitmap[byteIdx] == 0xFF {
			if byteIdx == 0 {
				return 0, false
			}
			i = byteIdx*8 - 1
			continue
		}
		if !bitSet(bitmap, i) {
			claim(bitmap, i)
			return i, true
		}
		if i == 0 {
			return 0, false
		}
		i--
	}
}

// SelectSlot finds and atomically claims an unset bit in bitmap starting
// at i0, sweeping forward then backward (§4.4, step 3-4). bitmap is
// mutated in place on success.
func SelectSlot(bitmap []byte, n, i0 uint64) (uint64, error) {
	if n == 0 || i0 >= n {
		return 0, models.NewError(models.ErrIndexOutOfRange, "initial index out of range")
	}
	if idx, ok := sweepForward(bitmap, n, i0); ok {
		return idx, nil
	}
	if idx, ok := sweepBackward(bitmap, i0); ok {
		return idx, nil
	}
	return 0, models.NewError(models.ErrCannotFindConfigLine, "no unclaimed slot found; bitmap is inconsistent with items_redeemed")
}

// HiddenSlot computes the hidden-mode slot bypass (§4.4): name is derived
// from name_prefix and the 1-based mint ordinal, uri is the single
// configured uri shared by every item.
func HiddenSlot(hs *models.HiddenSettings, itemsRedeemed uint64) models.ConfigLine {
	ordinal := itemsRedeemed + 1
	return models.ConfigLine{
		Name: hs.NamePrefix + "#" + strconv.FormatUint(ordinal, 10),
		URI:  hs.URI,
	}
}
