package machine

// Binary encode/decode for the persisted layouts of §6. The engine chose
// the byte-packed suffix layout (ConfigLine array + claim bitmap stored as
// a raw suffix, not as separate child records) for cross-implementation
// binary compatibility with the spec, per §9's "Byte-packed suffix vs
// structured child records" note. See internal/configline for the
// bitmap/array this layout backs.

import (
	"encoding/binary"
	"encoding/hex"
	"errors"

	"github.com/rawblock/mint-engine/pkg/models"
)

// Discriminators are the 8-byte record-kind tags prefixing every
// persisted layout (§6). Values are arbitrary but stable once chosen.
var (
	discMachine           = [8]byte{'m', 'a', 'c', 'h', 'i', 'n', 'e', 0}
	discBuyerInfo         = [8]byte{'b', 'u', 'y', 'e', 'r', 'i', 'n', 'f'}
	discFreezeRecord      = [8]byte{'f', 'r', 'e', 'e', 'z', 'e', 'p', 'd'}
	discCollectionBinding = [8]byte{'c', 'o', 'l', 'l', 'e', 'c', 't', 'n'}
)

func putOptionI64(buf *[]byte, v *int64) {
	if v == nil {
		*buf = append(*buf, 0)
		return
	}
	*buf = append(*buf, 1)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(*v))
	*buf = append(*buf, tmp[:]...)
}

func getOptionI64(data []byte, off int) (*int64, int, error) {
	if off >= len(data) {
		return nil, off, errors.New("serialize: truncated option<i64>")
	}
	present := data[off]
	off++
	if present == 0 {
		return nil, off, nil
	}
	if off+8 > len(data) {
		return nil, off, errors.New("serialize: truncated i64")
	}
	v := int64(binary.LittleEndian.Uint64(data[off : off+8]))
	off += 8
	return &v, off, nil
}

func putLenPrefixedString(buf *[]byte, s string) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(s)))
	*buf = append(*buf, tmp[:]...)
	*buf = append(*buf, s...)
}

func getLenPrefixedString(data []byte, off int) (string, int, error) {
	if off+4 > len(data) {
		return "", off, errors.New("serialize: truncated string length")
	}
	n := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if off+n > len(data) {
		return "", off, errors.New("serialize: truncated string body")
	}
	s := string(data[off : off+n])
	off += n
	return s, off, nil
}

// EncodeSaleConfig serializes CandyMachineData's field order (§6).
func EncodeSaleConfig(cfg *models.SaleConfig) []byte {
	buf := make([]byte, 0, 256)

	putLenPrefixedString(&buf, cfg.UUID)

	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], cfg.Price)
	buf = append(buf, tmp8[:]...)

	if cfg.PremintPrice == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		binary.LittleEndian.PutUint64(tmp8[:], *cfg.PremintPrice)
		buf = append(buf, tmp8[:]...)
	}
	if cfg.AllowlistPrice == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		binary.LittleEndian.PutUint64(tmp8[:], *cfg.AllowlistPrice)
		buf = append(buf, tmp8[:]...)
	}

	putLenPrefixedString(&buf, cfg.Symbol)

	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], cfg.SellerFeeBasisPoints)
	buf = append(buf, tmp2[:]...)

	binary.LittleEndian.PutUint64(tmp8[:], cfg.MaxSupply)
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], cfg.ItemsAvailable)
	buf = append(buf, tmp8[:]...)

	if cfg.IsMutable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	putOptionI64(&buf, cfg.AllowlistSaleStartTime)

	binary.LittleEndian.PutUint64(tmp8[:], uint64(cfg.PublicSaleStartTime))
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], uint64(cfg.PublicSaleEndTime))
	buf = append(buf, tmp8[:]...)

	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(cfg.Creators)))
	buf = append(buf, tmp4[:]...)
	for _, c := range cfg.Creators {
		addr := [32]byte{}
		copy(addr[:], c.Address)
		buf = append(buf, addr[:]...)
		if c.Verified {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = append(buf, c.Share)
	}

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(cfg.OmniMintWallets)))
	buf = append(buf, tmp4[:]...)
	for _, w := range cfg.OmniMintWallets {
		addr := [32]byte{}
		copy(addr[:], w)
		buf = append(buf, addr[:]...)
	}

	if cfg.HiddenSettings == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		putLenPrefixedString(&buf, cfg.HiddenSettings.NamePrefix)
		putLenPrefixedString(&buf, cfg.HiddenSettings.URI)
		buf = append(buf, cfg.HiddenSettings.Hash[:]...)
	}

	if cfg.BotProtectionEnabled {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	binary.LittleEndian.PutUint16(tmp2[:], cfg.LimitPerAddress)
	buf = append(buf, tmp2[:]...)

	if cfg.SequentialMintOrderEnabled {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(cfg.MerkleAllowlistRootList)))
	buf = append(buf, tmp4[:]...)
	for _, r := range cfg.MerkleAllowlistRootList {
		buf = append(buf, r[:]...)
	}

	if cfg.SplTokenAllowlistSettings == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = append(buf, byte(cfg.SplTokenAllowlistSettings.Mode))
		mint := [32]byte{}
		copy(mint[:], cfg.SplTokenAllowlistSettings.Mint)
		buf = append(buf, mint[:]...)
	}

	return buf
}

// DecodeSaleConfig is the inverse of EncodeSaleConfig.
func DecodeSaleConfig(data []byte, off int) (models.SaleConfig, int, error) {
	var cfg models.SaleConfig
	var err error

	cfg.UUID, off, err = getLenPrefixedString(data, off)
	if err != nil {
		return cfg, off, err
	}
	if off+8 > len(data) {
		return cfg, off, errors.New("serialize: truncated price")
	}
	cfg.Price = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8

	cfg.PremintPrice, off, err = getOptionI64AsU64(data, off)
	if err != nil {
		return cfg, off, err
	}
	cfg.AllowlistPrice, off, err = getOptionI64AsU64(data, off)
	if err != nil {
		return cfg, off, err
	}

	cfg.Symbol, off, err = getLenPrefixedString(data, off)
	if err != nil {
		return cfg, off, err
	}

	if off+2 > len(data) {
		return cfg, off, errors.New("serialize: truncated sfbp")
	}
	cfg.SellerFeeBasisPoints = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2

	if off+16 > len(data) {
		return cfg, off, errors.New("serialize: truncated supply/available")
	}
	cfg.MaxSupply = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	cfg.ItemsAvailable = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8

	if off+1 > len(data) {
		return cfg, off, errors.New("serialize: truncated is_mutable")
	}
	cfg.IsMutable = data[off] == 1
	off++

	cfg.AllowlistSaleStartTime, off, err = getOptionI64(data, off)
	if err != nil {
		return cfg, off, err
	}
	if off+16 > len(data) {
		return cfg, off, errors.New("serialize: truncated phase times")
	}
	cfg.PublicSaleStartTime = int64(binary.LittleEndian.Uint64(data[off : off+8]))
	off += 8
	cfg.PublicSaleEndTime = int64(binary.LittleEndian.Uint64(data[off : off+8]))
	off += 8

	if off+4 > len(data) {
		return cfg, off, errors.New("serialize: truncated creators length")
	}
	nCreators := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	cfg.Creators = make([]models.Creator, 0, nCreators)
	for i := 0; i < nCreators; i++ {
		if off+34 > len(data) {
			return cfg, off, errors.New("serialize: truncated creator entry")
		}
		addr := trimZero(data[off : off+32])
		off += 32
		verified := data[off] == 1
		off++
		share := data[off]
		off++
		cfg.Creators = append(cfg.Creators, models.Creator{Address: addr, Verified: verified, Share: share})
	}

	if off+4 > len(data) {
		return cfg, off, errors.New("serialize: truncated omni length")
	}
	nOmni := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	cfg.OmniMintWallets = make([]string, 0, nOmni)
	for i := 0; i < nOmni; i++ {
		if off+32 > len(data) {
			return cfg, off, errors.New("serialize: truncated omni entry")
		}
		cfg.OmniMintWallets = append(cfg.OmniMintWallets, trimZero(data[off:off+32]))
		off += 32
	}

	if off+1 > len(data) {
		return cfg, off, errors.New("serialize: truncated hidden_settings option")
	}
	hasHidden := data[off] == 1
	off++
	if hasHidden {
		hs := &models.HiddenSettings{}
		hs.NamePrefix, off, err = getLenPrefixedString(data, off)
		if err != nil {
			return cfg, off, err
		}
		hs.URI, off, err = getLenPrefixedString(data, off)
		if err != nil {
			return cfg, off, err
		}
		if off+32 > len(data) {
			return cfg, off, errors.New("serialize: truncated hidden_settings hash")
		}
		copy(hs.Hash[:], data[off:off+32])
		off += 32
		cfg.HiddenSettings = hs
	}

	if off+1 > len(data) {
		return cfg, off, errors.New("serialize: truncated bot_protection")
	}
	cfg.BotProtectionEnabled = data[off] == 1
	off++

	if off+2 > len(data) {
		return cfg, off, errors.New("serialize: truncated limit_per_address")
	}
	cfg.LimitPerAddress = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2

	if off+1 > len(data) {
		return cfg, off, errors.New("serialize: truncated sequential_order")
	}
	cfg.SequentialMintOrderEnabled = data[off] == 1
	off++

	if off+4 > len(data) {
		return cfg, off, errors.New("serialize: truncated roots length")
	}
	nRoots := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	cfg.MerkleAllowlistRootList = make([][32]byte, 0, nRoots)
	for i := 0; i < nRoots; i++ {
		if off+32 > len(data) {
			return cfg, off, errors.New("serialize: truncated root entry")
		}
		var r [32]byte
		copy(r[:], data[off:off+32])
		cfg.MerkleAllowlistRootList = append(cfg.MerkleAllowlistRootList, r)
		off += 32
	}

	if off+1 > len(data) {
		return cfg, off, errors.New("serialize: truncated spl_token_allowlist option")
	}
	hasSpl := data[off] == 1
	off++
	if hasSpl {
		if off+33 > len(data) {
			return cfg, off, errors.New("serialize: truncated spl_token_allowlist")
		}
		mode := models.SplTokenAllowlistMode(data[off])
		off++
		mint := trimZero(data[off : off+32])
		off += 32
		cfg.SplTokenAllowlistSettings = &models.SplTokenAllowlistSettings{Mode: mode, Mint: mint}
	}

	return cfg, off, nil
}

func trimZero(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// encodeAddr packs a string identifier into a 32-byte slot. IDs produced
// by deriveID are 64 ASCII hex characters representing a 32-byte hash;
// those are hex-decoded so the slot holds the raw hash, not its first 32
// hex digits. Anything else (a caller-supplied wallet address, which this
// engine treats as an opaque string rather than a fixed-size binary key)
// is simply truncated/zero-padded, same as the raw pubkey slots it stands
// in for.
func encodeAddr(s string) [32]byte {
	var a [32]byte
	if len(s) == 64 {
		if raw, err := hex.DecodeString(s); err == nil && len(raw) == 32 {
			copy(a[:], raw)
			return a
		}
	}
	copy(a[:], s)
	return a
}

// decodeAddr is the inverse of encodeAddr for deriveID-produced IDs: it
// always hex-encodes the 32-byte slot back to the 64-char form. Callers
// that stored a raw (non-derived) address under 32 bytes get back a hex
// string rather than their original text; see encodeAddr's note on why
// that round trip is lossy for free-form addresses.
func decodeAddr(b []byte) string {
	return hex.EncodeToString(b)
}

func getOptionI64AsU64(data []byte, off int) (*uint64, int, error) {
	v, off, err := getOptionI64(data, off)
	if err != nil || v == nil {
		return nil, off, err
	}
	u := uint64(*v)
	return &u, off, nil
}

// DecodeMachine is the inverse of EncodeMachine.
func DecodeMachine(data []byte) (*models.Machine, error) {
	if len(data) < 8+32*3+1+8+6 {
		return nil, errors.New("serialize: truncated Machine header")
	}
	off := 8
	saleAuthority := decodeAddr(data[off : off+32])
	off += 32
	creatorAuthority := decodeAddr(data[off : off+32])
	off += 32
	treasury := decodeAddr(data[off : off+32])
	off += 32

	hasTreasuryMint := data[off] == 1
	off++
	treasuryMint := ""
	if hasTreasuryMint {
		if off+32 > len(data) {
			return nil, errors.New("serialize: truncated treasury_mint")
		}
		treasuryMint = decodeAddr(data[off : off+32])
		off += 32
	}

	if off+8 > len(data) {
		return nil, errors.New("serialize: truncated items_redeemed")
	}
	itemsRedeemed := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8

	if off+6 > len(data) {
		return nil, errors.New("serialize: truncated feature string")
	}
	var feature [6]byte
	copy(feature[:], data[off:off+6])
	off += 6

	cfg, _, err := DecodeSaleConfig(data, off)
	if err != nil {
		return nil, err
	}

	return &models.Machine{
		SaleAuthority:    saleAuthority,
		CreatorAuthority: creatorAuthority,
		Treasury:         treasury,
		TreasuryMint:     treasuryMint,
		ItemsRedeemed:    itemsRedeemed,
		Feature:          feature,
		Data:             cfg,
	}, nil
}

// EncodeMachine serializes the Machine record's fixed prefix (§6):
// discriminator || authority || creator_authority || treasury ||
// treasury_mint || items_redeemed || feature(6) || CandyMachineData.
//
// The original layout overloads CandyMachineData's uuid field as the
// feature string (§3, "also used as a compact uuid field"). The engine
// keeps them as two distinct fields on models.Machine for readability —
// cfg.UUID stays a pure 6-byte identifier — and persists the feature
// bits as their own 6-byte slot rather than reusing uuid's bytes for a
// second purpose.
func EncodeMachine(m *models.Machine) []byte {
	buf := make([]byte, 0, 512)
	buf = append(buf, discMachine[:]...)

	a := encodeAddr(m.SaleAuthority)
	buf = append(buf, a[:]...)
	c := encodeAddr(m.CreatorAuthority)
	buf = append(buf, c[:]...)
	t := encodeAddr(m.Treasury)
	buf = append(buf, t[:]...)

	if m.TreasuryMint == "" {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		tm := encodeAddr(m.TreasuryMint)
		buf = append(buf, tm[:]...)
	}

	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], m.ItemsRedeemed)
	buf = append(buf, tmp8[:]...)

	buf = append(buf, m.Feature[:]...)

	buf = append(buf, EncodeSaleConfig(&m.Data)...)
	return buf
}

// EncodeBuyerInfo serializes a BuyerInfo record (§6).
func EncodeBuyerInfo(b *models.BuyerInfo) []byte {
	buf := make([]byte, 0, 8+2+2+64)
	buf = append(buf, discBuyerInfo[:]...)
	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], b.AllowlistConsumed)
	buf = append(buf, tmp2[:]...)
	binary.LittleEndian.PutUint16(tmp2[:], b.PublicConsumed)
	buf = append(buf, tmp2[:]...)
	buf = append(buf, make([]byte, 64)...)
	return buf
}

// DecodeBuyerInfo parses a BuyerInfo record written by EncodeBuyerInfo.
func DecodeBuyerInfo(data []byte) (*models.BuyerInfo, error) {
	if len(data) < 8+2+2 {
		return nil, errors.New("serialize: truncated BuyerInfo")
	}
	off := 8
	allowlist := binary.LittleEndian.Uint16(data[off : off+2])
	off += 2
	public := binary.LittleEndian.Uint16(data[off : off+2])
	return &models.BuyerInfo{AllowlistConsumed: allowlist, PublicConsumed: public}, nil
}

// EncodeFreezeRecord serializes a FreezeRecord (§6).
func EncodeFreezeRecord(f *models.FreezeRecord) []byte {
	buf := make([]byte, 0, 8+32+1+8+9+8+8)
	buf = append(buf, discFreezeRecord[:]...)
	addr := encodeAddr(f.MachineID)
	buf = append(buf, addr[:]...)
	if f.AllowThaw {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], f.FrozenCount)
	buf = append(buf, tmp8[:]...)
	putOptionI64(&buf, f.MintStart)
	binary.LittleEndian.PutUint64(tmp8[:], uint64(f.FreezeTime))
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], f.FreezeFee)
	buf = append(buf, tmp8[:]...)
	return buf
}

// DecodeFreezeRecord parses a FreezeRecord written by EncodeFreezeRecord.
func DecodeFreezeRecord(data []byte) (*models.FreezeRecord, error) {
	if len(data) < 8+32+1+8 {
		return nil, errors.New("serialize: truncated FreezeRecord")
	}
	off := 8
	machineID := decodeAddr(data[off : off+32])
	off += 32
	allowThaw := data[off] == 1
	off++
	frozenCount := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	mintStart, off, err := getOptionI64(data, off)
	if err != nil {
		return nil, err
	}
	if off+16 > len(data) {
		return nil, errors.New("serialize: truncated FreezeRecord tail")
	}
	freezeTime := int64(binary.LittleEndian.Uint64(data[off : off+8]))
	off += 8
	freezeFee := binary.LittleEndian.Uint64(data[off : off+8])
	return &models.FreezeRecord{
		MachineID:   machineID,
		AllowThaw:   allowThaw,
		FrozenCount: frozenCount,
		MintStart:   mintStart,
		FreezeTime:  freezeTime,
		FreezeFee:   freezeFee,
	}, nil
}

// EncodeCollectionBinding serializes a CollectionBinding (§6).
func EncodeCollectionBinding(b *models.CollectionBinding) []byte {
	buf := make([]byte, 0, 8+32+32)
	buf = append(buf, discCollectionBinding[:]...)
	mint := encodeAddr(b.Mint)
	mach := encodeAddr(b.MachineID)
	buf = append(buf, mint[:]...)
	buf = append(buf, mach[:]...)
	return buf
}

// DecodeCollectionBinding parses a CollectionBinding written by
// EncodeCollectionBinding.
func DecodeCollectionBinding(data []byte) (*models.CollectionBinding, error) {
	if len(data) < 8+32+32 {
		return nil, errors.New("serialize: truncated CollectionBinding")
	}
	off := 8
	mint := decodeAddr(data[off : off+32])
	off += 32
	mach := decodeAddr(data[off : off+32])
	return &models.CollectionBinding{Mint: mint, MachineID: mach}, nil
}
