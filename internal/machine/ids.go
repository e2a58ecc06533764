package machine

import (
	"encoding/hex"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Deterministic ID derivation (§6, "Deterministic address derivation").
// Each child record's ID is a domain-separated hash of its seeds, the
// engine's analogue of Solana's find_program_address — a caller can
// recompute any of these without a lookup.

func deriveID(seeds ...string) string {
	h := chainhash.HashH(joinSeeds(seeds))
	return hex.EncodeToString(h[:])
}

func joinSeeds(seeds []string) []byte {
	var total int
	for _, s := range seeds {
		total += len(s) + 1
	}
	buf := make([]byte, 0, total)
	for _, s := range seeds {
		buf = append(buf, s...)
		buf = append(buf, 0) // NUL-separate so ("ab","c") != ("a","bc")
	}
	return buf
}

// MachineCreatorID derives the machine-creator signer ID (§6).
func MachineCreatorID(machineID string) string {
	return deriveID("candy_machine", machineID)
}

// BuyerInfoID derives a BuyerInfo record's ID (§6).
func BuyerInfoID(machineID, buyer string) string {
	return deriveID("buyer_info_account", machineID, buyer)
}

// CollectionBindingID derives a CollectionBinding record's ID (§6).
func CollectionBindingID(machineID string) string {
	return deriveID("collection", machineID)
}

// FreezeRecordID derives a FreezeRecord's ID (§6).
func FreezeRecordID(machineID string) string {
	return deriveID("freeze", machineID)
}

// NFTMintID derives a unique per-mint NFT identity from the machine,
// the buyer, and the redemption ordinal that slot is being claimed
// under, so that two mints on the same machine never collide on the
// same mint/metadata/master-edition address (§1, §8).
func NFTMintID(machineID, buyer string, redeemed uint64) string {
	return deriveID("nft_mint", machineID, buyer, strconv.FormatUint(redeemed, 10))
}
