// Package merkle verifies the Merkle-proof allowlist mechanism of §4.3:
// sorted-pair Keccak-256 folding against a machine's committed root list.
package merkle

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/rawblock/mint-engine/pkg/models"
)

// leaf builds the committed leaf hash for a buyer's allowlist entry:
// keccak(0x00 || buyer || machine || amount_le). buyer and machine are
// the engine's opaque address strings rather than fixed 32-byte pubkeys,
// hashed as raw bytes under the same domain-separation prefix the
// original program uses.
func leaf(buyer, machineID string, amount uint16) [32]byte {
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

// fold hashes two sibling nodes with sorted-pair ordering and the 0x01
// domain-separation prefix (§4.3).
func fold(a, b [32]byte) [32]byte {
	lo, hi := a, b
	if greater(a, b) {
		lo, hi = b, a
	}
	d := sha3.NewLegacyKeccak256()
	d.Write([]byte{0x01})
	d.Write(lo[:])
	d.Write(hi[:])
	var out [32]byte
	copy(out[:], d.Sum(nil))
	return out
}

func greater(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// Verify checks proof.Proof for buyer against roots[proof.RootIndex],
// using the buyer's address, the machine's ID, and the committed amount
// as the leaf's preimage (§4.3). Errors are returned by identity so the
// caller (the mint orchestrator) can route them through its gate
// sequence rather than reacting to a bare bool.
func Verify(buyer, machineID string, proof models.BuyerMerkleProof, roots [][32]byte) error {
	if len(roots) == 0 {
		return models.NewError(models.ErrInvalidMerkleProof, "merkle root list is empty")
	}
	if int(proof.RootIndex) >= len(roots) {
		return models.NewError(models.ErrIndexOutOfRange, "root_index out of range")
	}

	computed := leaf(buyer, machineID, proof.Amount)
	for _, sibling := range proof.Proof {
		computed = fold(computed, sibling)
	}

	if computed != roots[proof.RootIndex] {
		return models.NewError(models.ErrInvalidMerkleProof, "computed root does not match the committed root")
	}
	return nil
}
