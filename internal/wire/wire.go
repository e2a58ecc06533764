// Package wire names the operation surface of §6: a stable 8-byte
// discriminator per operation, derived the same way internal/machine
// derives record IDs (a domain-separated hash, not a handwritten
// table), so adding an operation never risks colliding with an existing
// tag. The discriminators are defined here only; the HTTP routes in
// internal/api do not reference them.
package wire

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Operation identifies one wire-protocol call (§6).
type Operation string

const (
	OpInitializeMachine       Operation = "InitializeMachine"
	OpUpdateMachine           Operation = "UpdateMachine"
	OpUpdateAuthority         Operation = "UpdateAuthority"
	OpAppendMerkleRoots       Operation = "AppendMerkleRoots"
	OpClearMerkleRoots        Operation = "ClearMerkleRoots"
	OpAddConfigLines          Operation = "AddConfigLines"
	OpSetCollection           Operation = "SetCollection"
	OpRemoveCollection        Operation = "RemoveCollection"
	OpMintNFT                 Operation = "MintNFT"
	OpSetCollectionDuringMint Operation = "SetCollectionDuringMint"
	OpWithdrawFunds           Operation = "WithdrawFunds"
	OpSetFreeze               Operation = "SetFreeze"
	OpRemoveFreeze            Operation = "RemoveFreeze"
	OpThawNFT                 Operation = "ThawNFT"
	OpUnlockFunds             Operation = "UnlockFunds"
)

// Discriminator derives op's stable 8-byte wire tag: the first 8 bytes
// of a domain-separated hash of its name, mirroring
// internal/machine.deriveID's "canonical hash" derivation rule (§6).
func Discriminator(op Operation) [8]byte {
	h := chainhash.HashH(append([]byte("operation:"), op...))
	var d [8]byte
	copy(d[:], h[:8])
	return d
}
