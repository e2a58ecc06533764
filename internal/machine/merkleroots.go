package machine

import "github.com/rawblock/mint-engine/pkg/models"

// AppendMerkleRoots pushes roots onto the machine's root list (§4.2,
// "AppendMerkleRoots"). Fails without mutating state if the resulting
// length would exceed 100, or if a token-holdership allowlist is
// configured (the two allowlist mechanisms are mutually exclusive, §3).
func AppendMerkleRoots(m *models.Machine, roots [][32]byte) error {
	if m.Data.SplTokenAllowlistSettings != nil {
		return fail(models.ErrInvalidAllowlistSettings, "cannot append merkle roots while a token allowlist is configured")
	}
	if len(m.Data.MerkleAllowlistRootList)+len(roots) > maxMerkleRoots {
		return fail(models.ErrTooManyRoots, "appending these roots would exceed the 100-root limit")
	}
	m.Data.MerkleAllowlistRootList = append(m.Data.MerkleAllowlistRootList, roots...)
	return nil
}

// ClearMerkleRoots replaces the root list with the empty list (§4.2,
// "ClearMerkleRoots"). Idempotent.
func ClearMerkleRoots(m *models.Machine) {
	m.Data.MerkleAllowlistRootList = nil
}
