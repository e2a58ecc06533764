package models

// ErrorKind enumerates every named core error (§7). The wire identity of
// a kind is 2000 + its index in this list — the list order is part of the
// wire contract and must never be reordered, only appended to.
type ErrorKind int

const (
	ErrWrongOwner ErrorKind = iota
	ErrUninitialized
	ErrMintMismatch
	ErrIndexOutOfRange
	ErrNumericOverflow
	ErrTooManyCreators
	ErrUuidLength
	ErrInsufficientPaymentToken
	ErrInsufficientPaymentNative
	ErrTransferFailed
	ErrMachineEmpty
	ErrPhaseNotLivePublic
	ErrPhaseNotLiveAllowlist
	ErrPublicPhaseEnded
	ErrInvalidPhaseTimes
	ErrHiddenVsConfigLines
	ErrCannotChangeItemsAvailable
	ErrPubkeyMismatch
	ErrNoAllowlistToken
	ErrBurnFailed
	ErrCannotFindConfigLine
	ErrInvalidString
	ErrSuspiciousTransaction
	ErrCannotSwitchToHidden
	ErrWrongSlotHashesPubkey
	ErrWrongCollectionAuthority
	ErrMismatchedCollectionPda
	ErrMismatchedCollectionMint
	ErrSlotHashesEmpty
	ErrMetadataNotEmpty
	ErrMissingSetCollection
	ErrNoChangeCollectionDuringMint
	ErrNoChangeFreezeDuringMint
	ErrNoChangeAuthorityWithFreeze
	ErrNoChangeTokenWithFreeze
	ErrInvalidThaw
	ErrWrongRemainingAccountCount
	ErrMissingFreezeAta
	ErrWrongFreezeAta
	ErrFreezePdaMismatch
	ErrFreezeTooLong
	ErrNoWithdrawWithFreeze
	ErrNoWithdrawWithFrozenFunds
	ErrMissingRemoveFreezeTokenAccounts
	ErrInvalidFreezeWithdrawAddress
	ErrNFTsStillFrozen
	ErrInvalidBotSigner
	ErrBuyLimitExceeded
	ErrInvalidMerkleProof
	ErrAllowlistExhausted
	ErrTooManyRoots
	ErrTooManyOmniWallets
	ErrInvalidMintPrice
	ErrInvalidAllowlistSettings
	ErrBotTaxCollected
)

var errorNames = [...]string{
	"WrongOwner",
	"Uninitialized",
	"MintMismatch",
	"IndexOutOfRange",
	"NumericOverflow",
	"TooManyCreators",
	"UuidLength",
	"InsufficientPaymentToken",
	"InsufficientPaymentNative",
	"TransferFailed",
	"MachineEmpty",
	"PhaseNotLivePublic",
	"PhaseNotLiveAllowlist",
	"PublicPhaseEnded",
	"InvalidPhaseTimes",
	"HiddenVsConfigLines",
	"CannotChangeItemsAvailable",
	"PubkeyMismatch",
	"NoAllowlistToken",
	"BurnFailed",
	"CannotFindConfigLine",
	"InvalidString",
	"SuspiciousTransaction",
	"CannotSwitchToHidden",
	"WrongSlotHashesPubkey",
	"WrongCollectionAuthority",
	"MismatchedCollectionPda",
	"MismatchedCollectionMint",
	"SlotHashesEmpty",
	"MetadataNotEmpty",
	"MissingSetCollection",
	"NoChangeCollectionDuringMint",
	"NoChangeFreezeDuringMint",
	"NoChangeAuthorityWithFreeze",
	"NoChangeTokenWithFreeze",
	"InvalidThaw",
	"WrongRemainingAccountCount",
	"MissingFreezeAta",
	"WrongFreezeAta",
	"FreezePdaMismatch",
	"FreezeTooLong",
	"NoWithdrawWithFreeze",
	"NoWithdrawWithFrozenFunds",
	"MissingRemoveFreezeTokenAccounts",
	"InvalidFreezeWithdrawAddress",
	"NFTsStillFrozen",
	"InvalidBotSigner",
	"BuyLimitExceeded",
	"InvalidMerkleProof",
	"AllowlistExhausted",
	"TooManyRoots",
	"TooManyOmniWallets",
	"InvalidMintPrice",
	"InvalidAllowlistSettings",
	"BotTaxCollected",
}

// wireErrorBase is the offset added to an ErrorKind's index for its wire
// identity (§6, "Error identity on the wire").
const wireErrorBase = 2000

func (k ErrorKind) String() string {
	if int(k) < 0 || int(k) >= len(errorNames) {
		return "Unknown"
	}
	return errorNames[k]
}

// Code returns the wire-level integer identity for this error kind.
func (k ErrorKind) Code() int {
	return wireErrorBase + int(k)
}

// MachineError is the engine's error type. It is a plain error
// implementation — no third-party error-wrapping library is used anywhere
// in the teacher corpus, so none is introduced here (see DESIGN.md).
type MachineError struct {
	Kind    ErrorKind
	Message string
}

func (e *MachineError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// NewError builds a MachineError for the given kind with an optional
// human-readable detail string.
func NewError(kind ErrorKind, message string) *MachineError {
	return &MachineError{Kind: kind, Message: message}
}
