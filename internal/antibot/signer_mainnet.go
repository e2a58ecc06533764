//go:build !devnet

package antibot

// SignerAuthority is the anti-bot authority pubkey the engine expects to
// see and, if bot_protection_enabled, require a signature from (§4.8).
// Exactly one of signer_mainnet.go / signer_devnet.go is compiled in,
// selected by the devnet build tag (§6, "compile-time toggles").
const SignerAuthority = "BotAuth1111111111111111111111111111111111"
