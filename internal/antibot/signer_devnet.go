//go:build devnet

package antibot

// SignerAuthority is the test anti-bot authority pubkey used when the
// engine is built with the devnet tag (§6, "compile-time toggles").
const SignerAuthority = "BotAuthTest11111111111111111111111111111111"
