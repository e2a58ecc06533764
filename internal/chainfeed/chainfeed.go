// Package chainfeed is the engine's PRNG seed source (§4.5): the hash of
// the most recent block from a connected node, which a buyer cannot
// influence once their mint is submitted. Adapted from the teacher's
// Bitcoin RPC client, trimmed to the connection and block-hash surface
// this purpose actually needs.
package chainfeed

import (
	"encoding/binary"
	"log"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/rawblock/mint-engine/pkg/models"
)

type Config struct {
	Host string
	User string
	Pass string
}

type Client struct {
	RPC    *rpcclient.Client
	Config Config
}

func NewClient(cfg Config) (*Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	log.Printf("Connecting to chain feed RPC at %s...", cfg.Host)
	client, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, err
	}

	height, err := client.GetBlockCount()
	if err != nil {
		client.Shutdown()
		return nil, err
	}
	log.Printf("Connected to chain feed. Current height: %d", height)

	return &Client{RPC: client, Config: cfg}, nil
}

func (c *Client) Shutdown() {
	c.RPC.Shutdown()
}

// RecentHash returns the most recent block's hash, the engine's analogue
// of the recent-hashes register's newest entry (§4.5, §6).
func (c *Client) RecentHash() (*chainhash.Hash, error) {
	height, err := c.RPC.GetBlockCount()
	if err != nil {
		return nil, err
	}
	return c.RPC.GetBlockHash(height)
}

// Seed derives the PRNG seed from a recent-hashes entry (§4.5): bytes
// [12:20] of the hash, interpreted as a little-endian uint64.
func Seed(h *chainhash.Hash) uint64 {
	b := h[:]
	return binary.LittleEndian.Uint64(b[12:20])
}

// CheckCanonical validates gate 6 of §4.7: the caller's declared
// recent-hashes register must be the canonical one this client tracks.
func CheckCanonical(declared, canonical string) error {
	if declared != canonical {
		return models.NewError(models.ErrWrongSlotHashesPubkey, "recent-hashes register is not the canonical one")
	}
	return nil
}
