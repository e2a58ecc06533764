package chainfeed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Poller refreshes the cached recent-hash on a ticker so mint requests
// never block on a live RPC round trip for their PRNG seed (§4.5).
// Adapted from the teacher's mempool-ticker pattern.
type Poller struct {
	client *Client

	mu      sync.RWMutex
	hash    chainhash.Hash
	seed    uint64
	hasSeed bool
}

func NewPoller(client *Client) *Poller {
	return &Poller{client: client}
}

// NewPollerWithSeed builds a Poller pre-seeded with a cached hash/PRNG
// seed and no backing RPC client, so tests can drive the mint
// orchestrator's happy path without a live chain feed.
func NewPollerWithSeed(hash chainhash.Hash, seed uint64) *Poller {
	return &Poller{hash: hash, seed: seed, hasSeed: true}
}

func (p *Poller) Run(ctx context.Context) {
	if p.client == nil {
		log.Println("[chainfeed] RPC client is nil; poller will not start")
		return
	}

	log.Println("Starting chain feed poller...")
	p.refresh()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping chain feed poller...")
			return
		case <-ticker.C:
			p.refresh()
		}
	}
}

func (p *Poller) refresh() {
	h, err := p.client.RecentHash()
	if err != nil {
		log.Printf("[chainfeed] failed to refresh recent hash: %v", err)
		return
	}
	p.mu.Lock()
	p.hash = *h
	p.seed = Seed(h)
	p.hasSeed = true
	p.mu.Unlock()
}

// CurrentSeed returns the cached PRNG seed and whether one has been
// fetched yet.
func (p *Poller) CurrentSeed() (uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.seed, p.hasSeed
}

// CurrentHash returns the cached recent block hash as a hex string, the
// engine's stand-in for the recent-hashes register identity check.
func (p *Poller) CurrentHash() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.hasSeed {
		return "", false
	}
	return p.hash.String(), true
}
