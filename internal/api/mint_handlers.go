package api

import (
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/mint-engine/pkg/models"
)

// decodeRoots parses hex-encoded 32-byte merkle roots from a request body.
func decodeRoots(hexRoots []string) ([][32]byte, error) {
	roots := make([][32]byte, len(hexRoots))
	for i, hr := range hexRoots {
		b, err := hex.DecodeString(hr)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("root %d: want 32 bytes, got %d", i, len(b))
		}
		copy(roots[i][:], b)
	}
	return roots, nil
}

// handleMintNFT runs the MintNFT operation (§4.7) through the
// orchestrator and broadcasts the outcome over the websocket hub.
func (h *APIHandler) handleMintNFT(c *gin.Context) {
	id := c.Param("id")

	var req models.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.MachineID = id

	result, err := h.Orchestrator.Mint(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	event := "nft.minted"
	if result.BotTaxed {
		event = "nft.bot_taxed"
	} else if result.RoutedToFreeze {
		event = "nft.minted_frozen"
	}
	h.broadcast(event, id, result)

	c.JSON(http.StatusOK, result)
}
