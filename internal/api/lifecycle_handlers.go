package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/mint-engine/internal/machine"
	"github.com/rawblock/mint-engine/pkg/models"
)

// writeError maps a MachineError to its wire error code (§7, 2000+index)
// and an appropriate HTTP status; any other error is a 500.
func writeError(c *gin.Context, err error) {
	if me, ok := err.(*models.MachineError); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     me.Error(),
			"errorCode": me.Kind.Code(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

type initializeMachineRequest struct {
	SaleAuthority    string            `json:"saleAuthority" binding:"required"`
	CreatorAuthority string            `json:"creatorAuthority" binding:"required"`
	Treasury         string            `json:"treasury" binding:"required"`
	TreasuryMint     string            `json:"treasuryMint"`
	Config           models.SaleConfig `json:"config" binding:"required"`
}

func (h *APIHandler) handleInitializeMachine(c *gin.Context) {
	var req initializeMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := machine.MachineCreatorID(req.SaleAuthority + req.CreatorAuthority + req.Treasury)
	m, err := h.Lifecycle.Initialize(c.Request.Context(), id, req.SaleAuthority, req.CreatorAuthority, req.Treasury, req.TreasuryMint, req.Config)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *APIHandler) handleGetMachine(c *gin.Context) {
	id := c.Param("id")
	m, _, err := h.Lifecycle.Store.GetMachine(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *APIHandler) handleUpdateMachine(c *gin.Context) {
	id := c.Param("id")
	var cfg models.SaleConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.Lifecycle.UpdateData(c.Request.Context(), id, cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *APIHandler) handleUpdateAuthority(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		NewAuthority string `json:"newAuthority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.Lifecycle.UpdateAuthority(c.Request.Context(), id, req.NewAuthority)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *APIHandler) handleAddConfigLines(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		StartIndex uint64              `json:"startIndex"`
		Lines      []models.ConfigLine `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Lifecycle.AddConfigLines(c.Request.Context(), id, req.StartIndex, req.Lines); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleAppendMerkleRoots(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Roots []string `json:"roots" binding:"required"` // hex-encoded 32-byte roots
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roots, err := decodeRoots(req.Roots)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Lifecycle.AppendMerkleRoots(c.Request.Context(), id, roots); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleClearMerkleRoots(c *gin.Context) {
	id := c.Param("id")
	if err := h.Lifecycle.ClearMerkleRoots(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleSetCollection(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Mint string `json:"mint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Lifecycle.SetCollection(c.Request.Context(), id, req.Mint); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleRemoveCollection(c *gin.Context) {
	id := c.Param("id")
	if err := h.Lifecycle.RemoveCollection(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleWithdraw(c *gin.Context) {
	id := c.Param("id")
	if err := h.Lifecycle.Withdraw(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleSetFreeze(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		FreezeTime        int64  `json:"freezeTime"`
		FreezeFee         uint64 `json:"freezeFee"`
		ChangingTokenMint bool   `json:"changingTokenMint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := h.Lifecycle.SetFreeze(c.Request.Context(), id, req.FreezeTime, req.FreezeFee, req.ChangingTokenMint)
	if err != nil {
		writeError(c, err)
		return
	}
	h.broadcast("freeze.set", id, f)
	c.JSON(http.StatusOK, f)
}

func (h *APIHandler) handleRemoveFreeze(c *gin.Context) {
	id := c.Param("id")
	if err := h.Lifecycle.RemoveFreeze(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	h.broadcast("freeze.removed", id, nil)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleThawNFT(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Now int64 `json:"now" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Lifecycle.ThawNFT(c.Request.Context(), id, req.Now); err != nil {
		writeError(c, err)
		return
	}
	h.broadcast("nft.thawed", id, nil)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) handleUnlockFunds(c *gin.Context) {
	id := c.Param("id")
	if err := h.Lifecycle.UnlockFunds(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	h.broadcast("freeze.unlocked", id, nil)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) broadcast(event, machineID string, payload interface{}) {
	if h.Hub == nil {
		return
	}
	msg, err := json.Marshal(gin.H{"event": event, "machineId": machineID, "data": payload})
	if err != nil {
		return
	}
	h.Hub.Broadcast(msg)
}
