package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/mint-engine/internal/audit"
	"github.com/rawblock/mint-engine/internal/lifecycle"
	"github.com/rawblock/mint-engine/internal/orchestrator"
)

// APIHandler wires the HTTP surface to the lifecycle and orchestrator
// layers, the on-demand invariant scanner, and the websocket hub used
// to push mint/freeze/thaw/audit events.
type APIHandler struct {
	Lifecycle    *lifecycle.Manager
	Orchestrator *orchestrator.Orchestrator
	Audit        *audit.Scanner
	Hub          *Hub
}

// corsMiddleware allows the configured origins (or all, in dev) to call
// the API from a browser-based dashboard.
func corsMiddleware() gin.HandlerFunc {
	allowed := os.Getenv("ALLOWED_ORIGINS")
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed == "" || allowed == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else {
			for _, o := range strings.Split(allowed, ",") {
				if strings.TrimSpace(o) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter builds the gin engine: public health/stream routes, and
// authenticated, rate-limited routes for every Machine operation of §6
// except SetCollectionDuringMint, which has no route of its own and is only
// named in a mint request's nextOperation field.
func SetupRouter(h *APIHandler) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/api/v1/health", h.handleHealth)
	r.GET("/stream", h.Hub.Subscribe)

	limiter := NewRateLimiter(30, 5)
	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware())
	protected.Use(limiter.Middleware())
	{
		protected.POST("/machines", h.handleInitializeMachine)
		protected.GET("/machines/:id", h.handleGetMachine)
		protected.PUT("/machines/:id", h.handleUpdateMachine)
		protected.PUT("/machines/:id/authority", h.handleUpdateAuthority)
		protected.POST("/machines/:id/config-lines", h.handleAddConfigLines)
		protected.POST("/machines/:id/merkle-roots", h.handleAppendMerkleRoots)
		protected.DELETE("/machines/:id/merkle-roots", h.handleClearMerkleRoots)
		protected.POST("/machines/:id/collection", h.handleSetCollection)
		protected.DELETE("/machines/:id/collection", h.handleRemoveCollection)
		protected.DELETE("/machines/:id", h.handleWithdraw)

		protected.POST("/machines/:id/mint", h.handleMintNFT)

		protected.POST("/machines/:id/freeze", h.handleSetFreeze)
		protected.DELETE("/machines/:id/freeze", h.handleRemoveFreeze)
		protected.POST("/machines/:id/thaw", h.handleThawNFT)
		protected.POST("/machines/:id/unlock-funds", h.handleUnlockFunds)

		protected.POST("/audit/scan", h.handleAuditScan)
		protected.GET("/audit/progress", h.handleAuditProgress)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
