package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleAuditScan runs one full invariant scan over every persisted
// Machine and returns the report, including a fresh correlation ID.
func (h *APIHandler) handleAuditScan(c *gin.Context) {
	report, err := h.Audit.Scan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.broadcast("audit.scan_complete", "", report)
	c.JSON(http.StatusOK, report)
}

// handleAuditProgress reports the in-flight (or most recent) scan's
// progress counters.
func (h *APIHandler) handleAuditProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.Audit.Progress())
}
