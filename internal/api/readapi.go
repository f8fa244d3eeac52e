package api

import (
	"net/http"
	"strconv"
	"time"

	"eva-finance/internal/models"

	"github.com/gin-gonic/gin"
)

// ListSignalEvents is a read-only projection over SignalEvent for
// operator dashboards, paginated by a simple limit/offset pair.
func (h *Handler) ListSignalEvents(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	var events []models.SignalEvent
	if err := h.db.Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// AcknowledgeSignalEvent flips the operator-facing Acknowledged flag. This
// never mutates Payload or any scoring field — it is purely a triage
// breadcrumb for dashboards.
func (h *Handler) AcknowledgeSignalEvent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.db.Model(&models.SignalEvent{}).Where("id = ?", id).Update("acknowledged", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

// ListDrafts is a read-only projection over RecommendationDraft.
func (h *Handler) ListDrafts(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	var drafts []models.RecommendationDraft
	if err := h.db.Order("id DESC").Limit(limit).Offset(offset).Find(&drafts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// approveRequest is the human-gate action: an operator approves a draft
// for delivery by the notifier.
type approveRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
}

// ApproveDraft sets approved = true with an approver identity and
// timestamp. This is the only write path that flips Approved — the
// notifier only ever reads it.
func (h *Handler) ApproveDraft(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approved_by is required"})
		return
	}
	now := time.Now()
	err = h.db.Model(&models.RecommendationDraft{}).Where("id = ?", id).Updates(map[string]interface{}{
		"approved":    true,
		"approved_by": req.ApprovedBy,
		"approved_at": now,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// ListPositions is a read-only projection over PaperPosition.
func (h *Handler) ListPositions(c *gin.Context) {
	status := c.Query("status")
	q := h.db.Order("id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var positions []models.PaperPosition
	if err := q.Find(&positions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
