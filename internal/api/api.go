// Package api exposes the admission HTTP endpoint and a small read-only
// operator API.
package api

import (
	"net/http"
	"time"

	"eva-finance/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Handler owns the store handle every route needs.
type Handler struct {
	db *gorm.DB
}

// SetupRoutes wires the admission endpoint and the read-only operator API
// onto r.
func SetupRoutes(r *gin.RouterGroup, db *gorm.DB) *Handler {
	h := &Handler{db: db}

	r.POST("/intake/message", h.Admit)

	signals := r.Group("/signals")
	{
		signals.GET("", h.ListSignalEvents)
		signals.POST("/:id/ack", h.AcknowledgeSignalEvent)
	}

	drafts := r.Group("/drafts")
	{
		drafts.GET("", h.ListDrafts)
		drafts.POST("/:id/approve", h.ApproveDraft)
	}

	positions := r.Group("/positions")
	{
		positions.GET("", h.ListPositions)
	}

	r.GET("/ws/events", h.StreamEvents)

	return h
}

// intakeEnvelope mirrors ingest.Envelope on the wire, decoded
// independently here so the admission endpoint has no import-time
// coupling to the ingestion conductor package.
type intakeEnvelope struct {
	Source     string                 `json:"source" binding:"required"`
	PlatformID string                 `json:"platform_id" binding:"required"`
	Timestamp  time.Time              `json:"timestamp" binding:"required"`
	Text       string                 `json:"text" binding:"required"`
	URL        string                 `json:"url"`
	Meta       map[string]interface{} `json:"meta"`
}

// Admit handles POST /intake/message: validate, insert-or-dedupe on
// (source, platform_id), return the row id either way.
func (h *Handler) Admit(c *gin.Context) {
	var env intakeEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid envelope: " + err.Error()})
		return
	}

	post := models.RawPost{
		Source:     env.Source,
		PlatformID: env.PlatformID,
		OccurredAt: env.Timestamp.UTC(),
		Text:       env.Text,
		URL:        env.URL,
		Meta:       models.JSONMap(env.Meta),
	}

	res := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "platform_id"}},
		DoNothing: true,
	}).Create(&post)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}

	if res.RowsAffected > 0 {
		c.JSON(http.StatusOK, gin.H{"status": "received", "id": post.ID})
		return
	}

	var existing models.RawPost
	if err := h.db.Where("source = ? AND platform_id = ?", env.Source, env.PlatformID).First(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received", "duplicate": true, "id": existing.ID})
}
