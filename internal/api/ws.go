package api

import (
	"log"
	"net/http"
	"time"

	"eva-finance/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader leaves origin checking to the reverse proxy operators front
// this with; the socket is read-only and carries no control-plane actions.
var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// eventsPollInterval is how often StreamEvents checks the store for newly
// persisted SignalEvent rows to fan out to connected dashboards.
const eventsPollInterval = 3 * time.Second

// StreamEvents upgrades to a websocket and fans out newly-persisted
// SignalEvent rows as they land. It never accepts input from the client
// beyond the initial handshake.
func (h *Handler) StreamEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[API] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var lastID uint64
	if err := h.db.Model(&models.SignalEvent{}).Select("COALESCE(MAX(id), 0)").Scan(&lastID).Error; err != nil {
		log.Printf("[API] websocket initial cursor failed: %v", err)
	}

	ticker := time.NewTicker(eventsPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		var events []models.SignalEvent
		if err := h.db.Where("id > ?", lastID).Order("id ASC").Limit(100).Find(&events).Error; err != nil {
			log.Printf("[API] websocket poll failed: %v", err)
			continue
		}
		for _, event := range events {
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[API] websocket write failed: %v", err)
				return
			}
			lastID = event.ID
		}
	}
}
