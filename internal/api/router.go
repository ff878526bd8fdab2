// Package api exposes the inbound webhook endpoint consumed by the alerting
// pipeline's media script.
package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moudsen/mailGraph/internal/config"
	"github.com/moudsen/mailGraph/internal/dispatch"
	"github.com/moudsen/mailGraph/internal/logging"
	"github.com/moudsen/mailGraph/internal/models"
)

// Handler serves the webhook endpoint.
type Handler struct {
	cfg config.Config
}

// NewRouter builds the gin engine with the webhook and health routes.
func NewRouter(cfg config.Config) *gin.Engine {
	r := gin.Default()
	h := &Handler{cfg: cfg}

	r.POST("/", h.Notify)
	r.POST("/mailgraph", h.Notify)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// Notify handles one notification request. The webhook script expects either
// {"messageId": ...} with status 200 or {"errors": [...]} on failure.
func (h *Handler) Notify(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"cannot read request body"}})
		return
	}

	req, err := models.ParseRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}

	// Each run gets its own logger so the in-memory trace stays run-scoped
	// while the file sink is shared.
	log := logging.New(h.cfg.Paths.Log, req.Debug)
	log.Infof("# Data passed from Zabbix: event %d for %s", req.EventID, req.Recipient)

	orchestrator, err := dispatch.NewForRequest(h.cfg, req, log)
	if err != nil {
		log.Errorf("! %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"errors": []string{err.Error()}})
		return
	}

	messageID, err := orchestrator.Run(c.Request.Context(), req)
	if err != nil {
		log.Errorf("! %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"errors": []string{err.Error()}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messageId": messageID})
}
