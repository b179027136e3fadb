package handlers

import (
	"errors"
	"net/http"

	"github.com/basset-hound/automation/internal/fillconfig"
	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/internal/model"
	"github.com/gin-gonic/gin"
)

var log = logger.Get()

// ConfigHandler serves the demo form endpoints: submissions that capture
// fill configs, and the per-origin config lookup the extension polls.
type ConfigHandler struct {
	store *fillconfig.Store
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(store *fillconfig.Store) *ConfigHandler {
	return &ConfigHandler{store: store}
}

// RegisterRoutes registers the submit and config routes.
func (h *ConfigHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/submit", h.Submit)
	r.GET("/config", h.GetConfig)
}

// Submit handles POST /submit
func (h *ConfigHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid form submission")
		return
	}

	h.store.Put(c.Request.Context(), req.Config())
	submissionsTotal.Inc()

	c.Redirect(http.StatusFound, "https://"+req.TargetDomain()+"/")
}

// GetConfig handles GET /config?origin=<domain>
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	origin := c.Query("origin")

	config, err := h.store.Get(c.Request.Context(), origin)
	if err != nil {
		if errors.Is(err, model.ErrConfigNotFound) {
			configMisses.Inc()
			sendError(c, http.StatusNotFound, "No config found")
			return
		}
		log.WithError(err).WithField("origin", origin).Error("config lookup failed")
		sendError(c, http.StatusInternalServerError, "Config lookup failed")
		return
	}

	configHits.Inc()
	c.JSON(http.StatusOK, config)
}

// sendError writes the flat error payload the extension expects.
func sendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}
