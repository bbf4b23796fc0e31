package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"giveaway/internal/models"
	"giveaway/internal/services"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the
// giveaway service.
type HTTPHandler struct {
	service *services.GiveawayService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.GiveawayService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/giveaways", h.Open)
	router.GET("/giveaways", h.ListActive)
	router.GET("/giveaways/:id", h.Get)
	router.PATCH("/giveaways/:id", h.Edit)
	router.POST("/giveaways/:id/enter", h.Enter)
	router.POST("/giveaways/:id/end", h.End)
	router.POST("/giveaways/:id/reroll", h.Reroll)
	router.POST("/giveaways/:id/pause", h.Pause)
	router.POST("/giveaways/:id/resume", h.Resume)
}

type openRequest struct {
	ChannelRef   string              `json:"channelRef" binding:"required"`
	CommunityRef string              `json:"communityRef" binding:"required"`
	OrganizerID  string              `json:"organizerId" binding:"required"`
	Prize        string              `json:"prize"`
	Description  string              `json:"description"`
	WinnerQuota  int                 `json:"winnerQuota"`
	Duration     string              `json:"duration"`
	Requirements models.Requirements `json:"requirements"`
	BonusEntries []models.BonusEntry `json:"bonusEntries"`
}

type editRequest struct {
	Prize       *string `json:"prize"`
	Description *string `json:"description"`
	WinnerQuota *int    `json:"winnerQuota"`
	ExtendBy    string  `json:"extendBy"`
}

type enterRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

type rerollRequest struct {
	Count int `json:"count"`
}

// drawingView wraps a drawing with a human-readable countdown.
type drawingView struct {
	*models.Drawing
	TimeLeft string `json:"timeLeft"`
}

func view(d *models.Drawing) drawingView {
	if d.Ended {
		return drawingView{Drawing: d, TimeLeft: "ended"}
	}
	return drawingView{Drawing: d, TimeLeft: services.FormatRemaining(time.Now(), d.EndTime)}
}

// writeError maps lifecycle error kinds onto response codes. DeliveryFailed
// is not handled here: the state transition committed, so those responses
// stay 200 with a warning field.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrClosed), errors.Is(err, models.ErrNotEnded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidSpec), errors.Is(err, models.ErrNoChange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Open handles the request to create a new giveaway drawing.
func (h *HTTPHandler) Open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		writeError(c, models.ErrInvalidSpec)
		return
	}

	d, err := h.service.Open(c.Request.Context(), services.OpenSpec{
		ChannelRef:   req.ChannelRef,
		CommunityRef: req.CommunityRef,
		OrganizerID:  req.OrganizerID,
		Prize:        req.Prize,
		Description:  req.Description,
		WinnerQuota:  req.WinnerQuota,
		Duration:     duration,
		Requirements: req.Requirements,
		BonusEntries: req.BonusEntries,
	})
	if errors.Is(err, models.ErrDeliveryFailed) {
		c.JSON(http.StatusCreated, gin.H{"drawing": view(d), "warning": err.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"drawing": view(d)})
}

// ListActive returns the active drawings of a community.
func (h *HTTPHandler) ListActive(c *gin.Context) {
	communityRef := c.Query("community_id")
	if communityRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "community_id is required"})
		return
	}

	list, err := h.service.ListActive(c.Request.Context(), communityRef)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]drawingView, 0, len(list))
	for _, d := range list {
		views = append(views, view(d))
	}
	c.JSON(http.StatusOK, gin.H{"drawings": views})
}

// Get returns a single drawing.
func (h *HTTPHandler) Get(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drawing": view(d)})
}

// Enter registers a participant in a drawing.
func (h *HTTPHandler) Enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Enter(c.Request.Context(), c.Param("id"), req.ParticipantID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entered": true})
}

// End finalizes a drawing immediately.
func (h *HTTPHandler) End(c *gin.Context) {
	d, err := h.service.End(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrDeliveryFailed) {
		c.JSON(http.StatusOK, gin.H{"drawing": view(d), "warning": err.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drawing": view(d)})
}

// Reroll draws a fresh winner set for an ended drawing.
func (h *HTTPHandler) Reroll(c *gin.Context) {
	var req rerollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	d, err := h.service.Reroll(c.Request.Context(), c.Param("id"), req.Count)
	if errors.Is(err, models.ErrDeliveryFailed) {
		c.JSON(http.StatusOK, gin.H{"drawing": view(d), "warning": err.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drawing": view(d)})
}

// Edit applies a patch to an active drawing.
func (h *HTTPHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := models.EditPatch{
		Prize:       req.Prize,
		Description: req.Description,
		WinnerQuota: req.WinnerQuota,
	}
	if req.ExtendBy != "" {
		extend, err := time.ParseDuration(req.ExtendBy)
		if err != nil {
			writeError(c, models.ErrInvalidSpec)
			return
		}
		patch.ExtendBy = extend
	}

	d, err := h.service.Edit(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drawing": view(d)})
}

// Pause excludes a drawing from automatic expiry.
func (h *HTTPHandler) Pause(c *gin.Context) {
	if err := h.service.Pause(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// Resume puts a paused drawing back on the scanner's schedule.
func (h *HTTPHandler) Resume(c *gin.Context) {
	if err := h.service.Resume(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}
