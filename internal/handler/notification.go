package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/middleware"
	"github.com/flicky/holohaven-api/internal/realtime"
	"github.com/flicky/holohaven-api/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	hub                 *realtime.Hub
}

func NewNotificationHandler(notificationService *service.NotificationService, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, hub: hub}
}

func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notificationService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id", "notification")
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req dto.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.notificationService.RegisterToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Push token registered"})
}

func (h *NotificationHandler) SendPromotion(c *gin.Context) {
	var req dto.SendPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.notificationService.SendProductPromotion(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) SendRandomPromotion(c *gin.Context) {
	resp, err := h.notificationService.SendRandomPromotion(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream upgrades to a websocket that receives the caller's notifications
// as they are created.
func (h *NotificationHandler) Stream(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request, middleware.GetUserID(c))
}
