package catalog

import (
	"context"
	"net/http"
	"surihub-timeclock-svc/src/internal/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Vehicles(c *gin.Context)
	Stations(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service *Service
}

func NewHandler(cfg *config.Configuration, service *Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) Vehicles(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	vehicles, err := h.service.ListActiveVehicles(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list active vehicles")
		h.sendErrorResponse(c, "Failed to load vehicles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vehicles,
		"count":   len(vehicles),
	})
}

func (h *handler) Stations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	stations, err := h.service.ListActiveStations(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list active stations")
		h.sendErrorResponse(c, "Failed to load stations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stations,
		"count":   len(stations),
	})
}

func (h *handler) sendErrorResponse(c *gin.Context, title string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error":     title,
		"success":   false,
		"message":   "Please try again",
		"retryable": true,
	})
}
