package report

import (
	"context"
	"errors"
	"net/http"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/clock"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Sessions(c *gin.Context)
	GetStats(c *gin.Context)
}

type handler struct {
	config       *config.Configuration
	service      Service
	cacheService cache.Service
}

func NewHandler(cfg *config.Configuration, service Service, cacheService cache.Service) Handler {
	return &handler{
		config:       cfg,
		service:      service,
		cacheService: cacheService,
	}
}

func (h *handler) Sessions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	filter, err := clock.ParseArchiveFilter(c, h.config.Search)
	if err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}
	filter.UserID = c.Query("userId")

	rows, err := h.service.Sessions(ctx, c.GetString("user_id"), filter)
	if err != nil {
		if errors.Is(err, models.ErrInvalidParams) {
			h.sendErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
			return
		}
		logrus.WithError(err).Error("Failed to build session report")
		h.sendErrorResponse(c, http.StatusServiceUnavailable, "Failed to retrieve sessions", "Please try again")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rows,
		"count":   len(rows),
	})
}

func (h *handler) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	logrus.WithField("admin_user_id", c.GetString("user_id")).Debug("Admin user accessing GetStats")

	cached, err := h.cacheService.GetStats(ctx)
	if err == nil && cached != nil {
		logrus.Debug("Dashboard statistics retrieved from cache")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    cached,
			"message": "Statistics retrieved successfully (from cache)",
		})
		return
	}

	stats, err := h.service.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get dashboard statistics")
		h.sendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve statistics", err.Error())
		return
	}

	if err := h.cacheService.SaveStats(ctx, stats); err != nil {
		logrus.WithError(err).Warn("Failed to cache dashboard statistics")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"message": "Statistics retrieved successfully",
	})
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string) {
	c.JSON(statusCode, gin.H{
		"error":   error,
		"success": false,
		"message": message,
	})
}
