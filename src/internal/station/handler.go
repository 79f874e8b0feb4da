package station

import (
	"context"
	"errors"
	"net/http"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"surihub-timeclock-svc/src/internal/validation"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Activate(c *gin.Context)
	Deactivate(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	stations, err := h.service.List(ctx, c.Query("status"))
	if err != nil {
		h.handleError(c, err, "Failed to list stations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stations,
		"count":   len(stations),
	})
}

func (h *handler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	station, err := h.service.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.handleError(c, err, "Failed to get station")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    station,
	})
}

func (h *handler) Create(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendBindError(c, err)
		return
	}

	station, err := h.service.Create(ctx, &req, c.GetString("user_id"))
	if err != nil {
		h.handleError(c, err, "Failed to create station")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    station,
		"message": "Station added successfully",
	})
}

func (h *handler) Update(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendBindError(c, err)
		return
	}

	station, err := h.service.Update(ctx, c.Param("id"), &req, c.GetString("user_id"))
	if err != nil {
		h.handleError(c, err, "Failed to update station")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    station,
		"message": "Station updated successfully",
	})
}

func (h *handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *handler) setActive(c *gin.Context, active bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	station, err := h.service.SetActive(ctx, c.Param("id"), active, c.GetString("user_id"))
	if err != nil {
		h.handleError(c, err, "Failed to change station status")
		return
	}

	message := "Station deactivated successfully"
	if active {
		message = "Station activated successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    station,
		"message": message,
	})
}

func (h *handler) handleError(c *gin.Context, err error, title string) {
	switch {
	case errors.Is(err, models.ErrInvalidParams):
		h.sendErrorResponse(c, http.StatusBadRequest, title, err.Error())
	case errors.Is(err, models.ErrStationNotFound):
		h.sendErrorResponse(c, http.StatusNotFound, title, err.Error())
	default:
		logrus.WithError(err).WithField("station_id", c.Param("id")).Error(title)
		h.sendErrorResponse(c, http.StatusInternalServerError, title, "Internal server error")
	}
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string) {
	c.JSON(statusCode, gin.H{
		"error":   error,
		"success": false,
		"message": message,
	})
}

func (h *handler) sendBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"success": false,
		"message": err.Error(),
		"details": validation.Details(err),
	})
}
