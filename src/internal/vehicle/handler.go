package vehicle

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
	Retire(c *gin.Context)
	Delete(c *gin.Context)
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

func (h *handler) timeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}

func (h *handler) List(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	vehicles, err := h.service.List(ctx, c.Query("status"))
	if err != nil {
		h.handleError(c, err, "Failed to list vehicles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vehicles,
		"count":   len(vehicles),
	})
}

func (h *handler) Get(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	v, err := h.service.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.handleError(c, err, "Failed to get vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    v,
	})
}

func (h *handler) Create(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendBindError(c, err)
		return
	}

	v, err := h.service.Create(ctx, &req, c.GetString("user_id"))
	if err != nil {
		h.handleError(c, err, "Failed to create vehicle")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    v,
		"message": "Vehicle added successfully",
	})
}

func (h *handler) Update(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendBindError(c, err)
		return
	}

	v, err := h.service.Update(ctx, c.Param("id"), &req, c.GetString("user_id"))
	if err != nil {
		h.handleError(c, err, "Failed to update vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    v,
		"message": "Vehicle updated successfully",
	})
}

func (h *handler) Retire(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	v, err := h.service.Retire(ctx, c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.handleError(c, err, "Failed to retire vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    v,
		"message": "Vehicle retired",
	})
}

func (h *handler) Delete(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	if err := h.service.Delete(ctx, c.Param("id"), c.GetString("user_id")); err != nil {
		h.handleError(c, err, "Failed to delete vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Vehicle deleted successfully",
	})
}

func (h *handler) handleError(c *gin.Context, err error, title string) {
	switch {
	case errors.Is(err, models.ErrInvalidParams):
		h.sendErrorResponse(c, http.StatusBadRequest, title, err.Error())
	case errors.Is(err, models.ErrVehicleNotFound):
		h.sendErrorResponse(c, http.StatusNotFound, title, err.Error())
	case errors.Is(err, models.ErrRegistrationTaken):
		h.sendErrorResponse(c, http.StatusConflict, title, err.Error())
	default:
		logrus.WithError(err).WithField("vehicle_id", c.Param("id")).Error(title)
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
