package user

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"surihub-timeclock-svc/src/internal/validation"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	GetAllUsers(c *gin.Context)
	GetUser(c *gin.Context)
	CreateAdmin(c *gin.Context)
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

func (h *handler) Register(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendBindError(c, err)
		return
	}

	profile, err := h.service.Register(ctx, &req)
	if err != nil {
		h.handleError(c, err, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    profile,
		"message": "Registration successful",
	})
}

func (h *handler) Login(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendBindError(c, err)
		return
	}

	response, err := h.service.Login(ctx, &req, ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.handleError(c, err, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Login successful",
	})
}

func (h *handler) Logout(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	if err := h.service.Logout(ctx, c.GetString("user_id"), c.GetString("session_id")); err != nil {
		h.handleError(c, err, "Failed to log out")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out",
	})
}

func (h *handler) GetAllUsers(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	req := &GetAllUsersRequest{
		Page:   parseIntParam(c, "page", 1),
		Limit:  parseIntParam(c, "limit", h.config.Search.MinQueryLimit),
		Role:   c.DefaultQuery("role", RoleEmployee),
		Search: c.Query("search"),
	}

	logrus.WithFields(logrus.Fields{
		"admin_user_id": c.GetString("user_id"),
		"page":          req.Page,
		"limit":         req.Limit,
		"role":          req.Role,
	}).Debug("Listing users")

	response, err := h.service.GetAllUsers(ctx, req)
	if err != nil {
		h.handleError(c, err, "Failed to retrieve users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Users retrieved successfully",
	})
}

func (h *handler) GetUser(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	profile, err := h.service.GetUser(ctx, c.Param("id"))
	if err != nil {
		h.handleError(c, err, "Failed to retrieve user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

func (h *handler) CreateAdmin(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendBindError(c, err)
		return
	}

	profile, err := h.service.CreateAdmin(ctx, &req, c.GetString("user_id"))
	if err != nil {
		h.handleError(c, err, "Failed to create admin")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    profile,
		"message": "Admin created successfully",
	})
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
		}).Warn("Invalid integer parameter, using default")
		return defaultValue
	}
	return parsed
}

func (h *handler) handleError(c *gin.Context, err error, title string) {
	switch {
	case errors.Is(err, models.ErrInvalidParams):
		h.sendErrorResponse(c, http.StatusBadRequest, title, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		h.sendErrorResponse(c, http.StatusUnauthorized, title, err.Error())
	case errors.Is(err, models.ErrUserNotFound):
		h.sendErrorResponse(c, http.StatusNotFound, title, err.Error())
	case errors.Is(err, models.ErrEmailTaken):
		h.sendErrorResponse(c, http.StatusConflict, title, err.Error())
	default:
		logrus.WithError(err).Error(title)
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
