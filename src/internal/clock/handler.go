package clock

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
	GetCurrentSession(c *gin.Context)
	ClockIn(c *gin.Context)
	ClockOut(c *gin.Context)
	UpdateNotes(c *gin.Context)
	GetHistory(c *gin.Context)
}

type ClockInBody struct {
	VehicleID string            `json:"vehicleId"`
	StationID string            `json:"stationId"`
	Location  *ReportedLocation `json:"location"`
}

type ClockOutBody struct {
	Location *ReportedLocation `json:"location"`
}

type NotesBody struct {
	Notes string `json:"notes" binding:"max=2000"`
}

type CurrentSessionResponse struct {
	ClockedIn bool          `json:"clockedIn"`
	Session   *ClockSession `json:"session,omitempty"`
}

type handler struct {
	config  *config.Configuration
	manager Manager
	catalog *Catalog
}

func NewHandler(cfg *config.Configuration, manager Manager, catalog *Catalog) Handler {
	return &handler{
		config:  cfg,
		manager: manager,
		catalog: catalog,
	}
}

func (h *handler) timeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}

func (h *handler) GetCurrentSession(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	userID := c.GetString("user_id")
	session, err := h.manager.GetCurrentSession(ctx, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    CurrentSessionResponse{ClockedIn: session != nil, Session: session},
	})
}

func (h *handler) ClockIn(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var body ClockInBody
	if err := c.ShouldBindJSON(&body); err != nil {
		logrus.WithError(err).Warn("Invalid clock in body")
		h.sendBindError(c, err)
		return
	}

	userID := c.GetString("user_id")
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"vehicle_id": body.VehicleID,
		"station_id": body.StationID,
	}).Info("Clock in request received")

	vehicle, station, err := h.catalog.Resolve(ctx, body.VehicleID, body.StationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	session, err := h.manager.ClockIn(ctx, &ClockInRequest{
		UserID:    userID,
		UserEmail: c.GetString("user_email"),
		Vehicle:   vehicle,
		Station:   station,
		Locator:   body.Location,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    session,
		"message": "Clocked in successfully",
	})
}

func (h *handler) ClockOut(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var body ClockOutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		logrus.WithError(err).Warn("Invalid clock out body")
		h.sendBindError(c, err)
		return
	}

	userID := c.GetString("user_id")
	logrus.WithField("user_id", userID).Info("Clock out request received")

	session, err := h.manager.ClockOut(ctx, userID, body.Location)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
		"message": "Clocked out successfully",
	})
}

func (h *handler) UpdateNotes(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	var body NotesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.sendBindError(c, err)
		return
	}

	session, err := h.manager.UpdateNotes(ctx, c.GetString("user_id"), body.Notes)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
		"message": "Notes updated successfully",
	})
}

func (h *handler) GetHistory(c *gin.Context) {
	ctx, cancel := h.timeout(c)
	defer cancel()

	filter, err := ParseArchiveFilter(c, h.config.Search)
	if err != nil {
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err.Error(), false)
		return
	}
	filter.UserID = c.GetString("user_id")

	sessions, err := h.manager.History(ctx, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessions,
		"count":   len(sessions),
	})
}

// ParseArchiveFilter reads from, to (RFC3339) and limit from the query string.
func ParseArchiveFilter(c *gin.Context, search config.SearchConfig) (ArchiveFilter, error) {
	var filter ArchiveFilter

	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("from must be an RFC3339 timestamp")
		}
		filter.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("to must be an RFC3339 timestamp")
		}
		filter.To = &to
	}

	filter.Limit = int64(search.MinQueryLimit)
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = int64(limit)
	}
	if search.MaxQueryLimit > 0 && filter.Limit > int64(search.MaxQueryLimit) {
		filter.Limit = int64(search.MaxQueryLimit)
	}
	return filter, nil
}

func (h *handler) handleError(c *gin.Context, err error) {
	retryable := models.IsRetryable(err)
	logrus.WithError(err).WithFields(logrus.Fields{
		"user_id":   c.GetString("user_id"),
		"retryable": retryable,
	}).Warn("Clock request failed")

	switch {
	case errors.Is(err, models.ErrInvalidParams):
		h.sendErrorResponse(c, http.StatusBadRequest, "Invalid request", err.Error(), retryable)
	case errors.Is(err, models.ErrSessionAlreadyOpen):
		h.sendErrorResponse(c, http.StatusConflict, "Already clocked in", "Clock out of the open session first", retryable)
	case errors.Is(err, models.ErrNoOpenSession):
		h.sendErrorResponse(c, http.StatusConflict, "Not clocked in", "There is no open session", retryable)
	case errors.Is(err, models.ErrArchiveConflict), errors.Is(err, models.ErrSessionArchived):
		h.sendErrorResponse(c, http.StatusConflict, "Session conflict", err.Error(), retryable)
	case errors.Is(err, models.ErrVehicleRequired):
		h.sendErrorResponse(c, http.StatusUnprocessableEntity, "Vehicle required", "Select an active vehicle", retryable)
	case errors.Is(err, models.ErrStationRequired):
		h.sendErrorResponse(c, http.StatusUnprocessableEntity, "Station required", "Select an active station", retryable)
	case errors.Is(err, models.ErrPreconditionFailed):
		h.sendErrorResponse(c, http.StatusUnprocessableEntity, "Precondition failed", err.Error(), retryable)
	case errors.Is(err, models.ErrLocationPermissionDenied):
		h.sendErrorResponse(c, http.StatusFailedDependency, "Location permission denied", "Allow location access and try again", retryable)
	case errors.Is(err, models.ErrLocationUnavailable):
		h.sendErrorResponse(c, http.StatusFailedDependency, "Location unavailable", "Could not get your location, try again", retryable)
	case errors.Is(err, models.ErrStoreWrite), errors.Is(err, models.ErrStoreRead):
		h.sendErrorResponse(c, http.StatusServiceUnavailable, "Storage unavailable", "Please try again", retryable)
	default:
		h.sendErrorResponse(c, http.StatusInternalServerError, "Internal error", err.Error(), retryable)
	}
}

func (h *handler) sendErrorResponse(c *gin.Context, statusCode int, error, message string, retryable bool) {
	c.JSON(statusCode, gin.H{
		"error":     error,
		"success":   false,
		"message":   message,
		"retryable": retryable,
	})
}

func (h *handler) sendBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"success":   false,
		"message":   err.Error(),
		"details":   validation.Details(err),
		"retryable": false,
	})
}
