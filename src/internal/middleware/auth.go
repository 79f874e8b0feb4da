package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/models"
	"surihub-timeclock-svc/src/internal/security"
	"surihub-timeclock-svc/src/internal/session"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const RoleAdmin = "admin"

// AuthMiddleware handles authentication and authorization
type AuthMiddleware struct {
	tokens       *security.TokenManager
	cacheService cache.Service
	sessionRepo  session.Repository
}

func NewAuthMiddleware(tokens *security.TokenManager, cacheService cache.Service, sessionRepo session.Repository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:       tokens,
		cacheService: cacheService,
		sessionRepo:  sessionRepo,
	}
}

// RequireAuth validates JWT token and session
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := m.tokens.ParseAccessToken(token)
		if err != nil {
			logrus.WithError(err).Warn("JWT token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		isValidSession, err := m.validateSession(c.Request.Context(), claims.SessionID, claims.UserID)
		if err != nil {
			logrus.WithError(err).Error("Session validation failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Session validation error",
			})
			c.Abort()
			return
		}

		if !isValidSession {
			logrus.WithField("session_id", claims.SessionID).Warn("Session is invalid or expired")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Session expired - please login again",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("session_id", claims.SessionID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		logrus.WithFields(logrus.Fields{
			"user_id":    claims.UserID,
			"session_id": claims.SessionID,
			"user_role":  claims.Role,
		}).Debug("User authenticated successfully")

		c.Next()
	}
}

// RequireAdminRights checks if user has admin privileges
func (m *AuthMiddleware) RequireAdminRights() gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			logrus.Error("User role not found in context - ensure RequireAuth middleware runs first")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		if role, _ := userRole.(string); role != RoleAdmin {
			logrus.WithFields(logrus.Fields{
				"user_id":   c.GetString("user_id"),
				"user_role": userRole,
			}).Warn("User attempted to access admin endpoint without admin privileges")

			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access forbidden - admin privileges required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		logrus.Debug("Missing or malformed authorization header")
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// validateSession checks session validity in Redis first, then MongoDB fallback
func (m *AuthMiddleware) validateSession(ctx context.Context, sessionID, userID string) (bool, error) {
	key := cache.SessionKey(userID, sessionID)
	cached, err := m.cacheService.GetActiveSession(ctx, key)
	if err == nil && cached != nil && cached.IsValid(time.Now()) {
		if err := m.cacheService.UpdateSessionActivity(ctx, key); err != nil {
			logrus.WithError(err).Warn("Failed to refresh cached session")
		}
		return true, nil
	}

	s, err := m.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	if s.UserID != userID || !s.IsValid(time.Now()) {
		logrus.WithField("session_id", sessionID).Warn("Session is not active")
		return false, nil
	}

	if err := m.sessionRepo.UpdateActivity(ctx, sessionID); err != nil {
		logrus.WithError(err).Warn("Failed to update session activity")
	}
	s.LastActiveAt = time.Now()
	if err := m.cacheService.CacheActiveSession(ctx, s); err != nil {
		logrus.WithError(err).Warn("Failed to cache session")
	}

	logrus.WithField("session_id", sessionID).Debug("Session validated from MongoDB")
	return true, nil
}
