package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"surihub-timeclock-svc/src/internal/session"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	sessionKeyPattern = "session:%s:%s" // session:userID:sessionID
	catalogKeyPattern = "catalog:%s"

	CatalogVehicles = "vehicles"
	CatalogStations = "stations"
)

type Service interface {
	GetActiveSession(ctx context.Context, key string) (*session.Session, error)
	UpdateSessionActivity(ctx context.Context, key string) error
	CacheActiveSession(ctx context.Context, session *session.Session) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
	SaveStats(ctx context.Context, stats *models.Stats) error
	GetStats(ctx context.Context) (*models.Stats, error)
	InvalidateStats(ctx context.Context) error
	GetCatalog(ctx context.Context, kind string, dest any) (bool, error)
	SaveCatalog(ctx context.Context, kind string, value any) error
	InvalidateCatalog(ctx context.Context) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache}
}

func SessionKey(userID, sessionID string) string {
	return fmt.Sprintf(sessionKeyPattern, userID, sessionID)
}

func (c *cacheService) GetActiveSession(ctx context.Context, key string) (*session.Session, error) {
	logrus.WithField("key", key).Debug("Getting active session from cache")

	var s session.Session
	found, err := c.getJSON(ctx, key, &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (c *cacheService) UpdateSessionActivity(ctx context.Context, key string) error {
	s, err := c.GetActiveSession(ctx, key)
	if err != nil || s == nil {
		return err
	}

	s.LastActiveAt = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal session for activity update")
		return models.ErrRedisSet
	}

	ttl := c.sessionTTL(s)
	if ttl <= 0 {
		return c.DeleteSession(ctx, s.UserID, s.SessionID)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to update session activity")
		return models.ErrRedisSet
	}
	return nil
}

func (c *cacheService) CacheActiveSession(ctx context.Context, s *session.Session) error {
	ttl := c.sessionTTL(s)
	if ttl <= 0 {
		logrus.WithField("session_id", s.SessionID).Warn("Session already expired, not caching")
		return nil
	}

	if err := c.setJSON(ctx, SessionKey(s.UserID, s.SessionID), s, ttl); err != nil {
		return err
	}
	logrus.WithField("session_id", s.SessionID).Debug("Session cached successfully")
	return nil
}

// sessionTTL extends the sliding window without outliving the token.
func (c *cacheService) sessionTTL(s *session.Session) time.Duration {
	ttl := time.Duration(c.cfg.SessionExpirationMinutes) * time.Minute
	if remaining := time.Until(s.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	return ttl
}

func (c *cacheService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := c.client.Del(ctx, SessionKey(userID, sessionID)).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to delete cached session")
		return models.ErrRedisDelete
	}
	return nil
}

func (c *cacheService) SaveStats(ctx context.Context, stats *models.Stats) error {
	return c.setJSON(ctx, c.cfg.StatsKey, stats, time.Duration(c.cfg.StatsExpirationMinutes)*time.Minute)
}

func (c *cacheService) GetStats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	found, err := c.getJSON(ctx, c.cfg.StatsKey, &stats)
	if err != nil || !found {
		return nil, err
	}
	logrus.Debug("Stats retrieved from cache successfully")
	return &stats, nil
}

func (c *cacheService) InvalidateStats(ctx context.Context) error {
	if err := c.client.Del(ctx, c.cfg.StatsKey).Err(); err != nil {
		logrus.WithError(err).Error("Failed to invalidate stats cache")
		return models.ErrRedisDelete
	}
	return nil
}

// GetCatalog decodes the cached active list of kind into dest and reports a hit.
func (c *cacheService) GetCatalog(ctx context.Context, kind string, dest any) (bool, error) {
	return c.getJSON(ctx, fmt.Sprintf(catalogKeyPattern, kind), dest)
}

func (c *cacheService) SaveCatalog(ctx context.Context, kind string, value any) error {
	ttl := time.Duration(c.cfg.CatalogExpirationMinutes) * time.Minute
	return c.setJSON(ctx, fmt.Sprintf(catalogKeyPattern, kind), value, ttl)
}

func (c *cacheService) InvalidateCatalog(ctx context.Context) error {
	keys := []string{
		fmt.Sprintf(catalogKeyPattern, CatalogVehicles),
		fmt.Sprintf(catalogKeyPattern, CatalogStations),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).Error("Failed to invalidate catalog cache")
		return models.ErrRedisDelete
	}
	logrus.Debug("Catalog cache invalidated")
	return nil
}

func (c *cacheService) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", key).Debug("Cache miss")
			return false, nil
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to read from cache")
		return false, models.ErrRedisGet
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal cached value")
		return false, models.ErrRedisGet
	}
	return true, nil
}

func (c *cacheService) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to marshal value for cache")
		return models.ErrRedisSet
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to write to cache")
		return models.ErrRedisSet
	}
	return nil
}
