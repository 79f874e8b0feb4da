package dependency

import (
	"context"
	"fmt"
	"surihub-timeclock-svc/src/clients"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/catalog"
	"surihub-timeclock-svc/src/internal/clock"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/report"
	"surihub-timeclock-svc/src/internal/security"
	"surihub-timeclock-svc/src/internal/session"
	"surihub-timeclock-svc/src/internal/station"
	"surihub-timeclock-svc/src/internal/user"
	"surihub-timeclock-svc/src/internal/vehicle"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventPublisher is satisfied by clients.Publisher and clients.LogPublisher.
type EventPublisher interface {
	clock.Publisher
	user.ActivityPublisher
	vehicle.ActivityPublisher
}

type Manager struct {
	Router         *gin.Engine
	Config         *config.Configuration
	Mongodb        *clients.MongoDB
	Redis          *clients.RedisClient
	RabbitMQ       *clients.RabbitMQ
	Publisher      EventPublisher
	CacheService   cache.Service
	Tokens         *security.TokenManager
	SessionRepo    session.Repository
	UserRepo       user.Repository
	UserService    user.Service
	UserHandler    user.Handler
	VehicleRepo    vehicle.Repository
	VehicleService vehicle.Service
	VehicleHandler vehicle.Handler
	StationRepo    station.Repository
	StationService station.Service
	StationHandler station.Handler
	CatalogService *catalog.Service
	CatalogHandler catalog.Handler
	ClockStore     clock.Store
	ClockManager   clock.Manager
	ClockHandler   clock.Handler
	ReportService  report.Service
	ReportHandler  report.Handler
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	var publisher EventPublisher = clients.LogPublisher{}
	if rabbitMQ != nil {
		publisher = clients.NewPublisher(&cfg.Queue.RabbitMQ, rabbitMQ.Channel)
	}

	db := mongodb.Database
	cols := cfg.Database.Collections

	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	tokens := security.NewTokenManager(
		cfg.Security.Issuer,
		cfg.Security.JwtKey,
		time.Duration(cfg.Security.AccessTokenMinutes)*time.Minute,
	)

	sessionRepo := session.NewSessionRepository(db, cols.AuthSessions)
	userRepo := user.NewUserRepository(db, cols.Users)
	userService := user.NewUserService(userRepo, sessionRepo, cacheService, tokens, publisher, cfg)

	vehicleRepo := vehicle.NewVehicleRepository(db, cols.Vehicles)
	vehicleService := vehicle.NewVehicleService(vehicleRepo, cacheService, publisher)

	stationRepo := station.NewStationRepository(db, cols.Stations)
	stationService := station.NewStationService(stationRepo, cacheService, publisher)

	catalogService := catalog.NewCatalogService(vehicleService, stationService, cacheService)

	var clockStore clock.Store
	if cfg.Database.Driver == config.DriverMemory {
		logrus.Warn("Clock sessions are kept in memory and will not survive a restart")
		clockStore = clock.NewMemoryStore()
	} else {
		clockStore = clock.NewMongoStore(db, cols)
	}
	clockManager := clock.NewManager(clockStore,
		clock.WithPublisher(publisher),
		clock.WithArchiveKey(clock.ArchiveKeyFor(cfg.Clock.ArchiveKeyMode)),
	)

	reportService := report.NewReportService(clockManager, userService, vehicleService, stationService, publisher)

	return &Manager{
		Router:         router,
		Config:         cfg,
		Mongodb:        mongodb,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Publisher:      publisher,
		CacheService:   cacheService,
		Tokens:         tokens,
		SessionRepo:    sessionRepo,
		UserRepo:       userRepo,
		UserService:    userService,
		UserHandler:    user.NewHandler(cfg, userService),
		VehicleRepo:    vehicleRepo,
		VehicleService: vehicleService,
		VehicleHandler: vehicle.NewHandler(cfg, vehicleService),
		StationRepo:    stationRepo,
		StationService: stationService,
		StationHandler: station.NewHandler(cfg, stationService),
		CatalogService: catalogService,
		CatalogHandler: catalog.NewHandler(cfg, catalogService),
		ClockStore:     clockStore,
		ClockManager:   clockManager,
		ClockHandler:   clock.NewHandler(cfg, clockManager, clock.NewCatalog(catalogService)),
		ReportService:  reportService,
		ReportHandler:  report.NewHandler(cfg, reportService, cacheService),
	}
}

// Bootstrap connects MongoDB, Redis and, when enabled, RabbitMQ, then wires
// every service. Clients opened before a failure are closed again.
func Bootstrap(router *gin.Engine, cfg *config.Configuration) (*Manager, error) {
	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		_ = mongodb.Close(context.Background())
		return nil, err
	}

	var rabbitMQ *clients.RabbitMQ
	if cfg.Queue.RabbitMQ.Enabled {
		rabbitMQ, err = clients.NewRabbitMQ(&cfg.Queue.RabbitMQ)
		if err == nil {
			err = rabbitMQ.SetupExchange()
		}
		if err != nil {
			_ = rabbitMQ.Close()
			_ = redisClient.Close()
			_ = mongodb.Close(context.Background())
			return nil, fmt.Errorf("failed to set up rabbitmq: %w", err)
		}
	} else {
		logrus.Info("RabbitMQ disabled, events will only be logged")
	}

	deps := NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.Timeout)*time.Second)
	defer cancel()
	if err := deps.EnsureIndexes(ctx); err != nil {
		deps.Close(context.Background())
		return nil, err
	}
	return deps, nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func (m *Manager) EnsureIndexes(ctx context.Context) error {
	targets := map[string]indexer{
		"users":    m.UserRepo,
		"vehicles": m.VehicleRepo,
		"stations": m.StationRepo,
	}
	if store, ok := m.ClockStore.(indexer); ok {
		targets["clock"] = store
	}

	for name, target := range targets {
		if err := target.EnsureIndexes(ctx); err != nil {
			logrus.WithError(err).WithField("collection", name).Error("Failed to create indexes")
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	logrus.Debug("Indexes ensured")
	return nil
}

// Close releases every client. It is safe to call on a partially built manager.
func (m *Manager) Close(ctx context.Context) {
	if err := m.RabbitMQ.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close RabbitMQ")
	}
	if err := m.Redis.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close Redis")
	}
	if err := m.Mongodb.Close(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to close MongoDB")
	}
}
