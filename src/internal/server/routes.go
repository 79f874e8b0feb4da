package server

import (
	"net/http"
	"surihub-timeclock-svc/src/clients"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/dependency"
	"surihub-timeclock-svc/src/internal/middleware"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)
	router.Use(middleware.Metrics())

	authMiddleware := middleware.NewAuthMiddleware(deps.Tokens, deps.CacheService, deps.SessionRepo)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupEmployeeRoutes(router, deps, authMiddleware)
	setupAdminRoutes(router, deps, authMiddleware)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		logrus.Debug("Health check endpoint requested")

		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		logrus.Debug("Detailed health check endpoint requested")

		clockStore := "mongodb"
		if cfg.Database.Driver == config.DriverMemory {
			clockStore = "memory"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(mongodb, c)),
					"redis":   getStatus(isRedisConnected(redisClient.Client, c)),
				},
				"messaging": gin.H{
					"rabbitmq": getStatus(deps.RabbitMQ != nil && !deps.RabbitMQ.Conn.IsClosed()),
				},
				"clock": gin.H{
					"store":       clockStore,
					"archive_key": cfg.Clock.ArchiveKeyMode,
				},
			},
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
		})
	})

	handler := deps.UserHandler
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", setRouteName("register"), handler.Register)
		auth.POST("/login", setRouteName("login"), handler.Login)
	}
}

func setupEmployeeRoutes(router *gin.Engine, deps *dependency.Manager, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api/v1", authMiddleware.RequireAuth())
	{
		api.POST("/auth/logout", setRouteName("logout"), deps.UserHandler.Logout)

		api.GET("/catalog/vehicles", setRouteName("listActiveVehicles"), deps.CatalogHandler.Vehicles)
		api.GET("/catalog/stations", setRouteName("listActiveStations"), deps.CatalogHandler.Stations)

		clockHandler := deps.ClockHandler
		api.GET("/clock/current", setRouteName("getCurrentSession"), clockHandler.GetCurrentSession)
		api.GET("/clock/history", setRouteName("getClockHistory"), clockHandler.GetHistory)
		api.POST("/clock/in", setRouteName("clockIn"), clockHandler.ClockIn)
		api.POST("/clock/out", setRouteName("clockOut"), clockHandler.ClockOut)
		api.PATCH("/clock/current/notes", setRouteName("updateNotes"), clockHandler.UpdateNotes)
	}
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager, authMiddleware *middleware.AuthMiddleware) {
	admin := router.Group("/api/v1/admin", authMiddleware.RequireAuth(), authMiddleware.RequireAdminRights())
	{
		users := deps.UserHandler
		admin.GET("/employees", setRouteName("listEmployees"), users.GetAllUsers)
		admin.GET("/employees/:id", setRouteName("getEmployee"), users.GetUser)
		admin.POST("/admins", setRouteName("createAdmin"), users.CreateAdmin)

		reports := deps.ReportHandler
		admin.GET("/stats", setRouteName("getStats"), reports.GetStats)
		admin.GET("/reports/sessions", setRouteName("getSessionReport"), reports.Sessions)

		vehicles := deps.VehicleHandler
		admin.GET("/vehicles", setRouteName("listVehicles"), vehicles.List)
		admin.GET("/vehicles/:id", setRouteName("getVehicle"), vehicles.Get)
		admin.POST("/vehicles", setRouteName("createVehicle"), vehicles.Create)
		admin.PUT("/vehicles/:id", setRouteName("updateVehicle"), vehicles.Update)
		admin.PATCH("/vehicles/:id/retire", setRouteName("retireVehicle"), vehicles.Retire)
		admin.DELETE("/vehicles/:id", setRouteName("deleteVehicle"), vehicles.Delete)

		stations := deps.StationHandler
		admin.GET("/stations", setRouteName("listStations"), stations.List)
		admin.GET("/stations/:id", setRouteName("getStation"), stations.Get)
		admin.POST("/stations", setRouteName("createStation"), stations.Create)
		admin.PUT("/stations/:id", setRouteName("updateStation"), stations.Update)
		admin.PATCH("/stations/:id/activate", setRouteName("activateStation"), stations.Activate)
		admin.PATCH("/stations/:id/deactivate", setRouteName("deactivateStation"), stations.Deactivate)
	}
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func isMongoConnected(mongodb *clients.MongoDB, c *gin.Context) bool {
	if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
		return false
	}
	return true
}

func isRedisConnected(redisClient *redis.Client, c *gin.Context) bool {
	if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
		return false
	}
	return true
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
