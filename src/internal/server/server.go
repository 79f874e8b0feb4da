package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/dependency"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start connects the backing services, serves HTTP and blocks until
// SIGINT or SIGTERM, then drains in-flight requests and closes the clients.
func (s *Server) Start() error {
	gin.SetMode(s.cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	deps, err := dependency.Bootstrap(router, s.cfg)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())

	SetupRoutes(deps)

	httpServer := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("port", s.cfg.Server.Port).Infof("%s listening", s.cfg.App.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shut down")
		return err
	}

	logrus.Info("Server stopped")
	return nil
}
