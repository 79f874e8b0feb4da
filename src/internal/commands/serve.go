package commands

import (
	"surihub-timeclock-svc/src/internal/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logrus.Infof("Application %s is starting....", cfg.App.Name)
		return server.New(cfg).Start()
	},
}
