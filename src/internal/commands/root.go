package commands

import (
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/logger"

	"github.com/spf13/cobra"
)

var cfg *config.Configuration

var rootCmd = &cobra.Command{
	Use:   "timeclock",
	Short: "SuriHub time clock service",
	Long: `timeclock is the backend of the SuriHub time clock app. Employees clock in
and out against a vehicle and a station; administrators manage the catalog,
accounts and session reports.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.Init(cfg)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedStationsCmd)
	rootCmd.AddCommand(createAdminCmd)
}
