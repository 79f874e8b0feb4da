package commands

import (
	"context"
	"surihub-timeclock-svc/src/internal/dependency"
	"time"

	"github.com/spf13/cobra"
)

var seedStationsCmd = &cobra.Command{
	Use:   "seed-stations",
	Short: "Insert the default stations into an empty catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := dependency.Bootstrap(nil, cfg)
		if err != nil {
			return err
		}
		defer deps.Close(context.Background())

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.App.Timeout)*time.Second)
		defer cancel()

		inserted, err := deps.StationService.SeedDefaults(ctx)
		if err != nil {
			return err
		}
		if inserted == 0 {
			cmd.Println("Stations already exist, nothing to seed")
			return nil
		}
		cmd.Printf("Seeded %d stations\n", inserted)
		return nil
	},
}
