package commands

import (
	"context"
	"fmt"
	"surihub-timeclock-svc/src/internal/dependency"
	"surihub-timeclock-svc/src/internal/user"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bootstrapCreator is recorded as createdBy for admins made from the CLI.
const bootstrapCreator = "cli"

var adminReq user.RegisterRequest

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long:  "Create an administrator account. Use it to bootstrap the first admin, who can then create others over the API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := binding.Validator.ValidateStruct(&adminReq); err != nil {
			return fmt.Errorf("invalid admin details: %w", err)
		}

		deps, err := dependency.Bootstrap(nil, cfg)
		if err != nil {
			return err
		}
		defer deps.Close(context.Background())

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.App.Timeout)*time.Second)
		defer cancel()

		profile, err := deps.UserService.CreateAdmin(ctx, &adminReq, bootstrapCreator)
		if err != nil {
			return err
		}
		cmd.Printf("Created admin %s (%s)\n", profile.Email, profile.ID)
		return nil
	},
}

func init() {
	addAdminFlags(createAdminCmd.Flags(), &adminReq)
	for _, name := range []string{"email", "password", "first-name", "last-name"} {
		_ = createAdminCmd.MarkFlagRequired(name)
	}
}

func addAdminFlags(flags *pflag.FlagSet, req *user.RegisterRequest) {
	flags.StringVar(&req.Email, "email", "", "admin email address")
	flags.StringVar(&req.Password, "password", "", "initial password (8-72 characters)")
	flags.StringVar(&req.FirstName, "first-name", "", "first name")
	flags.StringVar(&req.LastName, "last-name", "", "last name")
}
