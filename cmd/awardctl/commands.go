package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/spf13/cobra"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "awardctl",
		Short:         "Administer the Vibe Coding Award",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml")

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newCycleCommand())
	root.AddCommand(newNewsletterCommand())
	root.AddCommand(newUserCommand())
	return root
}

// openServices connects to the database and wires the services with an
// in-process mail queue, so commands never depend on a running worker.
func openServices() (*services.Services, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := models.InitDB(&cfg.Database, "release"); err != nil {
		return nil, nil, err
	}
	db := models.GetDB()
	services.InitSystemLogger(db)

	queue := services.NewSyncQueue()
	svc := services.New(db, cfg, queue, services.NewMailer(db, cfg))
	queue.SetProcessor(svc.Notifications.Process)

	cleanup := func() {
		queue.Wait()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return svc, cleanup, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and seed default templates and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := models.Migrate(svc.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := models.Seed(svc.DB); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		},
	}
}

func newCycleCommand() *cobra.Command {
	cycleCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Manage monthly award cycles",
	}

	var month, year int
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the cycle for the current month, or --month/--year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			var (
				cycle   *models.AwardCycle
				created bool
			)
			if month == 0 && year == 0 {
				cycle, created, err = svc.Cycles.Create()
			} else {
				cycle, created, err = svc.Cycles.CreateFor(month, year)
			}
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.ErrOrStderr(), "cycle %02d/%d already exists\n", cycle.Month, cycle.Year)
			}
			return printJSON(cmd, svc.Cycles.Info(cycle))
		},
	}
	create.Flags().IntVar(&month, "month", 0, "month (1-12)")
	create.Flags().IntVar(&year, "year", 0, "year")

	current := &cobra.Command{
		Use:   "current",
		Short: "Show the current cycle and its live phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			cycle, err := svc.Cycles.Current()
			if err != nil {
				return err
			}
			return printJSON(cmd, svc.Cycles.Info(cycle))
		},
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Persist the phase implied by the clock on the current cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			cycle, err := svc.Cycles.SyncStatus()
			if err != nil {
				return err
			}
			return printJSON(cmd, svc.Cycles.Info(cycle))
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all cycles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			cycles, err := svc.Cycles.List()
			if err != nil {
				return err
			}
			for _, c := range cycles {
				fmt.Fprintf(cmd.OutOrStdout(), "%d-%02d\t%s\n", c.Year, c.Month, c.Status)
			}
			return nil
		},
	}

	cycleCmd.AddCommand(create, current, sync, list)
	return cycleCmd
}

func newNewsletterCommand() *cobra.Command {
	newsletterCmd := &cobra.Command{
		Use:   "newsletter",
		Short: "Newsletter delivery",
	}

	var req services.SendNewsletterRequest
	send := &cobra.Command{
		Use:   "send",
		Short: "Mail the monthly newsletter to every active subscriber",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := svc.Newsletter.Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	send.Flags().IntVar(&req.Month, "month", 0, "month to report on (defaults to the current month)")
	send.Flags().IntVar(&req.Year, "year", 0, "year to report on")
	send.Flags().StringVar(&req.Intro, "intro", "", "opening paragraph")

	newsletterCmd.AddCommand(send)
	return newsletterCmd
}

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var role string
	promote := &cobra.Command{
		Use:   "promote <email>",
		Short: "Set the role of a user who has signed in at least once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openServices()
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := svc.Users.SetRoleByEmail(args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
	promote.Flags().StringVar(&role, "role", models.RoleAdmin, "role to assign (USER or ADMIN)")

	userCmd.AddCommand(promote)
	return userCmd
}
