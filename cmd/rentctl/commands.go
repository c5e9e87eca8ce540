package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"rental-manager/internal/app"
	"rental-manager/internal/auth"
	"rental-manager/internal/config"
	"rental-manager/internal/increase"
	"rental-manager/internal/logger"
	"rental-manager/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = app.ConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	app.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp loads config and connects; the caller must Close the app
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.NewLogger(cfg.Logging.Level, "console", "rentctl")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return app.Open(cmd.Context(), cfg, log)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Migrate(); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List an account's pending rent increases",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, _ := cmd.Flags().GetString("account")
			within, _ := cmd.Flags().GetInt("within")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Increases.ListPending(cmd.Context(), account, within)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tDAYS\tPROPERTY\tTENANT\tCURRENT\tNEW\tSCHEDULE")
			for _, p := range items {
				tenant := "-"
				if p.TenantName != nil {
					tenant = *p.TenantName
				}
				marker := ""
				if p.Urgent {
					marker = " !"
				}
				fmt.Fprintf(w, "%s\t%d%s\t%s\t%s\t%s\t%s\t%s\n",
					p.NextIncreaseDate.Format("2006-01-02"), p.DaysUntilIncrease, marker,
					p.PropertyName, tenant,
					p.CurrentAmount.StringFixed(2), p.NewAmount.StringFixed(2), p.ScheduleID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("account", "", "Account id")
	cmd.Flags().Int("within", increase.DefaultWindow, "Days ahead to include; 0 lists every pending increase")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the pending increase of a rent schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, _ := cmd.Flags().GetString("account")
			scheduleID, _ := cmd.Flags().GetString("schedule")
			dateStr, _ := cmd.Flags().GetString("date")
			notes, _ := cmd.Flags().GetString("notes")

			effective, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := a.Increases.ApplyIncrease(cmd.Context(), account, scheduleID, effective, notes)
			if err != nil {
				return err
			}
			fmt.Printf("Applied %s -> %s (%s%%) from %s; new schedule %s\n",
				applied.OldAmount.StringFixed(2), applied.NewAmount.StringFixed(2),
				applied.IncreasePercentage.String(), applied.EffectiveDate.Format("2006-01-02"),
				applied.NewScheduleID)
			if !applied.HistoryRecorded {
				fmt.Println("Warning: the history record could not be written")
			}
			return nil
		},
	}
	cmd.Flags().String("account", "", "Account id")
	cmd.Flags().String("schedule", "", "Current rent schedule id")
	cmd.Flags().String("date", "", "Effective date (YYYY-MM-DD)")
	cmd.Flags().String("notes", "", "Notes for the history record")
	for _, name := range []string{"account", "schedule", "date"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func exportHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-history",
		Short: "Write an account's rent increase history to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, _ := cmd.Flags().GetString("account")
			propertyID, _ := cmd.Flags().GetString("property")
			out, _ := cmd.Flags().GetString("out")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.History.Export(cmd.Context(), account, propertyID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("account", "", "Account id")
	cmd.Flags().String("property", "", "Limit to one property")
	cmd.Flags().String("out", "rent-increase-history.xlsx", "Output file")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the urgent rent increase reminder once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s := scheduler.NewScheduler(a.Store, a.Increases, a.Config.Scheduler, a.Config.Increase.UrgentDays, a.Location, a.Metrics, a.Logger)
			summary, err := s.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			a.Logger.Info("Reminder run finished",
				zap.Int("accounts", summary.Accounts),
				zap.Int("urgent", summary.Urgent),
				zap.Int("failed", summary.Failed))
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, _ := cmd.Flags().GetString("account")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, account, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("account", "", "Account id")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
