package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/app"
	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/auth"
	"github.com/iho/exledger/internal/infrastructure/config"
	"github.com/iho/exledger/internal/infrastructure/eventpublisher"
	"github.com/iho/exledger/internal/infrastructure/logger"
	"github.com/iho/exledger/internal/infrastructure/metrics"
	"github.com/iho/exledger/internal/infrastructure/postgres"
	"github.com/iho/exledger/internal/usecase"
)

var timeout time.Duration

func main() {
	rootCmd := &cobra.Command{
		Use:          "exledger-cli",
		Short:        "Exchange ledger CLI tool",
		Long:         `Operate an exchange ledger database directly: migrations, shifts, reports and tokens.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Command timeout")

	rootCmd.AddCommand(migrateCmd(), shiftCmd(), reportCmd(), ledgerCmd(), outboxCmd(), tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads the configuration, assembles the ledger and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})
	a, err := app.New(ctx, cfg, log, metrics.New(), app.Options{Redis: cfg.OutboxSink == eventpublisher.SinkRedis})
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// loadConfig reads the environment. The CLI serves no requests, so
// JWT_SECRET is only required by the token command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	cfg.AuthEnabled = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	run := func(down bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})
			if down {
				return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, log)
			}
			return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs, RunE: run(false)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", Args: cobra.NoArgs, RunE: run(true)},
	)
	return cmd
}

func shiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Shift operations",
	}

	var userID string
	start := &cobra.Command{
		Use:   "start <service-id>",
		Short: "Open a new shift, closing the one still open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var opener *string
				if userID != "" {
					opener = &userID
				}
				result, err := a.Shifts.Start(ctx, args[0], opener)
				if err != nil {
					return err
				}
				printJSON(dto.StartShiftResponse{
					Shift:  dto.ShiftFromDomain(result.Shift),
					Closed: dto.ShiftFromDomain(result.Closed),
				})
				return nil
			})
		},
	}
	start.Flags().StringVar(&userID, "user", "", "ID of the user opening the shift")

	end := &cobra.Command{
		Use:   "end <service-id>",
		Short: "Close the open shift of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				shift, err := a.Shifts.End(ctx, args[0])
				if err != nil {
					return err
				}
				printJSON(dto.ShiftFromDomain(shift))
				return nil
			})
		},
	}

	cmd.AddCommand(start, end)
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Shift reports",
	}

	var asJSON bool
	shift := &cobra.Command{
		Use:   "shift <shift-id>",
		Short: "Report on the orders of a shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Reports.GetShiftReport(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					printJSON(dto.ShiftReportFromUseCase(report))
					return nil
				}
				return writeShiftReport(os.Stdout, report)
			})
		},
	}
	shift.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	var from, to string
	series := &cobra.Command{
		Use:   "series <service-id>",
		Short: "Per-shift totals of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromTime, toTime, err := parseRange(from, to)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				points, err := a.Reports.GetServiceTimeSeries(ctx, args[0], fromTime, toTime)
				if err != nil {
					return err
				}
				return writeSeries(os.Stdout, points)
			})
		},
	}
	series.Flags().StringVar(&from, "from", "", "Start of the range, RFC 3339")
	series.Flags().StringVar(&to, "to", "", "End of the range, RFC 3339")

	cmd.AddCommand(shift, series)
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Check every balance against its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Recon.GenerateReconciliationReport(ctx)
				if err != nil {
					return err
				}
				printJSON(dto.ReconciliationFromUseCase(report))
				if !report.Consistent() {
					return fmt.Errorf("ledger inconsistent: %d discrepancies", len(report.Discrepancies))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(reconcile)
	return cmd
}

func outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Outbox operations",
	}

	publish := &cobra.Command{
		Use:   "publish",
		Short: "Publish one batch of pending events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Outbox.ProcessOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("published %d events\n", n)
				return nil
			})
		},
	}

	cmd.AddCommand(publish)
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API tokens",
	}

	issue := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue a JWT for an active user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Config.JWTSecret == "" {
					return errors.New("JWT_SECRET is not set")
				}
				manager := auth.NewJWTManager(a.Config.JWTSecret, a.Config.JWTExpiration)
				token, err := issueToken(ctx, a.Repos.Users, manager, args[0])
				if err != nil {
					return err
				}
				fmt.Println(token)
				return nil
			})
		},
	}

	cmd.AddCommand(issue)
	return cmd
}

type tokenGenerator interface {
	Generate(user *domain.User) (string, error)
}

// issueToken signs a token for the user with the given ID.
func issueToken(ctx context.Context, users usecase.UserRepository, gen tokenGenerator, userID string) (string, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user %s: %w", userID, err)
	}
	if !user.Active {
		return "", fmt.Errorf("user %s is inactive", userID)
	}
	return gen.Generate(user)
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	var fromTime, toTime time.Time
	var err error
	if from != "" {
		if fromTime, err = time.Parse(time.RFC3339, from); err != nil {
			return fromTime, toTime, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if toTime, err = time.Parse(time.RFC3339, to); err != nil {
			return fromTime, toTime, fmt.Errorf("--to: %w", err)
		}
	}
	return fromTime, toTime, nil
}

func writeShiftReport(out io.Writer, report *usecase.ShiftReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "shift %d of %s, started %s\n\n", report.Shift.Sequence, report.Shift.ServiceID, report.Shift.StartTime.Format(time.RFC3339))
	fmt.Fprintln(w, "ID\tTIME\tTYPE\tRECEIVED\tGIVEN\tPROFIT RUB\tOPERATOR\tCOMMENT")
	for _, row := range report.Orders {
		o := row.Order
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s %s\t%s\t%s\t%s\n",
			truncate(o.ID, 12),
			o.CreatedAt.Format("15:04:05"),
			o.Type,
			o.ReceivedAmount.String(), row.ReceivedSymbol,
			o.GivenAmount.String(), row.GivenSymbol,
			o.ProfitRUB.StringFixed(2),
			row.OperatorName,
			truncate(o.Comment, 30),
		)
	}

	t := report.Totals
	fmt.Fprintf(w, "\norders\t%d\n", t.OrderCount)
	fmt.Fprintf(w, "exchanges\t%d\n", t.ExchangeCount)
	fmt.Fprintf(w, "profit RUB\t%s\n", t.ProfitRUB.StringFixed(2))
	fmt.Fprintf(w, "average %%\t%s\n", t.AveragePercent.StringFixed(2))
	fmt.Fprintf(w, "turnover RUB\t%s\n", t.TurnoverRUB.StringFixed(2))
	return w.Flush()
}

func writeSeries(out io.Writer, points []usecase.ShiftSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHIFT\tSTARTED\tENDED\tORDERS\tPROFIT RUB\tTURNOVER RUB")
	for _, p := range points {
		ended := "open"
		if p.Shift.EndTime != nil {
			ended = p.Shift.EndTime.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
			p.Shift.Sequence,
			p.Shift.StartTime.Format(time.RFC3339),
			ended,
			p.Totals.OrderCount,
			p.Totals.ProfitRUB.StringFixed(2),
			p.Totals.TurnoverRUB.StringFixed(2),
		)
	}
	return w.Flush()
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
