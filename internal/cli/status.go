package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/labi1240/amazon-shifts-bot/internal/core/config"
	"github.com/labi1240/amazon-shifts-bot/internal/infra/storage/postgres"
)

var statusSince time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent bookings from the ledger",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&statusSince, "since", 24*time.Hour, "how far back to list bookings")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("status requires a database.url in the config")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewBookingRepo(db)
	records, err := repo.ListSince(ctx, time.Now().Add(-statusSince))
	if err != nil {
		slog.Error("Failed to query bookings", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tOUTCOME\tTITLE\tLOCATION\tSTRATEGY")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.BookedAt.Format(time.RFC3339), r.Outcome, r.Title, r.Location, r.Strategy)
	}
	_ = w.Flush()
}
