package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carhunt/carhunt/internal/extract"
	"github.com/carhunt/carhunt/internal/fetcher"
	"github.com/carhunt/carhunt/internal/logger"
	"github.com/carhunt/carhunt/internal/store"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fill in missing locations on stored listings",
	Long: `Revisit stored listings whose location was never captured and
fill it in from their detail pages. Location is the only field a stored
listing ever has updated; everything else is written once at ingestion.

Example:
  carhunt backfill --source otomoto --limit 50`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	flags := backfillCmd.Flags()
	flags.StringP("source", "s", "", "source whose rows to backfill: otomoto, olx (required)")
	flags.Int("limit", 0, "stop after this many rows (0: no limit)")
	flags.Duration("min-delay", 4*time.Second, "minimum politeness delay between requests")
	flags.Duration("max-delay", 7*time.Second, "maximum politeness delay between requests")
	flags.Duration("timeout", 30*time.Second, "per-request fetch timeout")
	flags.String("profile", "", "YAML source-profile override file")
	flags.String("fetch-mode", "", "force fetch mode: auto, static, dynamic (default: per profile)")

	_ = backfillCmd.MarkFlagRequired("source")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	profile, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	minDelay, _ := cmd.Flags().GetDuration("min-delay")
	maxDelay, _ := cmd.Flags().GetDuration("max-delay")
	limit, _ := cmd.Flags().GetInt("limit")

	fetch, err := buildFetcher(cmd, profile, timeout)
	if err != nil {
		return err
	}
	defer fetch.Close()

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.MissingLocation(ctx, profile.Name)
	if err != nil {
		return err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	logger.Info("backfill starting", "source", profile.Name, "rows", len(rows))

	identity := fetcher.NewIdentity(fetcher.IdentityConfig{
		MinDelay: minDelay,
		MaxDelay: maxDelay,
	})
	extractor := extract.New(profile)

	filled, failed := 0, 0
	for _, row := range rows {
		if err := identity.Wait(ctx); err != nil {
			break
		}
		content, err := fetch.Fetch(ctx, row.SourceURL, fetcher.FetchOptions{
			UserAgent: identity.Rotate(),
			Headers:   identity.Headers(),
			Timeout:   timeout,
		})
		if err != nil {
			logger.Warn("backfill fetch failed, skipping", "url", row.SourceURL, "error", err)
			failed++
			continue
		}
		l, err := extractor.DetailPage(content.HTML, row.SourceURL, "")
		if err != nil || l.Location == nil {
			logger.Debug("no location on page, skipping", "url", row.SourceURL)
			failed++
			continue
		}
		if err := db.UpdateLocation(ctx, row.ID, *l.Location); err != nil {
			logger.Warn("location update failed", "id", row.ID, "error", err)
			failed++
			continue
		}
		filled++
	}

	fmt.Printf("Backfilled %d of %d rows (%d skipped)\n", filled, len(rows), failed)
	return nil
}
