package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carhunt/carhunt/internal/crawler"
	"github.com/carhunt/carhunt/internal/fetcher"
	"github.com/carhunt/carhunt/internal/logger"
	"github.com/carhunt/carhunt/internal/source"
	"github.com/carhunt/carhunt/internal/store"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Ingest listings from a classifieds site",
	Long: `Crawl paginated search results of one source, normalize each
listing and store it. The page budget is split between used and new
listings in proportion to the totals the site reports. Recrawling is
safe: already-stored listings are skipped by URL.

Examples:
  carhunt crawl --source otomoto --brand bmw --pages 25
  carhunt crawl --source olx --pages 10 --min-delay 5s --max-delay 9s
  carhunt crawl --source otomoto --profile my-otomoto.yaml --pages 5`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	flags := crawlCmd.Flags()
	flags.StringP("source", "s", "", "source to crawl: otomoto, olx (required)")
	flags.StringP("brand", "b", "", "brand URL segment (empty: all brands)")
	flags.IntP("pages", "n", 1, "total page budget")
	flags.Int("start-page", 1, "first page number (1-indexed)")
	flags.Duration("min-delay", 4*time.Second, "minimum politeness delay between requests")
	flags.Duration("max-delay", 7*time.Second, "maximum politeness delay between requests")
	flags.Duration("timeout", 30*time.Second, "per-request fetch timeout")
	flags.String("profile", "", "YAML source-profile override file")
	flags.String("fetch-mode", "", "force fetch mode: auto, static, dynamic (default: per profile)")

	_ = crawlCmd.MarkFlagRequired("source")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	profile, err := loadProfile(cmd)
	if err != nil {
		return err
	}

	brand, _ := cmd.Flags().GetString("brand")
	pages, _ := cmd.Flags().GetInt("pages")
	startPage, _ := cmd.Flags().GetInt("start-page")
	minDelay, _ := cmd.Flags().GetDuration("min-delay")
	maxDelay, _ := cmd.Flags().GetDuration("max-delay")
	timeout, _ := cmd.Flags().GetDuration("timeout")

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

	job, err := crawler.New(profile, fetch, db, crawler.Config{
		Brand:     brand,
		Pages:     pages,
		StartPage: startPage,
		MinDelay:  minDelay,
		MaxDelay:  maxDelay,
		Timeout:   timeout,
	})
	if err != nil {
		return err
	}

	stats, err := job.Run(ctx)
	if err != nil {
		logger.Warn("crawl interrupted", "error", err)
	}

	fmt.Printf("Pages fetched: %d (failed: %d)\n", stats.PagesFetched, stats.PagesFailed)
	fmt.Printf("Listings: %d found, %d inserted, %d duplicates, %d failed\n",
		stats.Found, stats.Inserted, stats.Duplicates, stats.Failed)
	if len(stats.Brands) > 0 {
		fmt.Printf("Brands observed: %v\n", stats.Brands)
	}
	return nil
}

// loadProfile resolves the source profile: a YAML override when given,
// otherwise the built-in for --source.
func loadProfile(cmd *cobra.Command) (*source.Profile, error) {
	if path, _ := cmd.Flags().GetString("profile"); path != "" {
		return source.Load(path)
	}
	name, _ := cmd.Flags().GetString("source")
	return source.ByName(name)
}

// buildFetcher picks the fetch strategy: the profile decides unless
// --fetch-mode overrides it.
func buildFetcher(cmd *cobra.Command, profile *source.Profile, timeout time.Duration) (fetcher.Fetcher, error) {
	cfg := fetcher.Config{Timeout: timeout}

	if mode, _ := cmd.Flags().GetString("fetch-mode"); mode != "" {
		return fetcher.ForMode(fetcher.Mode(mode), cfg)
	}
	if profile.Dynamic {
		return fetcher.NewDynamicFetcher(cfg)
	}
	return fetcher.NewStaticFetcher(cfg), nil
}
