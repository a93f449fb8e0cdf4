// CoinDeck — crypto market dashboard gateway.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/coindeck/api"
	"github.com/seenimoa/coindeck/internal/cache"
	"github.com/seenimoa/coindeck/internal/config"
	"github.com/seenimoa/coindeck/internal/insight"
	"github.com/seenimoa/coindeck/internal/logging"
	"github.com/seenimoa/coindeck/internal/market"
	"github.com/seenimoa/coindeck/pkg/models"
	"github.com/seenimoa/coindeck/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coindeck",
	Short: "CoinDeck — crypto market dashboard gateway",
	Long: `CoinDeck is an HTTP gateway for building crypto dashboards.
It proxies live market data, relays natural-language questions to an
insight backend, and keeps per-session dashboard selections in memory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(marketsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statusCmd)
}

// newCache builds the cache backend named in the config.
func newCache() (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}), nil
	case "", "memory":
		return cache.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CoinDeck %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer log.Sync() //nolint:errcheck

		srv, err := api.NewServer(cfg, log)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting CoinDeck API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Markets Command ---

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Fetch the current market list and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ca, err := newCache()
		if err != nil {
			return err
		}
		defer ca.Close()

		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		mkt := market.New(cfg.Market, ca, log)
		entries, err := mkt.Entries(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch markets: %w", err)
		}
		if limit > 0 && limit < len(entries) {
			entries = entries[:limit]
		}

		fmt.Printf("%-14s %-8s %14s %12s %10s\n",
			"ID", "SYMBOL", "PRICE", "MCAP", "24H")
		for _, e := range entries {
			fmt.Printf("%-14s %-8s %14.4f %12s %+9.2f%%\n",
				e.ID, e.Symbol, e.CurrentPrice,
				utils.FormatLargeNumber(e.MarketCap),
				e.PriceChangePercentage24h)
		}
		return nil
	},
}

func init() {
	marketsCmd.Flags().Int("limit", 20, "maximum number of coins to print")
}

// --- Ask Command ---

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Relay a question to the insight backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ca, err := newCache()
		if err != nil {
			return err
		}
		defer ca.Close()

		question := args[0]
		body, err := json.Marshal(models.Question{Question: question})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		ins := insight.New(cfg.Insight, ca, log)
		resp, status, err := ins.Ask(ctx, question, body)
		if err != nil {
			return fmt.Errorf("failed to ask: %w", err)
		}
		if status != 200 {
			return fmt.Errorf("insight backend returned status %d: %s", status, resp)
		}

		var ans models.Answer
		if err := json.Unmarshal(resp, &ans); err != nil {
			// Not the expected shape; print the raw payload instead.
			fmt.Println(string(resp))
			return nil
		}
		fmt.Printf("💬 %s\n", ans.Text)
		if ans.Sentiment != "" {
			fmt.Printf("   sentiment:  %s\n", ans.Sentiment)
		}
		if ans.Confidence > 0 {
			fmt.Printf("   confidence: %.2f\n", ans.Confidence)
		}
		for k, v := range ans.Metrics {
			fmt.Printf("   %-11s %s\n", k+":", v)
		}
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ca, err := newCache()
		if err != nil {
			return err
		}
		defer ca.Close()

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  CoinDeck — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()
		fmt.Println("  Configuration:")
		fmt.Printf("    Market:      %s (%s, top %d)\n",
			cfg.Market.BaseURL, cfg.Market.Currency, cfg.Market.PerPage)
		fmt.Printf("    Insight:     %s\n", cfg.Insight.BaseURL)
		fmt.Printf("    Cache:       %s\n", cacheLabel())
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		mkt := market.New(cfg.Market, ca, log)
		ins := insight.New(cfg.Insight, ca, log)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		var marketErr, insightErr, cacheErr error
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { marketErr = mkt.Ping(gctx); return nil })
		g.Go(func() error { insightErr = ins.Ping(gctx); return nil })
		g.Go(func() error { cacheErr = ca.Ping(gctx); return nil })
		_ = g.Wait()

		fmt.Println("  Dependencies:")
		fmt.Printf("    %-10s %s\n", "market:", depStatus(marketErr))
		fmt.Printf("    %-10s %s\n", "insight:", depStatus(insightErr))
		fmt.Printf("    %-10s %s\n", "cache:", depStatus(cacheErr))
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func cacheLabel() string {
	if cfg.Cache.Backend == "redis" {
		return fmt.Sprintf("redis (%s)", cfg.Cache.RedisAddr)
	}
	return "memory"
}

func depStatus(err error) string {
	if err != nil {
		return fmt.Sprintf("❌ down (%v)", err)
	}
	return "✅ up"
}
