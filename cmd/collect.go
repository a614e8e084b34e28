package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/impactlens/esg-cli/internal/collect"
)

var collectMaxArticles int

var collectCmd = &cobra.Command{
	Use:   "collect <company>",
	Short: "Show the texts that would feed an analysis",
	Long:  "Fetches news and ESG mentions for a company and prints the resulting analysis texts, for inspecting feed coverage before a full run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		collector := collect.New(cfg.Collector, st, collect.WithBreakerConfig(cfg.Resilience.Breaker()))
		result, err := collector.Collect(ctx, args[0], collectMaxArticles)
		if err != nil {
			return err
		}

		stats := result.Stats()
		fmt.Printf("articles: %d  esg mentions: %d  texts: %d  cached: %t\n",
			stats.ArticlesCollected, stats.ESGMentions, stats.TotalTextsAnalyzed, result.FromCache)
		fmt.Printf("sources: %v\n\n", stats.Sources)
		for i, text := range result.Texts {
			fmt.Printf("%3d. %s\n", i+1, text)
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().IntVar(&collectMaxArticles, "max-articles", 0, "max articles to collect (0 = config default)")
	rootCmd.AddCommand(collectCmd)
}
