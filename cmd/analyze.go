package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/impactlens/esg-cli/internal/pipeline"
)

var (
	analyzeMaxArticles int
	analyzeFormat      string
	analyzeSave        bool
	analyzeNoEnrich    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <company>",
	Short: "Run a full ESG analysis for one company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, st, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		analysis, err := p.AnalyzeCompany(ctx, args[0], pipeline.AnalyzeOptions{
			MaxArticles: analyzeMaxArticles,
			Save:        analyzeSave,
			Enrich:      !analyzeNoEnrich,
		})
		if err != nil {
			return err
		}

		out, err := pipeline.RenderAnalysis(analysis, analyzeFormat)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeMaxArticles, "max-articles", 0, "max articles to collect (0 = config default)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "report format (json, text, summary)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", true, "persist the analysis, score history, risks and alerts")
	analyzeCmd.Flags().BoolVar(&analyzeNoEnrich, "no-enrich", false, "skip the LLM narrative even when an API key is configured")
	rootCmd.AddCommand(analyzeCmd)
}
