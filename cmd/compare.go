package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/impactlens/esg-cli/internal/pipeline"
)

var (
	compareMaxArticles int
	compareFormat      string
	compareSave        bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <company> <company> [company...]",
	Short: "Compare ESG performance across companies",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, st, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		result, err := p.Compare(ctx, args, pipeline.AnalyzeOptions{
			MaxArticles: compareMaxArticles,
			Save:        compareSave,
		})
		if err != nil {
			return err
		}

		out, err := pipeline.RenderComparison(result, compareFormat)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	compareCmd.Flags().IntVar(&compareMaxArticles, "max-articles", 10, "max articles to collect per company")
	compareCmd.Flags().StringVar(&compareFormat, "format", "text", "output format (json, text)")
	compareCmd.Flags().BoolVar(&compareSave, "save", false, "persist each company's analysis")
	rootCmd.AddCommand(compareCmd)
}
