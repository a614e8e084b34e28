package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/impactlens/esg-cli/internal/pipeline"
)

var (
	risksThreshold   float64
	risksMaxArticles int
	risksJSON        bool
)

var risksCmd = &cobra.Command{
	Use:   "risks <company>",
	Short: "Detect current ESG risks for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, st, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cfg.Analyzer.RiskThreshold = risksThreshold

		analysis, err := p.AnalyzeCompany(ctx, args[0], pipeline.AnalyzeOptions{
			MaxArticles: risksMaxArticles,
		})
		if err != nil {
			return err
		}

		if risksJSON {
			out, marshalErr := json.MarshalIndent(analysis.Risks, "", "  ")
			if marshalErr != nil {
				return marshalErr
			}
			fmt.Println(string(out))
			return nil
		}

		if len(analysis.Risks) == 0 {
			fmt.Fprintln(os.Stderr, "No risks detected.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEVERITY\tCATEGORY\tKEYWORD\tSENTIMENT\tTEXT")
		for _, r := range analysis.Risks {
			text := truncate(r.Text, 60)
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
				r.Severity, r.Category, r.Keyword, r.SentimentScore, text)
		}
		return w.Flush()
	},
}

func init() {
	risksCmd.Flags().Float64Var(&risksThreshold, "threshold", 0.3, "risk detection threshold")
	risksCmd.Flags().IntVar(&risksMaxArticles, "max-articles", 0, "max articles to collect (0 = config default)")
	risksCmd.Flags().BoolVar(&risksJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(risksCmd)
}
