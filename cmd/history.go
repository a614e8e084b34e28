package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/model"
	"github.com/impactlens/esg-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and import score history",
	Long:  "Score history rows feed the historical blending prior for future analyses.",
}

var historyListCmd = &cobra.Command{
	Use:   "list <company>",
	Short: "List stored score rows for a company",
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

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := st.ScoreHistory(ctx, args[0], limit)
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No score history found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RECORDED\tE\tS\tG\tOVERALL\tCONFIDENCE\tTEXTS")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n",
				r.RecordedAt.Format(time.RFC3339),
				r.Scores.EScore, r.Scores.SScore, r.Scores.GScore,
				r.Scores.OverallScore, r.Scores.Confidence, r.Scores.DataPoints)
		}
		return w.Flush()
	},
}

var historyImportCSV string

var historyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import score rows from CSV",
	Long:  "Imports rows of company,e_score,s_score,g_score,overall_score,confidence,data_points,recorded_at (RFC 3339). Replayed rows update in place; the import is idempotent per (company, recorded_at).",
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		records, err := readScoreCSV(historyImportCSV)
		if err != nil {
			return err
		}

		n, err := st.ImportScores(ctx, records)
		if err != nil {
			return eris.Wrap(err, "history import")
		}

		zap.L().Info("history import complete",
			zap.Int64("rows", n),
			zap.String("csv", historyImportCSV))
		return nil
	},
}

// readScoreCSV parses a score history CSV. A header row is detected by a
// non-numeric second column and skipped.
func readScoreCSV(path string) ([]store.ScoreRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = 8

	var records []store.ScoreRecord
	line := 0
	for {
		row, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, eris.Wrapf(readErr, "parse %s", path)
		}
		line++

		if line == 1 {
			if _, numErr := strconv.ParseFloat(row[1], 64); numErr != nil {
				continue // header
			}
		}

		record, parseErr := parseScoreRow(row)
		if parseErr != nil {
			return nil, eris.Wrapf(parseErr, "%s line %d", path, line)
		}
		records = append(records, record)
	}

	return records, nil
}

func parseScoreRow(row []string) (store.ScoreRecord, error) {
	var rec store.ScoreRecord
	rec.Company = row[0]
	if rec.Company == "" {
		return rec, eris.New("empty company")
	}

	floats := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return rec, eris.Wrapf(err, "column %d", i+2)
		}
		floats[i] = v
	}
	dataPoints, err := strconv.Atoi(row[6])
	if err != nil {
		return rec, eris.Wrap(err, "data_points")
	}
	recordedAt, err := time.Parse(time.RFC3339, row[7])
	if err != nil {
		return rec, eris.Wrap(err, "recorded_at")
	}

	rec.Scores = model.ScoreSet{
		EScore:       floats[0],
		SScore:       floats[1],
		GScore:       floats[2],
		OverallScore: floats[3],
		Confidence:   floats[4],
		DataPoints:   dataPoints,
	}
	rec.RecordedAt = recordedAt
	return rec, nil
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "max rows to display")

	historyImportCmd.Flags().StringVar(&historyImportCSV, "csv", "", "path to CSV file (required)")
	_ = historyImportCmd.MarkFlagRequired("csv")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyImportCmd)
	rootCmd.AddCommand(historyCmd)
}
