package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/valuation-cli/internal/config"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/report"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

var batchFlags struct {
	input       string
	output      string
	save        bool
	concurrency int
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Value every business in a CSV or XLSX file",
	Long: "Reads one business per row (company, naics, revenue, cogs, opex, owner_salary, " +
		"personal_expenses, one_time_expenses, other_adjustments, plus one column per question ID " +
		"holding the option index), values each row and optionally saves and exports the results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, config.ModeLocal, batchFlags.save)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := report.ReadBatch(batchFlags.input, env.Questions)
		if err != nil {
			return eris.Wrap(err, "batch")
		}

		concurrency := batchFlags.concurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		var save saveFunc
		if batchFlags.save {
			save = env.Store.CreateAssessment
		}
		results, err := processBatch(ctx, rows, concurrency, env.Service.Value, save)
		if err != nil {
			return err
		}

		formatBatchResults(cmd.OutOrStdout(), rows, results)

		if batchFlags.output != "" {
			if err := report.WriteXLSX(batchFlags.output, compact(results)); err != nil {
				return err
			}
			zap.L().Info("batch results written", zap.String("path", batchFlags.output))
		}
		return nil
	},
}

// valueFunc is the callback signature for valuing one input.
type valueFunc func(ctx context.Context, source string, in valuation.Input) (*valuation.Result, error)

// saveFunc persists a valued row; nil skips persistence.
type saveFunc func(ctx context.Context, a *model.Assessment) error

// processBatch values rows concurrently. The returned slice is parallel to
// rows; entries for rows that failed are nil. Individual failures are logged
// and never abort the batch.
func processBatch(ctx context.Context, rows []report.BatchRow, concurrency int, value valueFunc, save saveFunc) ([]*model.Assessment, error) {
	results := make([]*model.Assessment, len(rows))
	if len(rows) == 0 {
		zap.L().Info("batch input has no rows")
		return results, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("rows", len(rows)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, row := range rows {
		g.Go(func() error {
			log := zap.L().With(zap.Int("line", row.Line), zap.String("company", row.Company))
			if row.Err != nil {
				failed.Add(1)
				log.Warn("skipping row", zap.Error(row.Err))
				return nil
			}

			res, err := value(gctx, string(model.SourceBatch), row.Input)
			if err != nil {
				failed.Add(1)
				log.Error("valuation failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			a := model.NewAssessment(row.Company, model.SourceBatch, row.Input, *res)
			if save != nil {
				if err := save(gctx, &a); err != nil {
					failed.Add(1)
					log.Error("save failed", zap.Error(err))
					return nil
				}
			}

			results[i] = &a
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}

func compact(results []*model.Assessment) []model.Assessment {
	out := make([]model.Assessment, 0, len(results))
	for _, a := range results {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// formatBatchResults writes one line per input row.
func formatBatchResults(out io.Writer, rows []report.BatchRow, results []*model.Assessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LINE\tCOMPANY\tNAICS\tADJ_EBITDA\tMULTIPLE\tLOW\tMEAN\tHIGH\tGRADE")
	_, _ = fmt.Fprintln(w, "----\t-------\t-----\t----------\t--------\t---\t----\t----\t-----")
	for i, row := range rows {
		a := results[i]
		if a == nil {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\tfailed\t\t\t\t\t\n", row.Line, truncate(row.Company, 30), row.Input.IndustryCode)
			continue
		}
		r := a.Result
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Line,
			truncate(a.Company, 30),
			a.IndustryCode(),
			report.FormatCompact(r.AdjustedEBITDA),
			report.FormatMultiple(r.Multiplier),
			report.FormatCompact(r.Valuation.Low),
			report.FormatCompact(r.Valuation.Mean),
			report.FormatCompact(r.Valuation.High),
			r.Grade,
		)
	}
	_ = w.Flush()
}

// truncate shortens s to n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func init() {
	batchCmd.Flags().StringVar(&batchFlags.input, "input", "", "CSV or XLSX file to value (required)")
	batchCmd.Flags().StringVar(&batchFlags.output, "output", "", "write results to this XLSX file")
	batchCmd.Flags().BoolVar(&batchFlags.save, "save", false, "save each assessment to the store")
	batchCmd.Flags().IntVar(&batchFlags.concurrency, "concurrency", 0, "parallel valuations (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

