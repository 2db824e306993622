package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/config"
	"github.com/sells-group/valuation-cli/internal/industry"
	"github.com/sells-group/valuation-cli/internal/report"
)

var industryCmd = &cobra.Command{
	Use:   "industry",
	Short: "Inspect and manage industry multiplier ranges",
}

// -- industry lookup --

var industryLookupCmd = &cobra.Command{
	Use:   "lookup <naics-code>",
	Short: "Resolve the multiplier range for a NAICS code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeLocal, false)
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := env.Service.Lookup(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "industry lookup")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}
		formatMatch(cmd.OutOrStdout(), args[0], m)
		return nil
	},
}

// -- industry list --

var industryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reference multiplier table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeLocal, false)
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := env.ListIndustries(ctx)
		if err != nil {
			return eris.Wrap(err, "industry list")
		}
		formatEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

// -- industry load --

var industryLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a multiplier table into Postgres",
	Long:  "Upserts every row of the table (the built-in one unless --file is given) into industry_multipliers and clears the lookup cache.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Store.Driver != "postgres" {
			return eris.New("industry load requires store.driver postgres")
		}
		// Loading works regardless of which source lookups use.
		cfg.Industry.Source = "postgres"

		env, err := initEnv(ctx, config.ModePostgres, true)
		if err != nil {
			return err
		}
		defer env.Close()

		path, _ := cmd.Flags().GetString("file")
		table := env.Table
		if path != "" {
			if table, err = industry.LoadTable(path); err != nil {
				return err
			}
		}

		n, err := env.Postgres.Load(ctx, table.List())
		if err != nil {
			return err
		}

		if env.Cache != nil {
			cleared, err := env.Cache.Invalidate(ctx)
			if err != nil {
				zap.L().Warn("industry cache invalidation failed", zap.Error(err))
			} else {
				zap.L().Info("industry cache cleared", zap.Int("keys", cleared))
			}
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d of %d industry rows.\n", n, table.Len())
		return nil
	},
}

// -- industry clear-cache --

var industryClearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove cached multiplier lookups from Redis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, config.ModeLocal, false)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Cache == nil {
			return eris.New("industry cache is not configured (set redis.addr)")
		}
		n, err := env.Cache.Invalidate(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached lookups.\n", n)
		return nil
	},
}

func formatMatch(out io.Writer, code string, m industry.Match) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Code:\t%s\n", code)
	if m.Code != "" {
		_, _ = fmt.Fprintf(w, "Matched:\t%s %s\n", m.Code, m.Title)
	}
	_, _ = fmt.Fprintf(w, "Resolution:\t%s\n", m.Resolution)
	_, _ = fmt.Fprintf(w, "Low:\t%s\n", report.FormatMultiple(m.Low))
	_, _ = fmt.Fprintf(w, "Average:\t%s\n", report.FormatMultiple(m.Avg))
	_, _ = fmt.Fprintf(w, "High:\t%s\n", report.FormatMultiple(m.High))
	_ = w.Flush()
}

func formatEntries(out io.Writer, entries []industry.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tLOW\tAVG\tHIGH\tTITLE")
	_, _ = fmt.Fprintln(w, "----\t---\t---\t----\t-----")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Code,
			report.FormatMultiple(e.Low),
			report.FormatMultiple(e.Avg),
			report.FormatMultiple(e.High),
			truncate(e.Title, 60),
		)
	}
	_ = w.Flush()
}

func init() {
	industryLookupCmd.Flags().Bool("json", false, "print JSON")
	industryLoadCmd.Flags().String("file", "", "YAML multiplier table (default: built-in table or industry.table_path)")

	industryCmd.AddCommand(industryLookupCmd)
	industryCmd.AddCommand(industryListCmd)
	industryCmd.AddCommand(industryLoadCmd)
	industryCmd.AddCommand(industryClearCacheCmd)
	rootCmd.AddCommand(industryCmd)
}

