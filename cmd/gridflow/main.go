// Command gridflow inspects result stores produced by research runs:
// listing stored researches, exporting result rows as CSV, and plotting
// metric curves.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/gridflow/monitor"
	"github.com/YuminosukeSato/gridflow/pkg/log"
	"github.com/YuminosukeSato/gridflow/research"
)

var (
	dbPath  string
	verbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gridflow",
		Short:         "Inspect grid experiment result stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.LevelDebug)
			}
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the result database")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = root.MarkPersistentFlagRequired("db")

	root.AddCommand(newInfoCmd(), newResultsCmd(), newPlotCmd())
	return root
}

func openStore() (*research.Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("result database %s: %w", dbPath, err)
	}
	return research.OpenStore(dbPath)
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List researches stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := store.Researches(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no researches stored")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RESEARCH\tEXPERIMENTS\tUPDATES\tROWS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n",
					info.Name, info.Experiments, info.Updates, info.Rows)
			}
			return tw.Flush()
		},
	}
}

func newResultsCmd() *cobra.Command {
	var (
		researchName string
		unit         string
		metric       string
		csvPath      string
	)
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Export result rows as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.LoadResults(cmd.Context(), researchName)
			if err != nil {
				return err
			}
			if unit != "" {
				results = results.Unit(unit)
			}
			if metric != "" {
				results = results.Metric(metric)
			}

			out := cmd.OutOrStdout()
			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return results.ToCSV(out)
		},
	}
	cmd.Flags().StringVar(&researchName, "research", "", "restrict to one research")
	cmd.Flags().StringVar(&unit, "unit", "", "restrict to one executable unit")
	cmd.Flags().StringVar(&metric, "metric", "", "restrict to one metric")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write CSV to a file instead of stdout")
	return cmd
}

func newPlotCmd() *cobra.Command {
	var (
		researchName string
		unit         string
		metric       string
		alias        string
		outPath      string
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot a metric curve for one configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.LoadResults(cmd.Context(), researchName)
			if err != nil {
				return err
			}
			if alias == "" {
				aliases := results.Unit(unit).Metric(metric).Aliases()
				if len(aliases) == 0 {
					return fmt.Errorf("no rows for unit %q metric %q", unit, metric)
				}
				alias = aliases[0]
			}

			iters, values := results.Series(unit, metric, alias)
			if len(iters) == 0 {
				return fmt.Errorf("no rows for unit %q metric %q config %q", unit, metric, alias)
			}
			xs := make([]float64, len(iters))
			for i, it := range iters {
				xs[i] = float64(it)
			}

			title := fmt.Sprintf("%s/%s (%s)", unit, metric, alias)
			if err := monitor.SaveSeriesPlot(outPath, title, "iteration", metric, xs, values); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d points)\n", outPath, len(xs))
			return nil
		},
	}
	cmd.Flags().StringVar(&researchName, "research", "", "restrict to one research")
	cmd.Flags().StringVar(&unit, "unit", "", "executable unit to plot")
	cmd.Flags().StringVar(&metric, "metric", "", "metric to plot")
	cmd.Flags().StringVar(&alias, "config", "", "configuration alias (default: first found)")
	cmd.Flags().StringVar(&outPath, "out", "metric.png", "output image path")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("metric")
	return cmd
}
