package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"confusionflow/adapters/excel"
	"confusionflow/adapters/report"
	"confusionflow/app"
	"confusionflow/domain/core"
	"confusionflow/domain/run"
	"confusionflow/internal/config"
	"confusionflow/internal/container"
	"confusionflow/internal/errors"
	"confusionflow/internal/viewstate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "confusionflow-cli",
		Short: "ConfusionFlow CLI for inspecting, exporting and rendering confusion matrices",
	}

	rootCmd.AddCommand(
		newDatasetsCmd(),
		newMeasuresCmd(),
		newExportCmd(),
		newReportCmd(),
		newRenderCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadContainer() (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(cfg)
}

func runIDs(args []string) []core.RunID {
	return lo.Map(args, func(s string, _ int) core.RunID { return core.RunID(s) })
}

func newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the fold logs of the configured data source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			datasets, err := c.Provider.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDATASET\tCLASSES\tEPOCHS")
			for _, d := range datasets {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", d.Name, d.DatasetID, len(d.Labels), len(d.EpochInfos))
			}
			return w.Flush()
		},
	}
}

func newMeasuresCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "measures [foldlog-id]",
		Short: "Print per class confusion measures of the final epoch",
		Long: `Compute TP, FP, FN, precision, recall and F1 for every logged epoch of a
fold log and print the final epoch.

Example: confusionflow-cli measures mnist_run_mnist_test --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			m, err := c.Measures.Compute(cmd.Context(), core.RunID(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}

			final, ok := m.Final()
			if !ok {
				return errors.NotFound(fmt.Sprintf("epochs of %s", args[0]))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s epoch %d: overall accuracy %.4f\n\n", m.Run, final.Epoch, final.OverallAccuracy)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CLASS\tSIZE\tTP\tFP\tFN\tPRECISION\tRECALL\tF1")
			for _, cm := range m.FinalClasses() {
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%.4f\t%.4f\t%.4f\n",
					cm.Class, cm.ClassSize, cm.TP, cm.FP, cm.FN, cm.Precision, cm.Recall, cm.F1)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print every epoch as JSON")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [xlsx-path] [foldlog-ids...]",
		Short: "Export confusion measures of fold logs to an Excel workbook",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			runs, err := c.Measures.ComputeMany(cmd.Context(), runIDs(args[1:]))
			if err != nil {
				return err
			}
			if err := excel.Write(args[0], runs); err != nil {
				return err
			}
			log.Printf("[Export] Wrote %s", args[0])
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "report [html-path] [foldlog-ids...]",
		Short: "Write an HTML summary of the final epoch of each fold log",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Shutdown()

			runs, err := c.Measures.ComputeMany(cmd.Context(), runIDs(args[1:]))
			if err != nil {
				return err
			}
			if err := report.Write(args[0], runs, report.Options{Title: title, Generated: time.Now()}); err != nil {
				return err
			}
			log.Printf("[Export] Wrote %s", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "ConfusionFlow Report", "Report title")
	return cmd
}

type renderOptions struct {
	min, max, single int
	renderer         string
	classes          string
	transposed       bool
	absolute         bool
	selectCell       string
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [svg-path] [foldlog-ids...]",
		Short: "Render the confusion matrix view of fold logs to SVG",
		Long: `Select up to MAX_RUN_COUNT fold logs, apply the timeline and view options and
write the rendered matrix, FP/FN panels, accuracy cell, measures table and
detail chart to an SVG file.

Example: confusionflow-cli render out.svg run_a run_b --min 0 --max 9 --single 9 --select cellFP-0--1`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], runIDs(args[1:]), opts)
		},
	}

	cmd.Flags().IntVar(&opts.min, "min", 0, "First epoch of the timeline range, -1 for none")
	cmd.Flags().IntVar(&opts.max, "max", -1, "Last epoch of the timeline range, -1 for the last logged epoch")
	cmd.Flags().IntVar(&opts.single, "single", -1, "Single epoch, -1 for none")
	cmd.Flags().StringVar(&opts.renderer, "renderer", "", "Matrix cell renderer: heatmap or line")
	cmd.Flags().StringVar(&opts.classes, "classes", "", "Comma separated class indices to show")
	cmd.Flags().BoolVar(&opts.transposed, "transposed", false, "Transpose the heatmap")
	cmd.Flags().BoolVar(&opts.absolute, "absolute", false, "Show absolute counts in the detail chart")
	cmd.Flags().StringVar(&opts.selectCell, "select", "", "Id of the cell shown in the detail chart")
	return cmd
}

func runRender(ctx context.Context, path string, names []core.RunID, opts renderOptions) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Shutdown()

	datasets, err := c.Provider.ListDatasets(ctx)
	if err != nil {
		return err
	}
	last := 0
	for _, name := range names {
		ds, ok := lo.Find(datasets, func(d run.Dataset) bool { return d.Name == name })
		if !ok {
			return errors.NotFound(fmt.Sprintf("run %s", name))
		}
		if err := c.Selection.Add(ds); err != nil {
			return err
		}
		last = max(last, len(ds.EpochInfos)-1)
	}

	if opts.renderer != "" {
		r, err := viewstate.ParseCellRenderer(opts.renderer)
		if err != nil {
			return err
		}
		c.State.SetCellRenderer(r)
	}
	c.State.SetTransposed(opts.transposed)
	c.State.SetAbsolute(opts.absolute)

	t := app.Timeline{Min: opts.min, Max: opts.max, Single: opts.single}
	if t.Min >= 0 && t.Max < 0 {
		t.Max = last
	}
	if err := c.Selection.SetTimeline(t); err != nil {
		return err
	}

	if opts.classes != "" {
		indices, err := parseIndices(opts.classes)
		if err != nil {
			return err
		}
		c.State.SetClassIndices(indices)
	}
	if opts.selectCell != "" {
		if err := c.MatrixView.Select(opts.selectCell); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := c.Canvas.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Printf("[Render] Wrote %s", path)
	return nil
}

func parseIndices(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, len(parts))
	for i, s := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid class index %q", s))
		}
		out[i] = v
	}
	return out, nil
}
