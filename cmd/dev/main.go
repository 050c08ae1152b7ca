package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"confusionflow/adapters/logdir"
	"confusionflow/app"
	"confusionflow/domain/core"
	"confusionflow/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "confusionflow-dev",
		Short: "ConfusionFlow development tools",
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newSmokeTestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	cfg := testkit.DefaultLogConfig()
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic log directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Generating seed log in %s...\n", dir)
			if err := testkit.NewLogGenerator(cfg).WriteLogDir(dir); err != nil {
				return fmt.Errorf("failed to generate seed log: %w", err)
			}
			fmt.Println("Seed log generated successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./logs", "target log directory")
	cmd.Flags().StringVar(&cfg.Dataset, "dataset", cfg.Dataset, "dataset name")
	cmd.Flags().StringSliceVar(&cfg.Classes, "classes", cfg.Classes, "class labels")
	cmd.Flags().IntVar(&cfg.Runs, "runs", cfg.Runs, "number of runs")
	cmd.Flags().IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "epochs per run")
	cmd.Flags().IntVar(&cfg.SamplesPerClass, "samples", cfg.SamplesPerClass, "samples per class")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	return cmd
}

func newSmokeTestCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Read a log directory back and compute its measures",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Running smoke tests...")
			provider := logdir.NewProvider(dir)
			datasets, err := provider.ListDatasets(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list datasets: %w", err)
			}
			if len(datasets) == 0 {
				return fmt.Errorf("no datasets found in %s", dir)
			}

			names := make([]core.RunID, 0, len(datasets))
			for _, ds := range datasets {
				names = append(names, ds.Name)
			}
			runs, err := app.NewMeasuresService(provider).ComputeMany(cmd.Context(), names)
			if err != nil {
				return fmt.Errorf("failed to compute measures: %w", err)
			}
			for _, r := range runs {
				final, ok := r.Final()
				if !ok {
					fmt.Printf("✗ %s: no epochs\n", r.Run)
					continue
				}
				fmt.Printf("✓ %s: %d epochs, final accuracy %.3f\n", r.Run, len(r.Epochs), final.OverallAccuracy)
			}
			fmt.Println("Smoke tests completed")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./logs", "log directory")
	return cmd
}
