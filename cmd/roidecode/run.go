package main

import (
	"fmt"

	"roidecode/internal/config"
	"roidecode/internal/container"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		samplesFile string
		maskDir     string
		outputDir   string
		seed        int64
		workers     int
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run leave-one-subject-out valence decoding for every configured ROI",
		Long: `Run leave-one-subject-out valence decoding for every configured ROI.

Settings come from the environment (and .env): SAMPLES_FILE, MASK_DIR,
OUTPUT_DIR, COHORT_GROUP, POSITIVE_TARGET, NEGATIVE_TARGET, ROI_MASKS,
SEED, SVM_C, SVM_MAX_ITER, SVM_TOL, ALPHA, WORKERS, DATABASE_URL.
Flags override the environment.

Example: roidecode run --samples data/samples.csv --masks data/masks --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("samples") {
				cfg.Data.SamplesFile = samplesFile
			}
			if flags.Changed("masks") {
				cfg.Data.MaskDir = maskDir
			}
			if flags.Changed("output") {
				cfg.Data.OutputDir = outputDir
			}
			if flags.Changed("seed") {
				cfg.Classifier.Seed = seed
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown()
			if save {
				if err := c.Connect(cmd.Context()); err != nil {
					return err
				}
			}

			outcome, err := c.DecodingService().Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (fingerprint %s)\n", outcome.Manifest.RunID, outcome.Manifest.Fingerprint.Short())
			fmt.Fprintf(out, "%-24s %8s %8s %8s %10s %s\n", "ROI", "SVM", "Dummy", "t", "p", "")
			for _, r := range outcome.Table.Rows {
				mark := ""
				if r.Significant {
					mark = "*"
				}
				fmt.Fprintf(out, "%-24s %8.3f %8.3f %8.3f %10.4g %s\n", r.ROIName, r.SVMAUC, r.DummyAUC, r.TStatistic, r.PValue, mark)
			}
			for _, s := range outcome.Table.Skipped {
				fmt.Fprintf(out, "%-24s skipped at %s: %s\n", s.ROIName, s.Stage, s.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&samplesFile, "samples", "", "Sample table (CSV or XLSX)")
	cmd.Flags().StringVar(&maskDir, "masks", "", "Directory containing ROI mask images")
	cmd.Flags().StringVar(&outputDir, "output", "", "Directory for results, report and manifest")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&workers, "workers", 1, "Number of ROIs evaluated in parallel")
	cmd.Flags().BoolVar(&save, "save", false, "Store the run in the results database")

	return cmd
}
