package cmd

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/models"
)

var dedupeFlags struct {
	input     string
	threshold float64
	timeout   time.Duration
	workers   int
	output    string
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Run a bulk deduplication over a contacts file",
	Long: `Run a bulk deduplication over a YAML or JSON list of contacts using the
default rule set, then print the resulting match run.`,
	Example: `  clover dedupe --input contacts.yaml
  clover dedupe --input contacts.json --threshold 85 --output json`,
	RunE: runDedupe,
}

func init() {
	flags := dedupeCmd.Flags()
	flags.StringVarP(&dedupeFlags.input, "input", "i", "", "contacts file (YAML or JSON list)")
	flags.Float64Var(&dedupeFlags.threshold, "threshold", 0, "minimum score to report (default from DEDUPE_DEFAULT_THRESHOLD)")
	flags.DurationVar(&dedupeFlags.timeout, "timeout", 0, "stop scoring after this long and report a truncated run")
	flags.IntVar(&dedupeFlags.workers, "workers", 0, "pair-scoring workers (default from DEDUPE_BULK_WORKER_COUNT)")
	flags.StringVarP(&dedupeFlags.output, "output", "o", outputYAML, "output format: json or yaml")
	_ = dedupeCmd.MarkFlagRequired("input")
}

func runDedupe(cmd *cobra.Command, _ []string) error {
	contacts, err := loadContacts(dedupeFlags.input)
	if err != nil {
		return err
	}

	dedupeConfig := cfg.DedupeConfig()
	if dedupeFlags.workers > 0 {
		dedupeConfig.Finder.Workers = dedupeFlags.workers
	}
	threshold := dedupeConfig.DefaultThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = dedupeFlags.threshold
	}

	service := dedupe.NewService(logger, dedupeConfig, nil)
	run := service.RunBulkDeduplication(cmd.Context(), contacts, threshold, dedupeFlags.timeout)

	return writeOutput(cmd.OutOrStdout(), dedupeFlags.output, run)
}

func loadContacts(path string) ([]models.Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read contacts file %s", path)
	}

	// JSON is valid YAML, so one decoder handles both
	var contacts []models.Contact
	if err := yaml.Unmarshal(data, &contacts); err != nil {
		return nil, errors.Wrapf(err, "failed to parse contacts file %s", path)
	}
	return contacts, nil
}
