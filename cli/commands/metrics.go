package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
	"github.com/satishbabariya/prisma-engine-go/telemetry"
)

var (
	metricsFormat string
	metricsLabels map[string]string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print query engine metrics",
	Args:  cobra.NoArgs,
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsFormat, "format", "f", "json", "Output format: json or prometheus")
	metricsCmd.Flags().StringToStringVar(&metricsLabels, "label", nil, "Global label attached to every metric (key=value)")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	format := telemetry.Format(metricsFormat)
	if !format.Valid() {
		return fmt.Errorf("unknown format %q, expected json or prometheus", metricsFormat)
	}

	ctl := newController()
	defer ctl.Close(shutdownTimeout)
	if err := ctl.Connect(cmd.Context()); err != nil {
		return err
	}

	raw, err := ctl.Metrics(cmd.Context(), format, metricsLabels)
	if err != nil {
		return err
	}
	if format == telemetry.FormatPrometheus {
		fmt.Fprint(ui.Out, string(raw))
		return nil
	}

	m, err := telemetry.Parse(raw)
	if err != nil {
		return err
	}
	rows := [][]string{}
	for _, r := range m.Rows() {
		rows = append(rows, []string{r.Kind, r.Key, r.Value, r.Labels})
	}
	return ui.PrintTable([]string{"Kind", "Metric", "Value", "Labels"}, rows)
}
