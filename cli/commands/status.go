package commands

import (
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Start the query engine and report whether it is ready",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctl := newController()
	defer ctl.Close(shutdownTimeout)

	start := time.Now()
	spinner, err := ui.Spinner("Starting query engine")
	if err != nil {
		return err
	}
	if err := ctl.Connect(cmd.Context()); err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("Query engine ready")

	status, err := ctl.Status(cmd.Context())
	if err != nil {
		return err
	}
	pairs := [][2]string{
		{"url", ctl.URL()},
		{"pid", strconv.Itoa(ctl.Pid())},
		{"protocol", string(cfg.Engine.Protocol)},
		{"startup", time.Since(start).Round(time.Millisecond).String()},
	}
	for _, k := range slices.Sorted(maps.Keys(status)) {
		pairs = append(pairs, [2]string{k, string(status[k])})
	}
	ui.PrintKeyValues(pairs)
	return nil
}
