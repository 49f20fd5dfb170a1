package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
	"github.com/satishbabariya/prisma-engine-go/cli/internal/version"
	"github.com/satishbabariya/prisma-engine-go/internal/debug"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print client, Prisma and engine versions",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print a single line")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get(cfg.PrismaVersion, cfg.Engine.Version)
	if binary, err := cfg.Resolver().Resolve(cmd.Context()); err == nil {
		info.EngineBinary = binary
	} else {
		debug.Debug("engine binary not resolved", "error", err)
	}

	if versionShort {
		ui.PrintInfo("%s", info.String())
		return nil
	}
	ui.PrintKeyValues(info.Pairs())
	return nil
}
