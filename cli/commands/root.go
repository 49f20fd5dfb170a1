// Package commands implements the prisma-engine-go command line.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
	"github.com/satishbabariya/prisma-engine-go/config"
	"github.com/satishbabariya/prisma-engine-go/engine"
	"github.com/satishbabariya/prisma-engine-go/internal/debug"
)

const shutdownTimeout = 5 * time.Second

var (
	configFile string
	schemaPath string
	protocol   string
	debugFlag  bool

	// cfg is loaded before every command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "prisma-engine-go",
	Short: "Run and query the Prisma query engine from Go",
	Long: `prisma-engine-go manages the Prisma query engine binary and sends
queries to it using the same client the Go runtime uses.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default .prisma-go.yaml)")
	flags.StringVarP(&schemaPath, "schema", "s", "", "Path to the Prisma schema")
	flags.StringVar(&protocol, "protocol", "", "Engine protocol: graphql or json")
	flags.BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	loaded, err := config.Load(opts...)
	if err != nil {
		return err
	}
	if schemaPath != "" {
		loaded.SchemaPath = schemaPath
	}
	if protocol != "" {
		loaded.Engine.Protocol = engine.Protocol(protocol)
	}
	if debugFlag {
		loaded.Debug = true
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	debug.Init(loaded.Debug)
	cfg = loaded
	return nil
}

// Execute runs the command line. SIGINT and SIGTERM cancel the command
// context and stop every running engine.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer engine.CloseAll(shutdownTimeout)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

func newController() *engine.Controller {
	return engine.New(cfg.EngineOptions()...)
}
