package commands

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
	"github.com/satishbabariya/prisma-engine-go/cli/internal/watch"
	"github.com/satishbabariya/prisma-engine-go/engine"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the query engine and restart it when the schema changes",
	Long: `Run the query engine in the foreground. Every change to the schema
file reloads configuration and .env files and restarts the engine.
Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runDev,
}

func init() {
	rootCmd.AddCommand(devCmd)
}

// devServer owns the running engine of the dev command.
type devServer struct {
	mu  sync.Mutex
	ctl *engine.Controller
}

func (d *devServer) start(cmd *cobra.Command) error {
	ctl := newController()
	if err := ctl.Connect(cmd.Context()); err != nil {
		return err
	}
	d.ctl = ctl
	ui.PrintSuccess("Query engine listening on %s (pid %d)", ctl.URL(), ctl.Pid())
	return nil
}

func (d *devServer) restart(cmd *cobra.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.PrintInfo("Schema changed, restarting query engine")
	if d.ctl != nil {
		if err := d.ctl.Close(shutdownTimeout); err != nil {
			ui.PrintWarning("failed to stop query engine: %v", err)
		}
		d.ctl = nil
	}
	if err := loadConfig(cmd, nil); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	if err := d.start(cmd); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

func (d *devServer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctl != nil {
		_ = d.ctl.Close(shutdownTimeout)
	}
}

func runDev(cmd *cobra.Command, args []string) error {
	ui.PrintHeader("prisma-engine-go dev", cfg.SchemaPath)

	d := &devServer{}
	if err := d.start(cmd); err != nil {
		return err
	}
	defer d.stop()

	w, err := watch.NewWatcher(cfg.SchemaPath, watch.DefaultDebounce, func() error {
		return d.restart(cmd)
	})
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	<-cmd.Context().Done()
	ui.PrintInfo("Stopping query engine")
	return nil
}
