package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-engine-go/cli/internal/ui"
	"github.com/satishbabariya/prisma-engine-go/config"
	"github.com/satishbabariya/prisma-engine-go/engine"
	"github.com/satishbabariya/prisma-engine-go/transport"
)

var (
	fetchForce  bool
	fetchMirror string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the query engine binary into the cache",
	Long: `Download the query engine for the configured engine version and the
current platform. The mirror may be an http(s) URL or s3://bucket/prefix.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVarP(&fetchForce, "force", "f", false, "Overwrite an existing binary without asking")
	fetchCmd.Flags().StringVar(&fetchMirror, "mirror", "", "Binary mirror (default from engine.mirror)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	resolver := cfg.Resolver()
	dest := resolver.CachePath()

	if exists, _ := afero.Exists(config.AppFs, dest); exists && !fetchForce {
		overwrite, err := ui.Confirm(fmt.Sprintf("%s already exists. Download it again?", dest), false)
		if errors.Is(err, terminal.InterruptErr) {
			return nil
		}
		if err != nil || !overwrite {
			ui.PrintInfo("Keeping %s", dest)
			return nil
		}
	}

	mirror := cfg.Engine.Mirror
	if fetchMirror != "" {
		mirror = fetchMirror
	}
	src := engine.DownloadURL(mirror, resolver.Version, resolver.Platform)

	session := transport.New(cfg.TransportOptions()...)
	defer session.Close()

	spinner, err := ui.Spinner("Downloading " + src)
	if err != nil {
		return err
	}
	if err := session.Download(cmd.Context(), src, dest); err != nil {
		spinner.Fail(err.Error())
		return err
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success("Downloaded query engine to " + dest)
	return nil
}
