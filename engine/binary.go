package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
)

// BinaryEnv overrides engine binary resolution.
const BinaryEnv = "PRISMA_QUERY_ENGINE_BINARY"

// BinaryResolver locates the query engine binary and checks its version.
type BinaryResolver struct {
	Fs       afero.Fs
	Platform string
	// Version is the expected engine version.
	Version string
	// CacheDir holds one directory per engine version.
	CacheDir string
	// Dir is searched before the cache, defaults to the working directory.
	Dir string
	// Binary is an explicit path, equivalent to PRISMA_QUERY_ENGINE_BINARY.
	Binary string

	// Getenv and RunVersion are replaced in tests.
	Getenv     func(string) string
	RunVersion func(ctx context.Context, path string) (string, error)
}

// DefaultCacheDir returns ~/.cache/prisma-go/binaries.
func DefaultCacheDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(os.TempDir(), "prisma-go", "binaries")
	}
	return filepath.Join(home, ".cache", "prisma-go", "binaries")
}

// NewBinaryResolver returns a resolver for the running platform backed by
// the OS filesystem.
func NewBinaryResolver() *BinaryResolver {
	return &BinaryResolver{
		Fs:       afero.NewOsFs(),
		Platform: Platform(),
		Version:  Version,
		CacheDir: DefaultCacheDir(),
	}
}

// CachePath is where the engine for the configured version lives in the cache.
func (r *BinaryResolver) CachePath() string {
	dir, err := homedir.Expand(r.CacheDir)
	if err != nil {
		dir = r.CacheDir
	}
	return filepath.Join(dir, r.Version, BinaryName(r.Platform))
}

// Resolve returns the absolute path of the engine binary.
func (r *BinaryResolver) Resolve(ctx context.Context) (string, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	fs := r.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	explicit := r.Binary
	if explicit == "" {
		explicit = getenv(BinaryEnv)
	}
	if explicit != "" {
		debug.Debug("engine binary provided", "path", explicit)
		if !exists(fs, explicit) {
			return "", prismaerrors.BinaryNotFound(
				"%s was provided, but no query engine was found at %s", BinaryEnv, explicit)
		}
		return filepath.Abs(explicit)
	}

	dir := r.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	local := filepath.Join(dir, BinaryName(r.Platform))
	global := r.CachePath()
	debug.Debug("expecting query engine", "local", local, "global", global)

	var file string
	switch {
	case exists(fs, local):
		file = local
	case exists(fs, global):
		file = global
	default:
		return "", prismaerrors.BinaryNotFound(
			"Expected %s or %s but neither were found.\nTry running prisma-engine-go fetch", local, global)
	}

	if err := r.checkVersion(ctx, file); err != nil {
		return "", err
	}
	return filepath.Abs(file)
}

func (r *BinaryResolver) checkVersion(ctx context.Context, file string) error {
	run := r.RunVersion
	if run == nil {
		run = runVersion
	}
	start := time.Now()
	out, err := run(ctx, file)
	if err != nil {
		return fmt.Errorf("failed to check query engine version: %w", err)
	}
	got := ParseVersion(out)
	debug.Debug("query engine version", "version", got, "took", time.Since(start))
	if got != r.Version {
		return prismaerrors.VersionMismatch(r.Version, got)
	}
	return nil
}

// ParseVersion extracts the version from `query-engine --version` output.
func ParseVersion(out string) string {
	return strings.TrimSpace(strings.ReplaceAll(out, "query-engine", ""))
}

func runVersion(ctx context.Context, path string) (string, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func exists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
