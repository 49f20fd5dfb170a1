package version

import (
	"fmt"
	"runtime"

	"github.com/satishbabariya/prisma-engine-go/engine"
)

var (
	// Version is the version of the CLI
	Version = "0.1.0"
	// BuildDate is the build date
	BuildDate = "unknown"
	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// Info holds version information
type Info struct {
	Version       string
	PrismaVersion string
	EngineVersion string
	EngineBinary  string
	BuildDate     string
	GitCommit     string
	GoVersion     string
	Platform      string
}

// Get returns version information for the given Prisma and engine versions.
func Get(prismaVersion, engineVersion string) Info {
	return Info{
		Version:       Version,
		PrismaVersion: prismaVersion,
		EngineVersion: engineVersion,
		BuildDate:     BuildDate,
		GitCommit:     GitCommit,
		GoVersion:     runtime.Version(),
		Platform:      engine.Platform(),
	}
}

// String returns a formatted version string
func (i Info) String() string {
	return fmt.Sprintf("prisma-engine-go version %s (prisma %s, engine %s, %s %s)",
		i.Version, i.PrismaVersion, i.EngineVersion, i.Platform, i.GoVersion)
}

// Pairs returns the detailed version fields in display order.
func (i Info) Pairs() [][2]string {
	binary := i.EngineBinary
	if binary == "" {
		binary = "not found"
	}
	return [][2]string{
		{"prisma-engine-go", i.Version},
		{"prisma", i.PrismaVersion},
		{"query engine", i.EngineVersion},
		{"binary", binary},
		{"platform", i.Platform},
		{"go", i.GoVersion},
		{"build date", i.BuildDate},
		{"git commit", i.GitCommit},
	}
}
