package engine

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	// Version is the query engine commit the client is built against.
	Version = "ac9d7041ed77bcc8a8dbd2ab6616b39013829574"
	// DefaultMirror serves engine binaries.
	DefaultMirror = "https://binaries.prisma.sh"
)

// Platform returns the engine platform name for the running system.
// Linux builds assume a Debian based distribution with OpenSSL 3.
func Platform() string {
	return platformFor(runtime.GOOS, runtime.GOARCH)
}

func platformFor(goos, goarch string) string {
	switch goos {
	case "darwin":
		if goarch == "arm64" {
			return "darwin-arm64"
		}
		return "darwin"
	case "windows":
		return "windows"
	case "linux":
		if goarch == "arm64" {
			return "linux-arm64-openssl-3.0.x"
		}
		return "debian-openssl-3.0.x"
	}
	return goos
}

// BinaryName returns the local file name of the engine for platform.
func BinaryName(platform string) string {
	name := "prisma-query-engine-" + platform
	if strings.HasPrefix(platform, "windows") {
		name += ".exe"
	}
	return name
}

// DownloadURL returns the mirror location of the gzipped engine binary.
func DownloadURL(mirror, version, platform string) string {
	ext := ""
	if strings.HasPrefix(platform, "windows") {
		ext = ".exe"
	}
	return fmt.Sprintf("%s/all_commits/%s/%s/query-engine%s.gz",
		strings.TrimSuffix(mirror, "/"), version, platform, ext)
}
