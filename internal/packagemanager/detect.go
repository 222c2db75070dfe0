// Package packagemanager detects which Node package manager invoked the
// CLI or is in use in the target project.
package packagemanager

import (
	"os"
	"path/filepath"
	"strings"
)

// Info identifies a package manager and, when known, its version.
type Info struct {
	Name    string
	Version string
}

// DlxCommand returns the runner argv for executing a package binary
// without installing it (npx / yarn dlx / pnpm dlx / bunx).
func (i Info) DlxCommand(pkg string, args ...string) []string {
	var argv []string
	switch i.Name {
	case "yarn":
		argv = []string{"yarn", "dlx", pkg}
	case "pnpm":
		argv = []string{"pnpm", "dlx", pkg}
	case "bun":
		argv = []string{"bunx", pkg}
	default:
		argv = []string{"npx", pkg}
	}
	return append(argv, args...)
}

// InstallCommand returns the argv to install project dependencies.
func (i Info) InstallCommand() []string {
	if i.Name == "npm" {
		return []string{"npm", "install"}
	}
	return []string{i.Name, "install"}
}

// lockfiles is probed in order: with more than one lockfile present,
// the first match wins, so detection is deterministic.
var lockfiles = []struct {
	file string
	name string
}{
	{"package-lock.json", "npm"},
	{"yarn.lock", "yarn"},
	{"pnpm-lock.yaml", "pnpm"},
	{"bun.lockb", "bun"},
	{"bun.lock", "bun"},
}

// Detect resolves the active package manager. The npm_config_user_agent
// environment variable (set by every manager when it spawns a process)
// wins; otherwise lockfiles in dir are probed; the fallback is npm.
func Detect(dir string) Info {
	if info, ok := fromUserAgent(os.Getenv("npm_config_user_agent")); ok {
		return info
	}
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return Info{Name: lf.name}
		}
	}
	return Info{Name: "npm"}
}

// fromUserAgent parses strings like "pnpm/9.1.0 npm/? node/v20.11.0".
// The first token identifies the manager that spawned us.
func fromUserAgent(userAgent string) (Info, bool) {
	if userAgent == "" {
		return Info{}, false
	}
	first, _, _ := strings.Cut(userAgent, " ")
	name, version, ok := strings.Cut(first, "/")
	if !ok {
		return Info{}, false
	}
	switch name {
	case "npm", "yarn", "pnpm", "bun":
		if version == "?" {
			version = ""
		}
		return Info{Name: name, Version: version}, true
	}
	return Info{}, false
}
