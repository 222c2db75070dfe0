package packagemanager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectFromUserAgent(t *testing.T) {
	tests := []struct {
		name            string
		userAgent       string
		expectedName    string
		expectedVersion string
	}{
		{
			name:            "pnpm",
			userAgent:       "pnpm/9.1.0 npm/? node/v20.11.0 linux x64",
			expectedName:    "pnpm",
			expectedVersion: "9.1.0",
		},
		{
			name:            "npm",
			userAgent:       "npm/10.2.4 node/v20.11.0 linux x64",
			expectedName:    "npm",
			expectedVersion: "10.2.4",
		},
		{
			name:            "yarn",
			userAgent:       "yarn/4.1.0 npm/? node/v20.11.0",
			expectedName:    "yarn",
			expectedVersion: "4.1.0",
		},
		{
			name:            "bun",
			userAgent:       "bun/1.0.25 npm/? node/v20.8.0",
			expectedName:    "bun",
			expectedVersion: "1.0.25",
		},
		{
			name:            "unknown agent falls back to npm",
			userAgent:       "deno/1.40.0",
			expectedName:    "npm",
			expectedVersion: "",
		},
		{
			name:            "empty falls back to npm",
			userAgent:       "",
			expectedName:    "npm",
			expectedVersion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("npm_config_user_agent", tt.userAgent)

			info := Detect(t.TempDir())
			if info.Name != tt.expectedName {
				t.Errorf("Expected %s, got %s", tt.expectedName, info.Name)
			}
			if info.Version != tt.expectedVersion {
				t.Errorf("Expected version %q, got %q", tt.expectedVersion, info.Version)
			}
		})
	}
}

func TestDetectFromLockfile(t *testing.T) {
	tests := []struct {
		lockfile string
		expected string
	}{
		{"package-lock.json", "npm"},
		{"yarn.lock", "yarn"},
		{"pnpm-lock.yaml", "pnpm"},
		{"bun.lockb", "bun"},
	}

	for _, tt := range tests {
		t.Run(tt.lockfile, func(t *testing.T) {
			t.Setenv("npm_config_user_agent", "")

			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, tt.lockfile), nil, 0644); err != nil {
				t.Fatal(err)
			}

			if info := Detect(dir); info.Name != tt.expected {
				t.Errorf("Expected %s for %s, got %s", tt.expected, tt.lockfile, info.Name)
			}
		})
	}
}

func TestDetectLockfilePrecedence(t *testing.T) {
	t.Setenv("npm_config_user_agent", "")

	dir := t.TempDir()
	for _, lockfile := range []string{"yarn.lock", "package-lock.json"} {
		if err := os.WriteFile(filepath.Join(dir, lockfile), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	// With multiple lockfiles, the fixed probe order decides:
	// package-lock.json outranks yarn.lock.
	if info := Detect(dir); info.Name != "npm" {
		t.Errorf("Expected npm to win precedence, got %s", info.Name)
	}
}

func TestDlxCommand(t *testing.T) {
	tests := []struct {
		manager  string
		expected []string
	}{
		{"npm", []string{"npx", "wrangler", "generate"}},
		{"yarn", []string{"yarn", "dlx", "wrangler", "generate"}},
		{"pnpm", []string{"pnpm", "dlx", "wrangler", "generate"}},
		{"bun", []string{"bunx", "wrangler", "generate"}},
	}

	for _, tt := range tests {
		t.Run(tt.manager, func(t *testing.T) {
			argv := Info{Name: tt.manager}.DlxCommand("wrangler", "generate")
			if len(argv) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, argv)
			}
			for i := range argv {
				if argv[i] != tt.expected[i] {
					t.Fatalf("Expected %v, got %v", tt.expected, argv)
				}
			}
		})
	}
}
