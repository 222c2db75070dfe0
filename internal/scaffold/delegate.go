package scaffold

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/KLfungli/workers-sdk/internal/logging"
	"github.com/KLfungli/workers-sdk/internal/packagemanager"
)

// Delegator runs template generators and dependency installs through
// the user's package manager, with stdio passed through so interactive
// generators keep working.
type Delegator struct {
	pm  packagemanager.Info
	log *logging.Logger

	// runCommand is swapped in tests to avoid spawning real processes.
	runCommand func(ctx context.Context, dir string, argv []string) error
}

// NewDelegator creates a delegator for the given package manager.
func NewDelegator(pm packagemanager.Info, log *logging.Logger) *Delegator {
	return &Delegator{pm: pm, log: log, runCommand: runProcess}
}

// Generate scaffolds template t into directory. The directory is
// created if needed; the template's generator runs inside it.
func (d *Delegator) Generate(ctx context.Context, t Template, directory string) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}

	argv := d.pm.DlxCommand(t.Generator[0], append(t.Generator[1:], directory)...)
	d.log.Info("running generator", map[string]interface{}{
		"template": t.Name,
		"command":  argv[0],
	})
	if err := d.runCommand(ctx, ".", argv); err != nil {
		return fmt.Errorf("template generator %q: %w", t.Name, err)
	}
	return nil
}

// InstallDependencies runs the package manager's install step inside
// the project directory.
func (d *Delegator) InstallDependencies(ctx context.Context, directory string) error {
	argv := d.pm.InstallCommand()
	d.log.Info("installing dependencies", map[string]interface{}{
		"packageManager": d.pm.Name,
	})
	if err := d.runCommand(ctx, directory, argv); err != nil {
		return fmt.Errorf("dependency install: %w", err)
	}
	return nil
}

func runProcess(ctx context.Context, dir string, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
