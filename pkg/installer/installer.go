// Package installer installs picospeak's offline speech engine through the
// host package manager.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sipeed/picospeak/pkg/logger"
)

// PackageName is the one package the installer knows how to install.
const PackageName = "espeak-ng"

var ErrNoManager = errors.New("no supported package manager found on PATH")

// Manager is a package manager and the arguments that precede the package name.
type Manager struct {
	Name      string
	Args      []string
	NeedsRoot bool
}

// Managers in probe order.
var Managers = []Manager{
	{Name: "apt-get", Args: []string{"install", "-y"}, NeedsRoot: true},
	{Name: "dnf", Args: []string{"install", "-y"}, NeedsRoot: true},
	{Name: "yum", Args: []string{"install", "-y"}, NeedsRoot: true},
	{Name: "apk", Args: []string{"add", "--no-cache"}, NeedsRoot: true},
	{Name: "pacman", Args: []string{"-S", "--noconfirm", "--needed"}, NeedsRoot: true},
	{Name: "zypper", Args: []string{"--non-interactive", "install"}, NeedsRoot: true},
	{Name: "brew", Args: []string{"install"}},
}

// Runner executes one command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type Installer struct {
	// Manager forces a package manager by name; empty means probe PATH.
	Manager string
	Runner  Runner
	// Output receives the package manager's own output.
	Output   io.Writer
	LookPath func(string) (string, error)
	Geteuid  func() int
}

func New(manager string) *Installer {
	return &Installer{
		Manager:  manager,
		Runner:   ExecRunner{},
		Output:   os.Stderr,
		LookPath: exec.LookPath,
		Geteuid:  os.Geteuid,
	}
}

// Detect returns the forced manager, or the first known manager on PATH.
func (i *Installer) Detect() (Manager, error) {
	if name := strings.TrimSpace(i.Manager); name != "" {
		for _, m := range Managers {
			if m.Name == name {
				if _, err := i.LookPath(m.Name); err != nil {
					return Manager{}, fmt.Errorf("package manager %q is not on PATH: %w", name, err)
				}
				return m, nil
			}
		}
		return Manager{}, fmt.Errorf("unsupported package manager %q", name)
	}

	for _, m := range Managers {
		if _, err := i.LookPath(m.Name); err == nil {
			return m, nil
		}
	}
	return Manager{}, ErrNoManager
}

// Command builds the argv that installs pkg, elevating through sudo when
// the manager needs root and the process is not root.
func (i *Installer) Command(m Manager, pkg string) []string {
	argv := append([]string{m.Name}, m.Args...)
	argv = append(argv, pkg)

	if m.NeedsRoot && i.Geteuid() > 0 {
		if _, err := i.LookPath("sudo"); err == nil {
			argv = append([]string{"sudo"}, argv...)
		}
	}
	return argv
}

// Install runs the package manager once. There are no retries.
func (i *Installer) Install(ctx context.Context, pkg string) error {
	m, err := i.Detect()
	if err != nil {
		return err
	}

	argv := i.Command(m, pkg)
	logger.InfoCF("installer", "Installing package", map[string]any{
		"package": pkg,
		"manager": m.Name,
		"command": strings.Join(argv, " "),
	})

	if err := i.Runner.Run(ctx, argv[0], argv[1:], i.Output, i.Output); err != nil {
		return fmt.Errorf("command '%s' failed: %w", strings.Join(argv, " "), err)
	}

	logger.InfoCF("installer", "Package installed", map[string]any{
		"package": pkg,
		"manager": m.Name,
	})
	return nil
}
