package install

import (
	"context"
	"fmt"
	"io"

	"github.com/sipeed/picospeak/cmd/picospeak/internal"
	"github.com/sipeed/picospeak/pkg/installer"
	"github.com/spf13/cobra"
)

// newInstaller is replaced in tests.
var newInstaller = installer.New

func NewInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the espeak-ng speech engine with the system package manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installCmd(cmd.Context(), cmd.OutOrStdout())
		},
	}

	return cmd
}

func installCmd(ctx context.Context, out io.Writer) error {
	if err := install(ctx); err != nil {
		fmt.Fprintf(out, "Error installing %s: %v\n", installer.PackageName, err)
		return internal.Failure
	}

	fmt.Fprintf(out, "%s installed successfully!\n", installer.PackageName)
	return nil
}

func install(ctx context.Context) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	return newInstaller(cfg.Installer.Manager).Install(ctx, installer.PackageName)
}
