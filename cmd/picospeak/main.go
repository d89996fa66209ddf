// picospeak - text to speech from the command line
// License: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sipeed/picospeak/cmd/picospeak/internal"
	"github.com/sipeed/picospeak/cmd/picospeak/internal/install"
	"github.com/sipeed/picospeak/cmd/picospeak/internal/tts"
	"github.com/sipeed/picospeak/cmd/picospeak/internal/version"
	"github.com/sipeed/picospeak/pkg/logger"
)

func NewPicospeakCommand() *cobra.Command {
	short := fmt.Sprintf("%s picospeak - Text to speech from the command line v%s", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:           "picospeak",
		Short:         short,
		Example:       "picospeak tts \"Hello world\" hello.mp3",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		tts.NewTTSCommand(),
		install.NewInstallCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewPicospeakCommand().ExecuteContext(ctx)
	stop()
	logger.DisableFileLogging()

	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *internal.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
