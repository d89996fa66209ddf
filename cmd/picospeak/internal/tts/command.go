package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/sipeed/picospeak/cmd/picospeak/internal"
	"github.com/sipeed/picospeak/pkg/convert"
	"github.com/sipeed/picospeak/pkg/logger"
	"github.com/sipeed/picospeak/pkg/voice"
	"github.com/spf13/cobra"
)

const usage = "Usage: picospeak tts <text> <output_file>"

func NewTTSCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tts <text> <output_file>",
		Short: "Convert text to speech and save it as an audio file",
		// Every argument is positional, so "-5 degrees" is spoken rather than parsed.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ttsCmd(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	return cmd
}

func ttsCmd(ctx context.Context, out io.Writer, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(out, usage)
		return internal.Failure
	}
	text, outPath := args[0], args[1]

	if err := convertText(ctx, text, outPath); err != nil {
		logger.DebugCF("tts", "Conversion failed", map[string]any{
			"output": outPath,
			"error":  err.Error(),
		})
		fmt.Fprintf(out, "ERROR: %v\n", err)
		return internal.Failure
	}

	fmt.Fprintln(out, "SUCCESS")
	return nil
}

func convertText(ctx context.Context, text, outPath string) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	synth, err := voice.New(cfg)
	if err != nil {
		return err
	}

	_, err = convert.ToFile(ctx, synth, voice.NewRequest(text), outPath)
	return err
}
