// Package cli implements the overmark command line tool.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/YannKr/overmark/internal/app"
	"github.com/YannKr/overmark/internal/config"
	"github.com/YannKr/overmark/internal/watermark"
)

type rootOptions struct {
	verbose bool
	open    watermark.SessionFactory
	sniffer watermark.Sniffer
}

// NewRootCmd builds the command tree. A nil open uses ImageMagick through
// the configured shell.
func NewRootCmd(open watermark.SessionFactory) *cobra.Command {
	ro := &rootOptions{open: open, sniffer: watermark.MimeSniffer{}}

	cmd := &cobra.Command{
		Use:   "overmark",
		Short: "Stamp text or image watermarks onto images and PDFs",
		Long: `overmark builds and runs ImageMagick commands that place a text or image
watermark on a picture (jpeg, png, gif, ...) or on every page of a PDF.

Positions, offsets, rotation, opacity and tiling are set with flags.
Use --dry-run to print the command without running it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			level := cfg.SlogLevel()
			if ro.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			if ro.open == nil {
				tool := watermark.MagickChecker{Binary: cfg.ConvertBinary}
				ro.open = app.SessionFactory(cfg, tool, logger)
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&ro.verbose, "verbose", "v", false, "Log generated commands")

	cmd.AddCommand(
		newTextCmd(ro),
		newImageCmd(ro),
		newInspectCmd(ro),
		newPositionsCmd(),
		newHashTokenCmd(),
	)
	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd(nil).Execute(); err != nil {
		os.Exit(1)
	}
}
