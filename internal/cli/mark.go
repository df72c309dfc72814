package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YannKr/overmark/internal/watermark"
)

// ErrWriteFailed is returned when the image tool rejects the command.
var ErrWriteFailed = errors.New("watermark command failed")

type markFlags struct {
	output   string
	position string
	offset   string
	rotate   string
	opacity  float64
	tiled    bool
	tileSize string
	font     string
	fontSize int
	style    string
	dryRun   bool
}

func (f *markFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output file (default: overwrite the source)")
	fl.StringVarP(&f.position, "position", "p", "", "Position: top-left, top, top-right, left, center, right, bottom-left, bottom, bottom-right")
	fl.StringVar(&f.offset, "offset", "", "Offset from the position as X,Y (e.g. 10,100 or -80,200)")
	fl.StringVar(&f.rotate, "rotate", "", "Rotation in degrees; direction is ignored")
	fl.Float64Var(&f.opacity, "opacity", 0.3, "Opacity between 0 and 1")
	fl.BoolVar(&f.tiled, "tiled", false, "Repeat the watermark across the source")
	fl.StringVar(&f.tileSize, "tile-size", "", "Tile size as WxH (e.g. 200x150)")
	fl.StringVar(&f.font, "font", "", "Font name or file for text marks")
	fl.IntVar(&f.fontSize, "font-size", 0, "Font size in points for text marks")
	fl.StringVar(&f.style, "style", "", "Style: dissolve, colorless (images) or bevel, dark, light (text)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Print the command instead of running it")
}

// params turns the flags the user set into Params.
func (f *markFlags) params(cmd *cobra.Command) (watermark.Params, error) {
	p := watermark.Params{
		Position: f.position,
		Tiled:    f.tiled,
		Font:     f.font,
		FontSize: f.fontSize,
		Style:    f.style,
	}
	if f.offset != "" {
		x, y, err := watermark.ParseOffset(f.offset)
		if err != nil {
			return p, err
		}
		p.OffsetX, p.OffsetY = x, y
	}
	if f.rotate != "" {
		p.Rotation = watermark.ParseRotation(f.rotate)
	}
	if f.tileSize != "" {
		size, err := watermark.ParseTileSize(f.tileSize)
		if err != nil {
			return p, err
		}
		p.TileWidth, p.TileHeight = size.Width, size.Height
	}
	if cmd.Flags().Changed("opacity") {
		opacity := f.opacity
		p.Opacity = &opacity
	}
	return p, nil
}

func runMark(cmd *cobra.Command, ro *rootOptions, f *markFlags, req watermark.Request) error {
	params, err := f.params(cmd)
	if err != nil {
		return err
	}
	req.Params = params
	req.Output = f.output

	session, err := req.Open(cmd.Context(), ro.open)
	if err != nil {
		return err
	}

	if f.dryRun {
		command, err := session.Command(req.Output)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), command)
		return nil
	}

	ok, err := session.Write(cmd.Context(), req.Output)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w for %s (run with --verbose for details)", ErrWriteFailed, req.Source)
	}
	dest := req.Output
	if dest == "" {
		dest = req.Source
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watermarked %s -> %s\n", req.Source, dest)
	return nil
}

func newTextCmd(ro *rootOptions) *cobra.Command {
	f := &markFlags{}
	cmd := &cobra.Command{
		Use:   "text <source> <text>",
		Short: "Stamp a text watermark",
		Example: `  overmark text photo.jpg "ajaxray.com" -o marked.jpg --position bottom-right --offset 10,100
  overmark text report.pdf "CONFIDENTIAL" --rotate 45 --opacity .2 --font-size 48`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, ro, f, watermark.Request{Source: args[0], Text: args[1]})
		},
	}
	f.register(cmd)
	return cmd
}

func newImageCmd(ro *rootOptions) *cobra.Command {
	f := &markFlags{}
	cmd := &cobra.Command{
		Use:   "image <source> <marker-image>",
		Short: "Stamp an image watermark",
		Example: `  overmark image photo.jpg logo.png -o marked.jpg --position top-right --opacity .5
  overmark image photo.jpg logo.png --tiled --style colorless`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, ro, f, watermark.Request{Source: args[0], Image: args[1]})
		},
	}
	f.register(cmd)
	return cmd
}
