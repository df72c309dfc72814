package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YannKr/overmark/internal/auth"
	"github.com/YannKr/overmark/internal/docinfo"
	"github.com/YannKr/overmark/internal/watermark"
)

func newInspectCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <source>",
		Short: "Show how a source file would be watermarked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			contentType, err := ro.sniffer.ContentType(source)
			if err != nil {
				return fmt.Errorf("detect content type of %s: %w", source, err)
			}
			family, err := watermark.Classify(contentType)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "source:\t%s\n", source)
			fmt.Fprintf(tw, "content type:\t%s\n", contentType)
			fmt.Fprintf(tw, "family:\t%s\n", family)
			if family == watermark.FamilyDocument {
				info, err := docinfo.Inspect(source)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "pdf version:\t%s\n", info.Version)
				fmt.Fprintf(tw, "pages:\t%d\n", info.Pages)
			}
			return tw.Flush()
		},
	}
}

func newPositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "List watermark positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POSITION\tANCHOR")
			for _, p := range watermark.Positions() {
				fmt.Fprintf(tw, "%s\t%s\n", p, p.Anchor())
			}
			return tw.Flush()
		},
	}
}

func newHashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Generate an API token and the bcrypt hash for API_TOKEN_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				var err error
				if token, err = auth.NewToken(); err != nil {
					return fmt.Errorf("generate token: %w", err)
				}
			}
			hash, err := auth.HashToken(token)
			if err != nil {
				return fmt.Errorf("hash token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token: %s\nAPI_TOKEN_HASH=%s\n", token, hash)
			return nil
		},
	}
}
