package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/view"
	"github.com/spf13/cobra"
)

// MsgNotFound is printed for an unknown card id.
const MsgNotFound = "Ucapan Valentine tidak ditemukan"

// ViewResult is the JSON payload of view.
type ViewResult struct {
	view.Snapshot
	Copied     bool   `json:"copied,omitempty"`
	ExportPath string `json:"exportPath,omitempty"`
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	var copyLink, exportImage bool

	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Show a greeting card",
		Long: `Show the greeting card with the given id. The id "demo" shows a
sample card without touching storage.

--copy puts the share link on the clipboard and --export saves the card as
a PNG image in the export directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(rootOpts, cmd, args[0], copyLink, exportImage)
		},
	}

	cmd.Flags().BoolVar(&copyLink, "copy", false, "copy the share link to the clipboard")
	cmd.Flags().BoolVar(&exportImage, "export", false, "export the card as PNG")

	return cmd
}

func runView(opts *RootOptions, cmd *cobra.Command, id string, copyLink, exportImage bool) error {
	f := opts.formatter(cmd)

	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Failures are reported through the formatter, so the view gets no notifier.
	cv := a.NewView(view.Options{})
	defer cv.Close()

	ctx := cmd.Context()
	snap := cv.Load(ctx, id)
	if snap.State != view.Found {
		_ = f.Error(ErrCodeNotFound, MsgNotFound, map[string]string{"id": id})
		return NewExitError(ExitFailure, "greeting not found")
	}

	res := ViewResult{Snapshot: snap}
	if copyLink {
		res.Copied = cv.CopyLink(ctx)
		if !res.Copied {
			f.VerboseLog("could not copy link to clipboard")
		}
	}
	if exportImage {
		path, err := cv.Export(ctx)
		if err != nil {
			_ = f.Error(ErrCodeExport, view.MsgExportFailed, err.Error())
			return WrapExitError(ExitFailure, "export failed", err)
		}
		res.ExportPath = path
	}

	return f.Success(res, func(w io.Writer) {
		RenderCard(w, *snap.Card, snap.ShareURL)
		if res.Copied {
			fmt.Fprintln(w, "Link copied!")
		}
		if res.ExportPath != "" {
			fmt.Fprintf(w, "Saved %s\n", res.ExportPath)
		}
	})
}

// RenderCard prints a card as plain text.
func RenderCard(w io.Writer, v card.View, shareURL string) {
	rule := strings.Repeat("~", 40)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s\n", card.Title)
	fmt.Fprintf(w, "  <3 %s <3\n", card.DateLine)
	fmt.Fprintln(w)
	if v.Image != nil {
		fmt.Fprintln(w, "  [photo]")
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  Dari:  %s\n", v.Sender)
	fmt.Fprintf(w, "  Untuk: %s\n", v.Receiver)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  \"%s\"\n", v.Message)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Theme: %s\n", v.Theme.Name)
	if shareURL != "" {
		fmt.Fprintf(w, "  Link:  %s\n", shareURL)
	}
	fmt.Fprintln(w, rule)
}
