package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/atinyakov/valentine/internal/card"
	"github.com/atinyakov/valentine/internal/models"
	"github.com/atinyakov/valentine/internal/service"
	"github.com/atinyakov/valentine/internal/view"
	"github.com/spf13/cobra"
)

// CreateResult is the JSON payload of create.
type CreateResult struct {
	Greeting *models.Greeting `json:"greeting"`
	ShareURL string           `json:"shareUrl"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var form models.GreetingFields
	var imagePath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a greeting card",
		Long: `Create a greeting card and print its share link.

Sender, receiver and message are required. The photo must be an image of
at most 5MB and is stored inline with the card.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, cmd, form, imagePath)
		},
	}

	cmd.Flags().StringVarP(&form.Sender, "sender", "s", "", "sender name")
	cmd.Flags().StringVarP(&form.Receiver, "receiver", "r", "", "receiver name")
	cmd.Flags().StringVarP(&form.Message, "message", "m", "", "card message")
	cmd.Flags().StringVarP(&form.Theme, "theme", "t", card.DefaultTheme, "theme: pink, purple, red, pastel")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "path to a photo")

	return cmd
}

func runCreate(opts *RootOptions, cmd *cobra.Command, form models.GreetingFields, imagePath string) error {
	f := opts.formatter(cmd)

	if imagePath != "" {
		uri, err := readImage(imagePath)
		if err != nil {
			_ = f.Error(ErrCodeValidation, service.UserMessage(err), err.Error())
			return WrapExitError(ExitFailure, "cannot read image", err)
		}
		form.Image = &uri
	}

	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := a.Service.Create(cmd.Context(), form)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			_ = f.Error(ErrCodeValidation, "invalid greeting", verr.Fields)
			return WrapExitError(ExitFailure, "invalid greeting", err)
		}
		_ = f.Error(ErrCodeSave, service.UserMessage(err), nil)
		return WrapExitError(ExitFailure, "cannot save greeting", err)
	}

	res := CreateResult{Greeting: g, ShareURL: view.ShareURL(opts.Config.BaseURL, g.ID)}
	return f.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Created greeting %s\n", g.ID)
		fmt.Fprintf(w, "Share link: %s\n", res.ShareURL)
	})
}

func readImage(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return service.ImageToDataURI(file, "")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored greetings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			greetings := a.Greetings.List(cmd.Context())
			if greetings == nil {
				greetings = []models.Greeting{}
			}
			return rootOpts.formatter(cmd).Success(greetings, func(w io.Writer) {
				if len(greetings) == 0 {
					fmt.Fprintln(w, "No greetings.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tFROM\tTO\tTHEME\tCREATED")
				for _, g := range greetings {
					d := card.Display(g)
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.ID, d.Sender, d.Receiver, d.Theme.Key, g.CreatedAt)
				}
				_ = tw.Flush()
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete one greeting",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return cleanupResult(rootOpts.formatter(cmd), a.Greetings.DeleteByID(cmd.Context(), args[0]),
				"Deleted "+args[0])
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Delete every greeting",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return cleanupResult(rootOpts.formatter(cmd), a.Greetings.ClearAll(cmd.Context()), "Cleared all greetings")
		},
	}
}

func cleanupResult(f *OutputFormatter, ok bool, done string) error {
	if !ok {
		_ = f.Error(ErrCodeSave, service.MsgRetry, nil)
		return NewExitError(ExitFailure, "storage rejected the change")
	}
	return f.Success(map[string]bool{"ok": true}, func(w io.Writer) {
		fmt.Fprintln(w, done)
	})
}

// NewThemesCommand creates the themes command.
func NewThemesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List card themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			themes := make([]card.Theme, 0, len(card.Themes))
			for _, k := range card.ThemeKeys() {
				themes = append(themes, card.Themes[k])
			}
			return rootOpts.formatter(cmd).Success(themes, func(w io.Writer) {
				for _, t := range themes {
					fmt.Fprintf(w, "%-8s %s\n", t.Key, t.Name)
				}
			})
		},
	}
}
