package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmynk/storefront/internal/app"
	"github.com/mmynk/storefront/internal/contact"
)

// ErrNotAdmin is returned by inbox commands when the persisted session is
// not logged in as the admin.
var ErrNotAdmin = errors.New("admin session required: run 'storefront login' as the admin first")

// MessagesOptions holds flags for the messages commands.
type MessagesOptions struct {
	*RootOptions
	Filter  string
	Subject string
	Name    string
	Email   string
	Message string
}

// NewMessagesCommand creates the messages command group.
func NewMessagesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MessagesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Manage contact messages",
		Long: `Manage contact messages.

Everything except submit requires the persisted session to be the admin.`,
	}

	cmd.AddCommand(newMessagesListCommand(opts))
	cmd.AddCommand(newMessagesSeedCommand(opts))
	cmd.AddCommand(newMessagesSubmitCommand(opts))
	cmd.AddCommand(newMessagesDeleteCommand(opts))
	cmd.AddCommand(newMessagesClearCommand(opts))

	return cmd
}

// openAdmin opens the stores and checks the session is the admin.
func (o *MessagesOptions) openAdmin(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	a, err := o.open(ctx, cmd)
	if err != nil {
		return nil, err
	}
	admin, err := a.Accounts.IsAdmin(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if !admin {
		a.Close()
		return nil, ErrNotAdmin
	}
	return a, nil
}

func newMessagesListCommand(opts *MessagesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openAdmin(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			msgs, err := a.Messages.List(cmd.Context(), opts.Filter)
			if err != nil {
				return err
			}
			counts, err := a.Messages.Count(cmd.Context())
			if err != nil {
				return err
			}

			out := struct {
				Filter   string `json:"filter" yaml:"filter"`
				Showing  int    `json:"showing" yaml:"showing"`
				Total    int    `json:"total" yaml:"total"`
				Messages any    `json:"messages" yaml:"messages"`
			}{opts.Filter, len(msgs), counts.Total, msgs}

			return opts.formatter(cmd).Print(out, func(w io.Writer) error {
				fmt.Fprintf(w, "Showing %d of %d messages (filter: %s)\n", len(msgs), counts.Total, opts.Filter)
				return printMessages(w, msgs)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "subject", contact.FilterAll, "subject filter, or all")

	return cmd
}

func newMessagesSeedCommand(opts *MessagesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample messages into an empty inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openAdmin(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			seeded, err := a.Messages.SeedIfEmpty(cmd.Context())
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Print(map[string]bool{"seeded": seeded}, func(w io.Writer) error {
				if seeded {
					fmt.Fprintln(w, "Loaded sample messages")
				} else {
					fmt.Fprintln(w, "Inbox not empty, nothing seeded")
				}
				return nil
			})
		},
	}
}

func newMessagesSubmitCommand(opts *MessagesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a contact message",
		Long: `Submit a contact message as a visitor would.

Example:
  storefront messages submit --name Ann --email ann@example.com \
    --subject order --message "Where is my parcel?"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := a.Messages.Submit(cmd.Context(), opts.Name, opts.Email, opts.Subject, opts.Message)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			return opts.formatter(cmd).Print(msg, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Submitted message %d\n", msg.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "sender name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "sender email")
	cmd.Flags().StringVar(&opts.Subject, "subject", "general", "message subject")
	cmd.Flags().StringVar(&opts.Message, "message", "", "message body")

	return cmd
}

func newMessagesDeleteCommand(opts *MessagesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message id %q", args[0])
			}

			a, err := opts.openAdmin(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.Messages.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Print(map[string]int{"removed": removed}, func(w io.Writer) error {
				if removed == 0 {
					fmt.Fprintf(w, "No message with id %d\n", id)
				} else {
					fmt.Fprintf(w, "Deleted message %d\n", id)
				}
				return nil
			})
		},
	}
}

func newMessagesClearCommand(opts *MessagesOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openAdmin(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Messages.ClearAll(cmd.Context()); err != nil {
				return err
			}
			return opts.formatter(cmd).Print(map[string]bool{"cleared": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "Inbox cleared")
				return err
			})
		},
	}
}
