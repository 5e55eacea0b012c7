package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/storefront/internal/models"
)

// CredentialOptions holds flags shared by register and login.
type CredentialOptions struct {
	*RootOptions
	Name     string
	Email    string
	Password string
}

// NewAccountsCommand creates the accounts command group.
func NewAccountsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect registered accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered accounts without passwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			accounts, err := a.Accounts.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Print(accounts, func(w io.Writer) error {
				return printAccounts(w, accounts)
			})
		},
	})

	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in as it",
		Long: `Create an account and log in as it.

The password is prompted for when --password is omitted.

Example:
  storefront register --name Ann --email ann@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.readPassword(cmd); err != nil {
				return err
			}
			a, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Accounts.Register(cmd.Context(), opts.Name, opts.Email, opts.Password)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			return opts.formatter(cmd).Print(user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Registered %s <%s> (id %d)\n", user.Name, user.Email, user.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")

	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log the persisted session in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.readPassword(cmd); err != nil {
				return err
			}
			a, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Accounts.Login(cmd.Context(), opts.Email, opts.Password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			return opts.formatter(cmd).Print(user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s <%s>\n", user.Name, user.Email)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func (o *CredentialOptions) readPassword(cmd *cobra.Command) error {
	if cmd.Flags().Changed("password") {
		return nil
	}
	pw, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.Password = pw
	return nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Accounts.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			return rootOpts.formatter(cmd).Print(models.Session{}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "Logged out")
				return err
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.Accounts.Session(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Print(session, func(w io.Writer) error {
				return printSession(w, session)
			})
		},
	}
}
