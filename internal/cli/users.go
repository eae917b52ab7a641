package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/andrasnagy-data/feedback/internal/components/users"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
	"github.com/andrasnagy-data/feedback/internal/shared/session"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var (
	addEmail     string
	addFirstName string
	addLastName  string
)

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a user, prompting for the password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		u, err := services.Users.Register(cmd.Context(), users.RegisterIn{
			Username:  args[0],
			Password:  password,
			Email:     addEmail,
			FirstName: addFirstName,
			LastName:  addLastName,
		})
		if err != nil {
			return describe(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created successfully\n", u.Username)
		return nil
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show a user and their feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, err := initServices(ctx)
		if err != nil {
			return err
		}
		defer services.Close()

		u, err := services.Users.Get(ctx, args[0])
		if err != nil {
			return describe(err)
		}
		list, err := services.Feedback.ListByOwner(ctx, u.Username)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Username: %s\nName:     %s %s\nEmail:    %s\nCreated:  %s\n\n",
			u.Username, u.FirstName, u.LastName, u.Email, u.CreatedAt.Format("2006-01-02 15:04:05"))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
		for _, f := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\n", f.ID, f.Title, f.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user and all of their feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		if err := deleteAccount(cmd.Context(), services.Users, services.Sessions, args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' deleted successfully\n", args[0])
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&addEmail, "email", "", "email address")
	usersAddCmd.Flags().StringVar(&addFirstName, "first-name", "", "first name")
	usersAddCmd.Flags().StringVar(&addLastName, "last-name", "", "last name")

	usersCmd.AddCommand(usersAddCmd, usersShowCmd, usersDeleteCmd)
}

type accountDeleter interface {
	Delete(ctx context.Context, username string) error
}

// deleteAccount removes the user and then ends every session they still hold, so a
// browser logged in as the deleted name is anonymous on its next request.
func deleteAccount(ctx context.Context, accounts accountDeleter, sessions session.Manager, username string) error {
	if err := accounts.Delete(ctx, username); err != nil {
		return describe(err)
	}
	if err := sessions.Revoke(ctx, username); err != nil {
		return fmt.Errorf("user deleted but sessions not revoked: %w", err)
	}
	return nil
}

// readPassword prompts twice on a terminal, or reads one line from piped input.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(cmd.InOrStdin())
	}

	out := cmd.ErrOrStderr()
	fmt.Fprint(out, "Enter password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(password) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(password), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describe turns store errors into operator-facing messages. Validation errors already
// read well and pass through.
func describe(err error) error {
	switch {
	case errors.Is(err, errs.ErrDuplicateUsername):
		return errors.New("user already exists")
	case errors.Is(err, errs.ErrNotFound):
		return errors.New("user not found")
	}
	return err
}
