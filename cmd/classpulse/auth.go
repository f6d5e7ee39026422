package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/classpulse/internal/classpulse"
	"github.com/gauthierbraillon/classpulse/pkg/auth"
)

// prompt reads one line from r after printing label, unless value is already set.
func prompt(r *bufio.Reader, w io.Writer, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(w, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return line, nil
}

// newLoginCmd creates the login subcommand.
func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a teacher",
		Long:  "Exchange teacher credentials for a session token and store it in the config directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email, err = prompt(in, cmd.OutOrStdout(), "Email", email); err != nil {
				return err
			}
			if password, err = prompt(in, cmd.OutOrStdout(), "Password", password); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout)
			defer cancel()

			client := classpulse.NewClient(classpulse.WithBaseURL(a.cfg.APIURL))
			token, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}

			if err := a.tokenStorage().Save(tokenProfile, &auth.Token{Token: token, Email: email}); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to: %s\n", a.cfg.ConfigDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Teacher email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Teacher password (prompted when omitted)")

	return cmd
}

// newLogoutCmd creates the logout subcommand.
func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored teacher token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tokenStorage().Delete(tokenProfile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// newRegisterCmd creates the register subcommand.
func newRegisterCmd(a *app) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a teacher account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if name, err = prompt(in, cmd.OutOrStdout(), "Name", name); err != nil {
				return err
			}
			if email, err = prompt(in, cmd.OutOrStdout(), "Email", email); err != nil {
				return err
			}
			if password, err = prompt(in, cmd.OutOrStdout(), "Password", password); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout)
			defer cancel()

			client := classpulse.NewClient(classpulse.WithBaseURL(a.cfg.APIURL))
			teacher, err := client.RegisterTeacher(ctx, name, email, password)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s>\n", teacher.Name, teacher.Email)
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'classpulse login' to sign in.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Teacher name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Teacher email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Teacher password (prompted when omitted)")

	return cmd
}

// newWhoamiCmd creates the whoami subcommand.
func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.tokenStorage().Load(tokenProfile)
			if err != nil {
				if errors.Is(err, auth.ErrTokenNotFound) {
					return fmt.Errorf("not logged in (run 'classpulse login')")
				}
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout)
			defer cancel()

			client := classpulse.NewClient(classpulse.WithBaseURL(a.cfg.APIURL), classpulse.WithToken(token.Token))
			teacher, err := client.Me(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", teacher.Name, teacher.Email)
			return nil
		},
	}
}
