package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/notionscan/internal/config"
	"github.com/nao1215/notionscan/internal/credential"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewAuthCmd creates the auth command and its subcommands.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the integration token in the OS keyring",
		Long: `Auth stores the Notion integration token in the OS keyring, so it does not
have to be kept in a .env file. NOTION_TOKEN still takes precedence.`,
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Prompt for a token and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Integration token: ")
			token, err := readToken(cmd.InOrStdin())
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := credential.NewStore("").Set(token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored in the keyring.")
			return nil
		},
	}
}

// readToken reads a token without echo from a terminal, or one line from
// any other reader.
func readToken(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // file descriptors fit in int
		b, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // file descriptors fit in int
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := credential.NewStore("").Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed from the keyring.")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which token would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := config.LoadEnv(config.DotEnvFile)
			if err != nil {
				return err
			}
			token, source, err := credential.NewStore("").Resolve(env.Token())
			if err != nil {
				if errors.Is(err, credential.ErrTokenNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token: %s (from %s)\n", credential.Mask(token), source)
			return nil
		},
	}
}
