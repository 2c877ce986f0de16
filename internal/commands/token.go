package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"arcopilot/internal/config"
	"arcopilot/internal/credentials"
	"arcopilot/internal/terminal"

	"github.com/spf13/cobra"
)

// readSecret is replaced in tests.
var readSecret = func(prompt string) (string, error) {
	f, err := terminal.OpenTTY()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return terminal.ReadSecret(f, prompt)
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the AnswerRocket API token in the OS credential store",
	}
	cmd.AddCommand(newTokenSetCmd(), newTokenDeleteCmd(), newTokenStatusCmd())
	return cmd
}

func newTokenSetCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			var err error
			if fromStdin {
				token, err = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && token == "" {
					return fmt.Errorf("failed to read token from stdin: %w", err)
				}
			} else {
				token, err = readSecret("AnswerRocket API token: ")
				if err != nil {
					return err
				}
			}

			if err := credentials.NewManager().Store(strings.TrimSpace(token)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored")
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the token from stdin instead of prompting")
	return cmd
}

func newTokenDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credentials.NewManager().Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed")
			return nil
		},
	}
}

func newTokenStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a token is stored",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if credentials.NewManager().Has() {
				fmt.Fprintln(cmd.OutOrStdout(), "Token stored")
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No token stored")
			if os.Getenv(config.EnvToken) != "" {
				fmt.Fprintln(cmd.OutOrStdout(), config.EnvToken+" is set in the environment")
			}
		},
	}
}
