package commands

import (
	"fmt"
	"os"

	"arcopilot/internal/config"
	"arcopilot/internal/credentials"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change server settings",
	}
	cmd.AddCommand(newConfigSetCmd(), newConfigShowCmd(), newConfigPathCmd())
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set url, copilot_id, graphql_path or timeout",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"url", "copilot_id", "graphql_path", "timeout"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigPath()
			cfg := config.DefaultConfig()
			if _, err := os.Stat(path); err == nil {
				loaded, err := config.LoadFrom(path)
				if err != nil {
					return err
				}
				cfg = *loaded
			}

			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", args[0], path)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := credentials.NewManager()
			cfg, err := config.Load("", creds)
			if err != nil {
				return err
			}

			token := "not set"
			switch {
			case os.Getenv(config.EnvToken) != "":
				token = "set (" + config.EnvToken + ")"
			case cfg.Token != "":
				token = "set (credential store)"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:       %s\n", config.ConfigPath())
			fmt.Fprintf(out, "url:          %s\n", cfg.URL)
			fmt.Fprintf(out, "copilot_id:   %s\n", cfg.CopilotID)
			fmt.Fprintf(out, "graphql_path: %s\n", cfg.GraphQLPath)
			fmt.Fprintf(out, "timeout:      %s\n", cfg.Timeout)
			fmt.Fprintf(out, "token:        %s\n", token)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		},
	}
}
