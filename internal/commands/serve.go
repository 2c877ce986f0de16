package commands

import (
	"fmt"

	"arcopilot/internal/answerrocket"
	"arcopilot/internal/config"
	"arcopilot/internal/credentials"
	"arcopilot/internal/logging"
	"arcopilot/internal/mcp"

	"github.com/spf13/cobra"
)

// newClient is replaced in tests.
var newClient = func(cfg *config.Config, logger *logging.AppLogger) answerrocket.Client {
	return answerrocket.NewHTTPClient(cfg.URL, cfg.GraphQLPath, cfg.Token, cfg.Timeout, logger)
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a copilot's skills as MCP tools over stdio",
		Long: "Starts a Model Context Protocol server on stdin/stdout exposing every skill of " +
			"the configured copilot as a tool.\n\n" +
			"Settings come from the config file, overridden by AR_URL, AR_TOKEN and COPILOT_ID. " +
			"Without AR_TOKEN the token stored with `arcopilot token set` is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetDefault()

			cfg, err := config.Load(configPath, credentials.NewManager())
			if err != nil {
				return &exitError{Code: ExitError, Err: err}
			}
			if err := cfg.Validate(); err != nil {
				return &exitError{Code: ExitError, Err: err}
			}

			srv := mcp.NewServer(cfg, newClient(cfg, logger), logger, Version)
			if err := srv.Initialize(cmd.Context()); err != nil {
				return &exitError{Code: ExitError, Err: err}
			}
			defer srv.Stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Serving %d tools for %s\n", len(srv.Tools()), srv.Copilot().DisplayName())
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/arcopilot/config.yaml)")
	return cmd
}
