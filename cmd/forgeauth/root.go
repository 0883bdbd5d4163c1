package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
	"github.com/streamspace-dev/forgeauth/internal/config"
	"github.com/streamspace-dev/forgeauth/internal/logger"
	"github.com/streamspace-dev/forgeauth/internal/workspace"
)

var workspaceFlag string

var rootCmd = &cobra.Command{
	Use:   "forgeauth",
	Short: "Mint, verify, and revoke agent capability tokens",
	Long: `forgeauth manages signed role-scoped tokens for software agents and
the sanitized file handoff channel between them.

Core Commands:
  create    Mint a new agent token
  list      List handoff IDs
  validate  Verify a token and print its claims
  revoke    Revoke a token
  update    Change an agent's role
  audit     Tail the security audit log
  status    Show authentication status
  cleanup   Remove expired tokens
  roles     Print the fixed role/permission table`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "", "Workspace directory (default: $FORGEAUTH_WORKSPACE or .)")
}

// Execute runs the root command and maps library errors to exit codes.
func Execute() {
	logger.Initialize(config.LogLevelFromEnv(), false)

	if err := rootCmd.Execute(); err != nil {
		logger.CLI().Error().Err(err).Strs("args", os.Args[1:]).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if code, ok := apperr.CodeOf(err); ok {
		switch code {
		case apperr.AuthenticationRequired, apperr.AuthenticationFailed:
			return 2
		case apperr.AuthorizationFailed:
			return 3
		case apperr.InvalidInput, apperr.PayloadTooLarge, apperr.DepthExceeded:
			return 4
		case apperr.RateLimitExceeded:
			return 5
		default:
			return 1
		}
	}
	return 1
}

func openWorkspace() (*workspace.Workspace, error) {
	root := config.WorkspaceFromEnv(workspaceFlag)
	cfg := config.FromEnv()
	return workspace.Initialize(root, cfg)
}
