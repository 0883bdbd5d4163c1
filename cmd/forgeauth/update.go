package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
	"github.com/streamspace-dev/forgeauth/internal/auth"
)

var updateAdminToken string

var updateCmd = &cobra.Command{
	Use:   "update <agent-id> <new-role>",
	Short: "Change an agent's role across all of its active tokens",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateAdminToken == "" {
			return apperr.New(apperr.AuthenticationRequired, "--admin-token is required")
		}
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		adminToken, ok, err := ws.Authenticate(updateAdminToken)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.AuthenticationFailed, "admin token is invalid")
		}
		ok, err = ws.UpdatePermissions(args[0], auth.Role(args[1]), adminToken)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.AuthorizationFailed, "admin token lacks ADMIN or agent has no active tokens")
		}
		fmt.Println("updated")
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateAdminToken, "admin-token", "", "Token with ADMIN permission")
	rootCmd.AddCommand(updateCmd)
}
