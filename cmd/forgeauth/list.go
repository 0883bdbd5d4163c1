package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
)

var (
	listAgent string
	listToken string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List handoff IDs, optionally filtered by participant",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listToken == "" {
			return apperr.New(apperr.AuthenticationRequired, "--token is required")
		}
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		token, ok, err := ws.Authenticate(listToken)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.AuthenticationFailed, "token is invalid")
		}
		ids := ws.ListHandoffs(listAgent, token)
		if len(ids) == 0 {
			fmt.Println("(no handoffs)")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listAgent, "agent", "", "Filter to handoffs where this agent is sender or receiver")
	listCmd.Flags().StringVar(&listToken, "token", "", "Token used to authorize the listing")
	rootCmd.AddCommand(listCmd)
}
