package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var revokeActor string

var revokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		if err := ws.RevokeToken(args[0], revokeActor); err != nil {
			return err
		}
		fmt.Println("revoked")
		return nil
	},
}

func init() {
	revokeCmd.Flags().StringVar(&revokeActor, "actor", "cli", "Identifier recorded as the actor performing the revocation")
	rootCmd.AddCommand(revokeCmd)
}
