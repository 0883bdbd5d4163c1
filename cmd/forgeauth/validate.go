package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamspace-dev/forgeauth/internal/apperr"
)

var validateCmd = &cobra.Command{
	Use:   "validate <token>",
	Short: "Verify a token and print its claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		token, ok, err := ws.ValidateToken(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.AuthenticationFailed, "token is invalid, expired, revoked, or its agent is locked out")
		}
		out, _ := json.MarshalIndent(token, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
