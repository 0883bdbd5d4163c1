package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired tokens from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		n, err := ws.CleanupExpired()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d expired token(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
