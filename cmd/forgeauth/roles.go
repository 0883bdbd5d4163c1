package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamspace-dev/forgeauth/internal/auth"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Print the fixed role/permission table",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := json.MarshalIndent(auth.RolePermissions, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
}
