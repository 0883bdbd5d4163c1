package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamspace-dev/forgeauth/internal/auth"
	"github.com/streamspace-dev/forgeauth/internal/reqvalidate"
)

// createRequest is validated at the CLI boundary before reaching the
// core; in-process callers may call workspace.CreateToken directly
// with an unvalidated auth.CreateTokenRequest.
type createRequest struct {
	AgentID      string `validate:"required,min=1,max=64"`
	Role         string `validate:"required,oneof=ADMIN ORCHESTRATOR SPECIALIST REVIEWER OBSERVER GUEST"`
	LifetimeHours int   `validate:"min=0"`
}

var createLifetimeHours int

var createCmd = &cobra.Command{
	Use:   "create <agent-id> <role>",
	Short: "Mint a new agent token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := createRequest{AgentID: args[0], Role: args[1], LifetimeHours: createLifetimeHours}
		if err := reqvalidate.Struct(req); err != nil {
			return err
		}

		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		var lifetime *time.Duration
		if createLifetimeHours > 0 {
			d := time.Duration(createLifetimeHours) * time.Hour
			lifetime = &d
		}

		token, err := ws.CreateToken(auth.CreateTokenRequest{
			AgentID:  req.AgentID,
			Role:     auth.Role(req.Role),
			Lifetime: lifetime,
		})
		if err != nil {
			return err
		}

		out, _ := json.MarshalIndent(token, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	createCmd.Flags().IntVar(&createLifetimeHours, "lifetime-hours", 0, "Token lifetime in hours (0 = default)")
	rootCmd.AddCommand(createCmd)
}
