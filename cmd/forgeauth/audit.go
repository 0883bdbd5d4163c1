package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var auditLines int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print the tail of the security audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		f, err := os.Open(ws.AuditLogPath())
		if os.IsNotExist(err) {
			fmt.Println("(no audit events yet)")
			return nil
		}
		if err != nil {
			return err
		}
		defer f.Close()

		var lines []string
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return err
		}

		start := 0
		if len(lines) > auditLines {
			start = len(lines) - auditLines
		}
		for _, line := range lines[start:] {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLines, "lines", 50, "Number of most recent audit lines to print")
	rootCmd.AddCommand(auditCmd)
}
