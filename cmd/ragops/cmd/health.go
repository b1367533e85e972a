package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragops/internal/backend"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe backend liveness once",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	c, err := buildConsole()
	if err != nil {
		return err
	}
	status := c.Probe(cmd.Context())
	switch status {
	case backend.StatusOk:
		fmt.Printf("backend %s is online\n", c.BackendBase())
	default:
		fmt.Printf("backend %s is offline\n", c.BackendBase())
	}
	return nil
}
