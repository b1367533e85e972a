package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the persisted backend address",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the persisted backend address",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildConsole()
		if err != nil {
			return err
		}
		fmt.Println(c.BackendBase())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <base>",
	Short: "Persist a new backend address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildConsole()
		if err != nil {
			return err
		}
		if err := c.SetBackendBase(args[0]); err != nil {
			return err
		}
		fmt.Printf("backend set to %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
