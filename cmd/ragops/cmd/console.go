package cmd

import (
	"github.com/spf13/cobra"

	"ragops/internal/common"
	"ragops/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive terminal console",
	RunE:  runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	c, err := buildConsole()
	if err != nil {
		return err
	}
	// The TUI owns the terminal from here on; logs stay in the capture sink.
	common.MuteTerminal()
	return tui.Run(c)
}
