package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <question>...",
	Short: "Ask a question against the ingested corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	c, err := buildConsole()
	if err != nil {
		return err
	}
	c.SetQuestionDraft(strings.Join(args, " "))
	c.RunChat(cmd.Context())

	if history := c.History(); len(history) > 0 {
		head := history[0]
		fmt.Println(head.Answer)
		fmt.Printf("(%d chunks used)\n", head.UsedChunks)
		return nil
	}
	note, _ := c.Notification()
	if note == "" {
		note = "chat produced no answer"
	}
	return fmt.Errorf("%s", note)
}
