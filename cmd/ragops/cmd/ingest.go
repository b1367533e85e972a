package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ragops/internal/backend"
	"ragops/internal/console"
)

var (
	ingestMaxPages  int
	ingestMaxChunks int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Trigger document ingestion",
}

var ingestPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Ingest the backend's server-side corpus directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildConsole()
		if err != nil {
			return err
		}
		c.RunPathIngest(cmd.Context())
		return printOutcome(c)
	},
}

var ingestFilesCmd = &cobra.Command{
	Use:   "files <path>...",
	Short: "Upload local files for ingestion",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildConsole()
		if err != nil {
			return err
		}
		uploads := make([]backend.Upload, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			uploads = append(uploads, backend.Upload{Name: filepath.Base(path), Data: data})
		}
		c.SetUploads(uploads)
		c.RunFilesIngest(cmd.Context())
		return printOutcome(c)
	},
}

var ingestOneCmd = &cobra.Command{
	Use:   "one <filename>",
	Short: "Ingest one file already present in the backend's corpus directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildConsole()
		if err != nil {
			return err
		}
		params := backend.IngestOneParams{Filename: args[0]}
		if cmd.Flags().Changed("max-pages") {
			params.MaxPages = &ingestMaxPages
		}
		if cmd.Flags().Changed("max-chunks") {
			params.MaxChunks = &ingestMaxChunks
		}
		c.SetIngestOneParams(params)
		c.RunSingleIngest(cmd.Context())
		return printOutcome(c)
	},
}

func init() {
	ingestOneCmd.Flags().IntVar(&ingestMaxPages, "max-pages", 0, "maximum PDF pages to read (backend default when unset)")
	ingestOneCmd.Flags().IntVar(&ingestMaxChunks, "max-chunks", 0, "maximum chunks to insert (backend default when unset)")
	ingestCmd.AddCommand(ingestPathCmd)
	ingestCmd.AddCommand(ingestFilesCmd)
	ingestCmd.AddCommand(ingestOneCmd)
}

// printOutcome relays the operation's notification to stdout. Every ingest
// ends in exactly one notification, success or failure.
func printOutcome(c *console.Console) error {
	if note, ok := c.Notification(); ok {
		fmt.Println(note)
	}
	return nil
}
