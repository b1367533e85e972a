package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"ragops/internal/common"
	"ragops/internal/webui"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser console on a local address",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8090", "listen address for the web console")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := common.Logger()
	c, err := buildConsole()
	if err != nil {
		return err
	}
	server := webui.NewServer(c)

	reachable := serveAddr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("ragops: web console listening", "addr", serveAddr)
	fmt.Printf("Console on http://%s\n", reachable)
	if err := http.ListenAndServe(serveAddr, server); err != nil {
		logger.Error("ragops: web console stopped", "error", err)
		return err
	}
	return nil
}
