package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	hyoukamcp "github.com/scoreflow/hyouka/internal/mcp"
)

type mcpOptions struct {
	addr string
}

func newMCPCmd() *cobra.Command {
	var opts mcpOptions

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server, exposing every tool over streamable HTTP",
		RunE: func(c *cobra.Command, args []string) error {
			return runMCP(c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8090", "Address to listen on")

	return cmd
}

func runMCP(c *cobra.Command, opts mcpOptions) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	srv := hyoukamcp.New(client, slog.Default(), version, cfg.Concurrency)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(srv.MCPServer()))

	slog.Info("hyouka mcp listening", "addr", opts.addr)
	if err := http.ListenAndServe(opts.addr, mux); err != nil {
		return fmt.Errorf("mcp: serve: %w", err)
	}
	return nil
}
