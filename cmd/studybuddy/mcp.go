package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/thywilljoshua/study-buddy/internal/mcptools"
)

func mcpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the study tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := a.generator(cmd.Context(), nil)
			if err != nil {
				return err
			}
			s := mcptools.NewServer(mcptools.New(gen, a.cfg.Server.MaxUploadBytes, a.log.Named("mcp")))
			a.log.Info("serving MCP on stdio")
			return server.ServeStdio(s)
		},
	}
}
