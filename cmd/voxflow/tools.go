package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/voxflow/internal/provider"
)

type toolsFlags struct {
	Groups []string
	Stdio  bool
}

func (a *app) toolsCmd() *cobra.Command {
	var flags toolsFlags
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Serve the desktop automation tools over MCP",
		Long: `Tools runs the automation tool server until interrupted, exposing only
the requested tool groups (appControl, appDiscovery, contextCapture). By
default it listens on a loopback HTTP endpoint; --stdio serves a single
client over stdin/stdout instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTools(cmd, flags)
		},
	}
	cmd.Flags().StringSliceVar(&flags.Groups, "groups", groupNames(provider.AllToolGroups), "tool groups to expose")
	cmd.Flags().BoolVar(&flags.Stdio, "stdio", false, "serve over stdin/stdout")
	return cmd
}

func (a *app) runTools(cmd *cobra.Command, flags toolsFlags) error {
	groups, err := parseGroups(flags.Groups)
	if err != nil {
		return err
	}
	server := a.newToolServer()

	if flags.Stdio {
		return server.ServeStdio(cmd.Context(), groups)
	}

	ep, done, err := server.Serve(cmd.Context(), groups)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s\n", ep.BaseURL)
	a.logger.Info("serving tools",
		zap.String("name", ep.ServerName),
		zap.Strings("tools", ep.ToolNames))
	<-done
	return nil
}

func parseGroups(names []string) ([]provider.ToolGroup, error) {
	groups := make([]provider.ToolGroup, 0, len(names))
	for _, n := range names {
		g := provider.ToolGroup(strings.TrimSpace(n))
		if !g.Valid() {
			return nil, fmt.Errorf("unknown tool group %q", n)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func groupNames(groups []provider.ToolGroup) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g)
	}
	return names
}

