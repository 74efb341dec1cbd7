package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/voxflow/internal/assets"
	"github.com/dusk-indust/voxflow/internal/config"
	"github.com/dusk-indust/voxflow/internal/provider"
	"github.com/dusk-indust/voxflow/internal/status"
)

func (a *app) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show providers, their executables and tooling, and configured modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStatus(asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func (a *app) runStatus(asJSON bool) error {
	store, err := config.Open(a.settings.ConfigPath, a.logger)
	if err != nil {
		return err
	}

	locator := newLocator(a.logger)
	caps := provider.NewCapabilityResolver(assets.Models(), a.logger)
	report := status.Collect(store.Catalog(), locator, caps)
	report.ConfigPath = store.Path()
	report.Defaults = store.UsingDefault()

	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	status.Print(a.stdout, report)
	return nil
}
