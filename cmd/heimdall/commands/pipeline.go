package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/convert"
	"github.com/nulltoken/heimdall2/intake"
	"github.com/nulltoken/heimdall2/internal/api"
	"github.com/nulltoken/heimdall2/notify"
	"github.com/nulltoken/heimdall2/store"
	"github.com/nulltoken/heimdall2/version"
)

// pipeline bundles the in-process ingestion stack one-shot commands use.
// Evaluations registered here live only for the process lifetime; the ls
// and status commands talk to a running server instead.
type pipeline struct {
	store        *store.Store
	selection    *store.Selection
	registry     *convert.Registry
	orchestrator *intake.Orchestrator
}

// newPipeline assembles an isolated ingestion pipeline.
func newPipeline() *pipeline {
	st := store.NewStore()
	sel := store.NewSelection()
	registry := activeRegistry()
	dispatcher := convert.NewDispatcher(registry, notify.Log{})
	return &pipeline{
		store:        st,
		selection:    sel,
		registry:     registry,
		orchestrator: intake.NewOrchestrator(st, sel, dispatcher, notify.Log{}),
	}
}

// activeRegistry returns the process-wide converter registry, or a fresh
// one when no entry point installed a default.
func activeRegistry() *convert.Registry {
	if registry := convert.Default(); registry != nil {
		return registry
	}
	return convert.NewRegistry(version.Effective())
}

// serverAddress resolves the server address API commands target: the
// --server flag when set, otherwise the configured listen address.
func serverAddress(cmd *cobra.Command) string {
	if addr, _ := cmd.Flags().GetString("server"); addr != "" {
		return addr
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Sprintf("%s:%d", config.DefaultServerHost, config.DefaultServerPort)
	}
	return cfg.Addr()
}

// newAPIClient builds a client for the server the command targets.
func newAPIClient(cmd *cobra.Command) *api.Client {
	return api.NewClient(serverAddress(cmd))
}

// isURL reports whether a load argument names a remote report.
func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// shortID abbreviates evaluation IDs for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
