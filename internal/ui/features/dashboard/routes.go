// Package dashboard renders the organization-wide quality overview.
package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the dashboard feature routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/dashboard", handlers.DashboardPage)
	router.Get("/dashboard/updates", handlers.DashboardPageUpdates)

	return nil
}
