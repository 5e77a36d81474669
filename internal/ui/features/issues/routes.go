// Package issues triages the rule violations executions record, with
// filtering, resolution and one-off value fixes.
package issues

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the issue routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/issues", handlers.IssuesPage)
	router.Get("/issues/updates", handlers.IssuesPageUpdates)
	router.Post("/issues/{id}/resolve", handlers.Resolve)
	router.Post("/issues/{id}/fix", handlers.Fix)
	router.Post("/issues/filters", handlers.SaveFilter)
	router.Get("/issues/filters/export", handlers.ExportFilters)
	router.Post("/issues/filters/{id}/delete", handlers.DeleteFilter)

	return nil
}
