// Package executions queues quality check runs and follows them to
// completion.
package executions

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the execution routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/executions", handlers.ExecutionsPage)
	router.Get("/executions/updates", handlers.ExecutionsPageUpdates)
	router.Post("/executions", handlers.Create)
	router.Get("/executions/{id}", handlers.ExecutionPage)
	router.Get("/executions/{id}/updates", handlers.ExecutionPageUpdates)
	router.Post("/executions/{id}/cancel", handlers.Cancel)

	return nil
}
