// Package reports requests export jobs, proxies their downloads and
// renders the Markdown summary report.
package reports

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the report routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/reports", handlers.ReportsPage)
	router.Get("/reports/updates", handlers.ReportsPageUpdates)
	router.Post("/reports/exports", handlers.CreateExport)
	router.Get("/reports/exports/{id}/download", handlers.Download)
	router.Get("/reports/markdown", handlers.DownloadMarkdown)

	return nil
}
