// Package datasets lists, profiles, uploads and deletes the datasets
// under quality control.
package datasets

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the datasets feature routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/datasets", handlers.DatasetsPage)
	router.Get("/datasets/updates", handlers.DatasetsPageUpdates)
	router.Post("/datasets/upload", handlers.Upload)
	router.Get("/datasets/{id}", handlers.DatasetPage)
	router.Post("/datasets/{id}/delete", handlers.Delete)

	return nil
}
