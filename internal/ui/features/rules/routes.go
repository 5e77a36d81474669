// Package rules manages the organization's quality rule catalog.
package rules

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the rules feature routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/rules", handlers.RulesPage)
	router.Get("/rules/updates", handlers.RulesPageUpdates)
	router.Get("/rules/new", handlers.NewRulePage)
	router.Post("/rules", handlers.Create)
	router.Get("/rules/{id}/edit", handlers.EditRulePage)
	router.Post("/rules/{id}", handlers.Update)
	router.Post("/rules/{id}/toggle", handlers.Toggle)
	router.Post("/rules/{id}/delete", handlers.Delete)

	return nil
}
