// Package settings manages the organization: memberships, roles and
// invitations.
package settings

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the settings routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/settings", handlers.SettingsPage)
	router.Get("/settings/updates", handlers.SettingsPageUpdates)
	router.Post("/settings/members/{id}/role", handlers.UpdateRole)
	router.Post("/settings/members/{id}/remove", handlers.Remove)
	router.Post("/settings/invites", handlers.Invite)

	return nil
}
