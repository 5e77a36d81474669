// Package auth provides sign-in, registration, sign-out and organization
// switching for the console.
package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
)

// SetupRoutes registers the auth feature routes.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/", handlers.LandingPage)
	router.Get("/auth/login", handlers.LoginPage)
	router.Post("/auth/login", handlers.Login)
	router.Get("/auth/register", handlers.RegisterPage)
	router.Post("/auth/register", handlers.Register)
	router.Post("/auth/logout", handlers.Logout)
	router.Post("/auth/switch-organization", handlers.SwitchOrganization)

	return nil
}
