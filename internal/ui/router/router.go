// Package router wires the console's features into one route table.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	authFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/auth"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/common"
	dashboardFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/dashboard"
	datasetsFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/datasets"
	executionsFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/executions"
	issuesFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/issues"
	reportsFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/reports"
	rulesFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/rules"
	settingsFeature "github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/features/settings"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/resources"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/version"
)

// SetupRoutes configures all routes for the console. The session gate is
// installed here so every feature mounts behind the same check, with the
// public allow-list carved out by the middleware itself.
func SetupRoutes(router chi.Router, deps common.Deps) error {
	router.Use(deps.Sessions.RequireSession)

	// Hot reload endpoints for dev mode
	if deps.Dev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok " + version.Version))
	})

	// Feature routes
	if err := authFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := dashboardFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := datasetsFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := rulesFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := executionsFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := issuesFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := reportsFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := settingsFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
