// Package common provides shared types and utilities for UI features.
package common

import (
	"log/slog"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/prefs"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/query"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ratelimit"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/notifier"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// Deps bundles what every feature's handlers need. The router builds one
// and hands it to each feature's SetupRoutes.
type Deps struct {
	Queries   *query.Queries
	Mutations *query.Mutations
	Sessions  *session.Manager
	Notifier  *notifier.Notifier
	Views     *views.Engine
	Prefs     *prefs.Store
	Limiter   ratelimit.Limiter
	Logger    *slog.Logger
	Dev       bool
}
