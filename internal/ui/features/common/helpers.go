// Package common provides shared types and utilities for UI features.
package common

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/notifier"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/views"
)

// Base assembles the layout data for a page render, draining any queued
// flashes.
func Base(w http.ResponseWriter, r *http.Request, deps Deps, title, active string) views.BaseData {
	sess := session.FromContext(r.Context())
	return views.Base(title, active, sess, deps.Sessions.Flashes(w, r), deps.Dev)
}

// ErrorText turns a failed backend call into the line shown to the user.
// Backend-reported details pass through verbatim; transport and decode
// failures get the fallback.
func ErrorText(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return fallback
}

// HandleUnauthorized restarts the session when the backend rejected the
// token: the cookie is cleared and the user lands back on the login page.
// Returns true when the response was written.
func HandleUnauthorized(w http.ResponseWriter, r *http.Request, sessions *session.Manager, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	_ = sessions.SignOut(w, r)
	http.Redirect(w, r, "/auth/login", http.StatusFound)
	return true
}

// FlashError records a mutation failure for the next page load.
func FlashError(w http.ResponseWriter, r *http.Request, sessions *session.Manager, err error, fallback string) {
	sessions.Flash(w, r, session.FlashError, ErrorText(err, fallback))
}

// RedirectBack returns to the page the form was submitted from, keeping
// its filters. Off-site or absent referers fall back to a known page.
func RedirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := fallback
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		if ref.Host == "" || ref.Host == r.Host {
			target = ref.Path
			if ref.RawQuery != "" {
				target += "?" + ref.RawQuery
			}
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// StreamURL builds the SSE endpoint a list page subscribes to, carrying
// its filters and current page through re-renders.
func StreamURL(base string, params url.Values, page int) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

// RenderPage writes a full page, logging render failures instead of
// leaking them to the client.
func RenderPage(w http.ResponseWriter, r *http.Request, deps Deps, page string, data any) {
	if err := deps.Views.Page(w, page, data); err != nil {
		deps.Logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// StreamUpdates patches a fragment over SSE whenever one of the topics
// fires, until the client disconnects. Render failures are reported to
// the browser console and the stream keeps going.
func StreamUpdates(w http.ResponseWriter, r *http.Request, n *notifier.Notifier, topics []string, render func(ctx context.Context) (string, error)) {
	sse := datastar.NewSSE(w, r)
	updates := n.Subscribe(topics...)
	defer n.Unsubscribe(updates)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			html, err := render(r.Context())
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElements(html); err != nil {
				return
			}
		}
	}
}
