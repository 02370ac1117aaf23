// Package handler serves the dashboard, the landing hub every login funnels
// through. The page never renders anything itself: it applies the landing
// tie-break and forwards the user to the place they can actually work.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskstation/internal/backend"
	"taskstation/internal/gate"
	"taskstation/internal/session"
)

// Handler serves the root and dashboard pages.
type Handler struct {
	api    *backend.Client
	access *gate.Gate
	logger *slog.Logger
}

// New creates the dashboard handler.
func New(api *backend.Client, access *gate.Gate, logger *slog.Logger) *Handler {
	return &Handler{api: api, access: access, logger: logger}
}

// Register mounts the routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/dashboard", h.HandleDashboard)
}

// HandleRoot sends visitors to login or to the dashboard.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if session.FromRequest(r) == nil {
		http.Redirect(w, r, gate.PathLogin, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, gate.PathDashboard, http.StatusSeeOther)
}

// HandleDashboard applies the landing tie-break. When the memberships cannot
// be fetched the user falls through to the selector, which owns the error
// state for that fetch.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireCompleted(w, r)
	if !ok {
		return
	}

	companies, err := h.api.MyCompanies(r.Context(), sess.Token)
	if err != nil {
		h.access.Redirect(w, r, gate.PathCompanySelector)
		return
	}

	target := gate.Landing(sess.User.IsSuperuser, companies, session.LastCompanyID(r))
	h.access.Redirect(w, r, target)
}
