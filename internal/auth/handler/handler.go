// Package handler owns the pre-session surface: login, logout, the
// forgot/reset password pair, and the magic-link first-access flow. These are
// the only handlers allowed to issue or destroy the session cookie pair.
package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"taskstation/internal/auth/models"
	"taskstation/internal/backend"
	"taskstation/internal/gate"
	"taskstation/internal/platform/metrics"
	"taskstation/internal/platform/middleware"
	"taskstation/internal/session"
	"taskstation/pkg/platform/httputil"
)

const msgConnError = "Erro ao conectar com o servidor"

// Handler serves the authentication pages and actions.
type Handler struct {
	api     *backend.Client
	cookies session.Writer
	access  *gate.Gate
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates the auth handler.
func New(api *backend.Client, cookies session.Writer, access *gate.Gate, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		api:     api,
		cookies: cookies,
		access:  access,
		logger:  logger,
		metrics: m,
	}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/login", h.HandleLoginPage)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Get("/forgot-password", h.HandleForgotPasswordPage)
	r.Post("/forgot-password", h.HandleForgotPassword)
	r.Get("/reset-password", h.HandleResetPasswordPage)
	r.Post("/reset-password", h.HandleConfirmResetPassword)
	r.Get("/first-access", h.HandleFirstAccessPage)
	r.Post("/first-access", h.HandleFirstAccessConsume)
	r.Post("/first-access/password", h.HandleResetPassword)
}

// HandleLoginPage renders the login form shell.
func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"view":  "login",
		"reset": r.URL.Query().Get("reset"),
	})
}

// HandleLogin validates credentials locally, exchanges them at the API, and
// issues the session cookie pair. Any rejection surfaces a fixed message:
// the backend's wording never leaks which part of the credentials failed.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req := models.LoginRequest{
		Email:    httputil.FormValue(r, "email"),
		Password: r.PostFormValue("password"),
	}
	if err := req.Validate(); err != nil {
		h.metrics.IncrementLoginAttempts("invalid")
		httputil.WriteActionError(w, err.Error())
		return
	}

	var payload backend.SessionPayload
	err := h.api.Do(ctx, backend.Request{
		Operation: "login",
		Method:    http.MethodPost,
		Path:      "/api/v1/auth/login",
		Body:      req,
	}, &payload)
	if err != nil {
		if backend.IsUnreachable(err) {
			h.metrics.IncrementLoginAttempts("unreachable")
			httputil.WriteActionError(w, msgConnError)
			return
		}
		h.metrics.IncrementLoginAttempts("rejected")
		h.logger.InfoContext(ctx, "login rejected",
			"request_id", requestID,
		)
		httputil.WriteActionError(w, "Credenciais inválidas")
		return
	}

	h.cookies.Issue(w, payload)
	h.metrics.IncrementLoginAttempts("success")
	h.metrics.IncrementSessionsIssued()
	h.logger.InfoContext(ctx, "session issued",
		"user_id", payload.User.ID,
		"superuser", payload.User.IsSuperuser,
		"device_fingerprint", middleware.GetClientFingerprint(ctx),
		"request_id", requestID,
	)

	switch {
	case payload.User.MustResetPassword:
		http.Redirect(w, r, gate.PathFirstAccess, http.StatusSeeOther)
	case payload.User.IsSuperuser:
		http.Redirect(w, r, gate.PathSuperadminCompanies, http.StatusSeeOther)
	default:
		http.Redirect(w, r, gate.PathDashboard, http.StatusSeeOther)
	}
}

// HandleLogout drops both session cells and returns to login. The token is
// not revoked at the API; it expires on its own schedule.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	h.logger.InfoContext(r.Context(), "session cleared",
		"request_id", middleware.GetRequestID(r.Context()),
	)
	http.Redirect(w, r, gate.PathLogin, http.StatusSeeOther)
}

// HandleForgotPasswordPage renders the forgot-password form shell.
func (h *Handler) HandleForgotPasswordPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"view": "forgot_password"})
}

// HandleForgotPassword always reports success when a response came back,
// whatever the status: the form must not reveal whether the email exists.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	req := models.ForgotPasswordRequest{Email: httputil.FormValue(r, "email")}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "forgot_password",
		Method:    http.MethodPost,
		Path:      "/api/v1/auth/forgot-password",
		Body:      req,
	}, nil)
	if backend.IsUnreachable(err) {
		httputil.WriteActionError(w, msgConnError)
		return
	}

	httputil.WriteActionSuccess(w)
}

// HandleResetPasswordPage renders the emailed-link reset form. Without a
// token there is nothing to reset; the user is sent back to forgot-password.
func (h *Handler) HandleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"view":  "confirm_reset_password",
		"token": token,
	})
}

// HandleConfirmResetPassword consumes an emailed reset token. Token problems
// and backend rejections read the same to the user; only connectivity gets
// distinct wording.
func (h *Handler) HandleConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	token := httputil.FormValue(r, "token")
	if token == "" {
		httputil.WriteActionError(w, "Token inválido ou expirado")
		return
	}

	req := models.ConfirmResetPasswordRequest{
		NewPassword:     r.PostFormValue("newPassword"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "confirm_reset_password",
		Method:    http.MethodPost,
		Path:      "/api/v1/auth/reset-password/" + url.PathEscape(token),
		Body:      req,
	}, nil)
	if err != nil {
		if backend.IsUnreachable(err) {
			httputil.WriteActionError(w, msgConnError)
			return
		}
		httputil.WriteActionError(w, "Token inválido ou expirado")
		return
	}

	http.Redirect(w, r, gate.PathLogin+"?reset=success", http.StatusSeeOther)
}

// HandleFirstAccessPage serves both entries of the first-access flow. With a
// token it probes the magic link and renders either the completion form or
// the invalid-link card, never the form for a dead token. Without one it is
// the forced-reset page for an authenticated session.
func (h *Handler) HandleFirstAccessPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	if token := r.URL.Query().Get("token"); token != "" {
		var probe models.FirstAccessProbe
		err := h.api.Do(r.Context(), backend.Request{
			Operation: "first_access_probe",
			Method:    http.MethodGet,
			Path:      "/api/v1/auth/first-access",
			Query:     url.Values{"token": {token}},
		}, &probe)
		if err != nil {
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"view": "invalid_link"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"view":  "magic_link_first_access",
			"token": token,
			"email": probe.Email,
		})
		return
	}

	sess, ok := h.access.Require(w, r)
	if !ok {
		return
	}
	if !sess.User.MustResetPassword {
		h.access.Redirect(w, r, gate.PathDashboard)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"view":  "reset_password",
		"email": sess.User.Email,
	})
}

// HandleFirstAccessConsume completes a magic link: the API invalidates the
// token and answers with a fresh session, persisted here as cookies.
func (h *Handler) HandleFirstAccessConsume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := httputil.FormValue(r, "token")
	if token == "" {
		httputil.WriteActionError(w, "Token inválido ou expirado")
		return
	}

	req := models.FirstAccessRequest{
		Name:            httputil.FormValue(r, "name"),
		NewPassword:     r.PostFormValue("newPassword"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}

	var payload backend.SessionPayload
	err := h.api.Do(ctx, backend.Request{
		Operation: "first_access_consume",
		Method:    http.MethodPost,
		Path:      "/api/v1/auth/first-access",
		Query:     url.Values{"token": {token}},
		Body:      req,
	}, &payload)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Token inválido ou expirado"))
		return
	}

	h.cookies.Issue(w, payload)
	h.metrics.IncrementSessionsIssued()
	h.logger.InfoContext(ctx, "first access completed",
		"user_id", payload.User.ID,
		"device_fingerprint", middleware.GetClientFingerprint(ctx),
		"request_id", middleware.GetRequestID(ctx),
	)
	http.Redirect(w, r, gate.PathDashboard, http.StatusSeeOther)
}

// HandleResetPassword is the authenticated reset posted from the forced
// first-access page. On success the cached snapshot's mustResetPassword flag
// flips to false without a re-login.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	req := models.ResetPasswordRequest{
		Name:            httputil.FormValue(r, "name"),
		NewPassword:     r.PostFormValue("newPassword"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}

	tokenCookie, err := r.Cookie(session.CookieToken)
	if err != nil || tokenCookie.Value == "" {
		http.Redirect(w, r, gate.PathLogin, http.StatusSeeOther)
		return
	}

	err = h.api.Do(r.Context(), backend.Request{
		Operation: "reset_password",
		Method:    http.MethodPost,
		Path:      "/api/v1/auth/reset-password",
		Token:     tokenCookie.Value,
		Body:      req,
	}, nil)
	if err != nil {
		if backend.IsUnreachable(err) {
			httputil.WriteActionError(w, msgConnError)
			return
		}
		httputil.WriteActionError(w, "Erro ao redefinir senha")
		return
	}

	if sess := session.FromRequest(r); sess != nil {
		user := sess.User
		user.MustResetPassword = false
		h.cookies.SetUser(w, user)
	}

	http.Redirect(w, r, gate.PathDashboard, http.StatusSeeOther)
}
