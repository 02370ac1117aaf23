// Package handler serves the superadmin panel: tenant management, platform
// users, credential recovery links and the operator's own profile. Every page
// here is gated on the superuser flag; the API re-checks on each call.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskstation/internal/backend"
	"taskstation/internal/gate"
	"taskstation/internal/platform/metrics"
	"taskstation/internal/platform/middleware"
	"taskstation/internal/session"
	"taskstation/internal/superadmin/models"
	"taskstation/pkg/platform/httputil"
)

const (
	msgConnError       = "Erro ao conectar com o servidor"
	msgNotAuthed       = "Não autenticado"
	msgNothingToChange = "Nenhum campo foi alterado"

	pathCompanies = "/superadmin/empresas"
	pathUsers     = "/superadmin/usuarios"
	pathProfile   = "/superadmin/perfil"
)

// Handler serves the superadmin pages and actions.
type Handler struct {
	api     *backend.Client
	cookies session.Writer
	access  *gate.Gate
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates the superadmin handler.
func New(api *backend.Client, cookies session.Writer, access *gate.Gate, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		api:     api,
		cookies: cookies,
		access:  access,
		logger:  logger,
		metrics: m,
	}
}

// Register mounts the superadmin routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/superadmin", func(r chi.Router) {
		r.Get("/empresas", h.HandleCompaniesPage)
		r.Post("/empresas", h.HandleCreateCompany)
		r.Get("/empresas/{companyId}", h.HandleCompanyDetailPage)
		r.Patch("/empresas/{companyId}", h.HandleUpdateCompany)
		r.Delete("/empresas/{companyId}", h.HandleDeleteCompany)
		r.Patch("/empresas/{companyId}/inativar", h.HandleDeactivateCompany)
		r.Patch("/empresas/{companyId}/membros/{membershipId}/inativar", h.HandleDeactivateMembership)
		r.Patch("/empresas/{companyId}/membros/{membershipId}/revogar", h.HandleRevokeCompanyAdmin)

		r.Get("/usuarios", h.HandleUsersPage)
		r.Get("/usuarios/{userId}", h.HandleUserDetailPage)
		r.Patch("/usuarios/{userId}", h.HandleUpdateUser)
		r.Patch("/usuarios/{userId}/status", h.HandleUpdateUserStatus)
		r.Post("/usuarios/{userId}/invalidar-credenciais", h.HandleInvalidateCredentials)
		r.Get("/usuarios/{userId}/magic-link", h.HandleGetMagicLink)

		r.Get("/perfil", h.HandleProfilePage)
		r.Patch("/perfil", h.HandleUpdateProfile)
	})
}

func (h *Handler) revalidate(r *http.Request, path string) {
	if h.metrics != nil {
		h.metrics.IncrementViewsRevalidated(path)
	}
	h.logger.InfoContext(r.Context(), "view revalidated",
		"path", path,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}

// requireAction guards a mutation: unlike pages, actions answer the form
// instead of redirecting, so a missing session becomes a form error.
func (h *Handler) requireAction(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgNotAuthed)
		return nil, false
	}
	return sess, true
}

// HandleCompaniesPage lists tenants with pagination and search passthrough.
func (h *Handler) HandleCompaniesPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireSuperuser(w, r)
	if !ok {
		return
	}
	query, page := httputil.ListQuery(r)

	var list models.CompanyList
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_list_companies",
		Method:    http.MethodGet,
		Path:      "/api/v1/superadmin/empresas",
		Query:     query,
		Token:     sess.Token,
	}, &list)
	if err != nil {
		list = models.CompanyList{Data: []models.Company{}}
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":      "superadmin_companies",
		"companies": list.Data,
		"total":     list.Total,
		"page":      page,
		"limit":     httputil.PageLimit,
	})
}

// HandleCompanyDetailPage shows one tenant and its admins. A 404 from the API
// renders a not-found view; any other failure falls back to the listing.
func (h *Handler) HandleCompanyDetailPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireSuperuser(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")

	var detail models.CompanyDetail
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_company_detail",
		Method:    http.MethodGet,
		Path:      "/api/v1/superadmin/empresas/" + companyID,
		Token:     sess.Token,
	}, &detail)
	if err != nil {
		if backend.IsStatus(err, http.StatusNotFound) {
			w.Header().Set("Cache-Control", "no-store")
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"view": "not_found"})
			return
		}
		h.access.Redirect(w, r, pathCompanies)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":    "superadmin_company_detail",
		"company": detail,
	})
}

// HandleCreateCompany creates a tenant and its first admin in one step.
func (h *Handler) HandleCreateCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}

	req := models.CreateCompanyRequest{
		LegalName:  httputil.FormValue(r, "legalName"),
		TradeName:  httputil.FormValue(r, "tradeName"),
		Document:   httputil.FormValue(r, "document"),
		AdminName:  httputil.FormValue(r, "adminName"),
		AdminEmail: httputil.FormValue(r, "adminEmail"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_create_company",
		Method:    http.MethodPost,
		Path:      "/api/v1/superadmin/empresas",
		Token:     sess.Token,
		Body:      req,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao criar empresa"))
		return
	}

	h.revalidate(r, pathCompanies)
	httputil.WriteActionSuccess(w)
}

// HandleUpdateCompany patches tenant fields. An all-blank form short-circuits
// without touching the API.
func (h *Handler) HandleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")

	req := models.UpdateCompanyRequest{
		LegalName: httputil.FormValue(r, "legalName"),
		TradeName: httputil.FormValue(r, "tradeName"),
		Document:  httputil.FormValue(r, "document"),
	}
	if req.Empty() {
		httputil.WriteActionError(w, msgNothingToChange)
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_update_company",
		Method:    http.MethodPatch,
		Path:      "/api/v1/superadmin/empresas/" + companyID,
		Token:     sess.Token,
		Body:      req,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao atualizar empresa"))
		return
	}

	h.revalidate(r, pathCompanies)
	h.revalidate(r, pathCompanies+"/"+companyID)
	httputil.WriteActionSuccess(w)
}

// HandleDeleteCompany removes a tenant permanently.
func (h *Handler) HandleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_delete_company",
		Method:    http.MethodDelete,
		Path:      "/api/v1/superadmin/empresas/" + companyID,
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao excluir empresa"))
		return
	}

	h.revalidate(r, pathCompanies)
	httputil.WriteActionSuccess(w)
}

// HandleDeactivateCompany flags a tenant inactive without deleting it.
func (h *Handler) HandleDeactivateCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_deactivate_company",
		Method:    http.MethodPatch,
		Path:      "/api/v1/superadmin/empresas/" + companyID + "/inativar",
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao inativar empresa"))
		return
	}

	h.revalidate(r, pathCompanies)
	h.revalidate(r, pathCompanies+"/"+companyID)
	httputil.WriteActionSuccess(w)
}

// HandleDeactivateMembership deactivates one admin membership of a tenant.
func (h *Handler) HandleDeactivateMembership(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")
	membershipID := chi.URLParam(r, "membershipId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_deactivate_membership",
		Method:    http.MethodPatch,
		Path:      "/api/v1/superadmin/empresas/" + companyID + "/membros/" + membershipID + "/inativar",
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao inativar administrador"))
		return
	}

	h.revalidate(r, pathCompanies+"/"+companyID)
	httputil.WriteActionSuccess(w)
}

// HandleRevokeCompanyAdmin strips a user's admin role in a tenant. The API
// models the revocation as deactivating the membership, so this rides the
// same upstream call as HandleDeactivateMembership but answers with the
// revoke wording and also refreshes the user detail page.
func (h *Handler) HandleRevokeCompanyAdmin(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")
	membershipID := chi.URLParam(r, "membershipId")
	userID := httputil.FormValue(r, "userId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_revoke_company_admin",
		Method:    http.MethodPatch,
		Path:      "/api/v1/superadmin/empresas/" + companyID + "/membros/" + membershipID + "/inativar",
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao revogar administrador"))
		return
	}

	if userID != "" {
		h.revalidate(r, pathUsers+"/"+userID)
	}
	h.revalidate(r, pathCompanies+"/"+companyID)
	httputil.WriteActionSuccess(w)
}

// HandleUsersPage lists platform users.
func (h *Handler) HandleUsersPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireSuperuser(w, r)
	if !ok {
		return
	}
	query, page := httputil.ListQuery(r)

	var list models.UserList
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_list_users",
		Method:    http.MethodGet,
		Path:      "/api/v1/superadmin/usuarios",
		Query:     query,
		Token:     sess.Token,
	}, &list)
	if err != nil {
		list = models.UserList{Data: []models.User{}}
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":  "superadmin_users",
		"users": list.Data,
		"total": list.Total,
		"page":  page,
		"limit": httputil.PageLimit,
	})
}

// HandleUserDetailPage shows one user. The view carries an isSelf flag so the
// client can hide the deactivate control on the operator's own record.
func (h *Handler) HandleUserDetailPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireSuperuser(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")

	var user models.User
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_user_detail",
		Method:    http.MethodGet,
		Path:      "/api/v1/superadmin/usuarios/" + userID,
		Token:     sess.Token,
	}, &user)
	if err != nil {
		if backend.IsStatus(err, http.StatusNotFound) {
			w.Header().Set("Cache-Control", "no-store")
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"view": "not_found"})
			return
		}
		h.access.Redirect(w, r, pathUsers)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":   "superadmin_user_detail",
		"user":   user,
		"isSelf": user.ID == sess.User.ID,
	})
}

// HandleUpdateUser patches a user with only the fields the form filled in.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")

	req := models.UpdateUserRequest{
		Name:     httputil.FormValue(r, "name"),
		Email:    httputil.FormValue(r, "email"),
		Phone:    httputil.FormValue(r, "phone"),
		Password: httputil.FormValue(r, "password"),
	}
	if req.Empty() {
		httputil.WriteActionError(w, msgNothingToChange)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_update_user",
		Method:    http.MethodPatch,
		Path:      "/api/v1/superadmin/usuarios/" + userID,
		Token:     sess.Token,
		Body:      req,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao atualizar usuário"))
		return
	}

	h.revalidate(r, pathUsers)
	h.revalidate(r, pathUsers+"/"+userID)
	httputil.WriteActionSuccess(w)
}

// HandleUpdateUserStatus toggles a user's active flag.
func (h *Handler) HandleUpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")

	isActive := httputil.FormValue(r, "isActive") == "true"
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_update_user_status",
		Method:    http.MethodPatch,
		Path:      "/api/v1/superadmin/usuarios/" + userID,
		Token:     sess.Token,
		Body:      models.UpdateUserStatusRequest{IsActive: isActive},
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao atualizar usuário"))
		return
	}

	h.revalidate(r, pathUsers)
	h.revalidate(r, pathUsers+"/"+userID)
	httputil.WriteActionSuccess(w)
}

// HandleInvalidateCredentials revokes a user's credentials and returns a fresh
// first-access link for the operator to hand over out of band.
func (h *Handler) HandleInvalidateCredentials(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")

	var result models.MagicLinkResult
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_invalidate_credentials",
		Method:    http.MethodPost,
		Path:      "/api/v1/superadmin/usuarios/" + userID + "/invalidar-credenciais",
		Token:     sess.Token,
	}, &result)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao invalidar credenciais"))
		return
	}

	h.logger.InfoContext(r.Context(), "credentials invalidated",
		"target_user_id", userID,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	h.revalidate(r, pathUsers+"/"+userID)
	httputil.WriteJSON(w, http.StatusOK, httputil.ActionResult{Success: true, Data: result})
}

// HandleGetMagicLink fetches the user's pending first-access link, if any.
func (h *Handler) HandleGetMagicLink(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")

	var result models.MagicLinkResult
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_get_magic_link",
		Method:    http.MethodGet,
		Path:      "/api/v1/superadmin/usuarios/" + userID + "/magic-link",
		Token:     sess.Token,
	}, &result)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao obter magic link"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.ActionResult{Success: true, Data: result})
}

// HandleProfilePage renders the operator's own profile from the API, not from
// the cookie snapshot, so edits made elsewhere show up.
func (h *Handler) HandleProfilePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireSuperuser(w, r)
	if !ok {
		return
	}

	var user models.User
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_profile",
		Method:    http.MethodGet,
		Path:      "/api/v1/superadmin/perfil",
		Token:     sess.Token,
	}, &user)
	if err != nil {
		h.access.Redirect(w, r, gate.PathSuperadminCompanies)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":    "superadmin_profile",
		"profile": user,
	})
}

// HandleUpdateProfile patches the operator's own record. When the email
// changes, the cookie snapshot is refreshed so the header shows the new value.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireAction(w, r)
	if !ok {
		return
	}

	req := models.UpdateProfileRequest{
		Name:            httputil.FormValue(r, "name"),
		Email:           httputil.FormValue(r, "email"),
		Phone:           httputil.FormValue(r, "phone"),
		NewPassword:     httputil.FormValue(r, "newPassword"),
		ConfirmPassword: httputil.FormValue(r, "confirmPassword"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}
	if req.Empty() {
		httputil.WriteActionError(w, msgNothingToChange)
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "superadmin_update_profile",
		Method:    http.MethodPatch,
		Path:      "/api/v1/superadmin/perfil",
		Token:     sess.Token,
		Body:      req,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao atualizar perfil"))
		return
	}

	if req.Email != "" && req.Email != sess.User.Email {
		user := sess.User
		user.Email = req.Email
		h.cookies.SetUser(w, user)
	}

	h.revalidate(r, pathProfile)
	httputil.WriteActionSuccess(w)
}
