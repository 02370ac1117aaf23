// Package handler serves the company panel: workspace management for company
// admins and the members surface. Pages verify company membership against the
// API on every render; actions forward to the API, which owns authorization.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"taskstation/internal/backend"
	"taskstation/internal/company/models"
	"taskstation/internal/gate"
	"taskstation/internal/platform/metrics"
	"taskstation/internal/platform/middleware"
	"taskstation/internal/session"
	"taskstation/pkg/platform/httputil"
)

const (
	msgConnError      = "Erro ao conectar com o servidor"
	msgSessionExpired = "Sessão expirada"
)

// Handler serves company-scoped pages and actions.
type Handler struct {
	api     *backend.Client
	cookies session.Writer
	access  *gate.Gate
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates the company handler.
func New(api *backend.Client, cookies session.Writer, access *gate.Gate, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		api:     api,
		cookies: cookies,
		access:  access,
		logger:  logger,
		metrics: m,
	}
}

// Register mounts the company routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/empresa/selecionar", h.HandleSelectCompanyPage)
	r.Post("/empresa/selecionar", h.HandleSelectCompany)

	r.Route("/empresa/{companyId}", func(r chi.Router) {
		r.Get("/workspaces", h.HandleWorkspacesPage)
		r.Post("/workspaces", h.HandleCreateWorkspace)
		r.Patch("/workspaces/{workspaceId}", h.HandleUpdateWorkspace)
		r.Delete("/workspaces/{workspaceId}", h.HandleDeleteWorkspace)
		r.Patch("/workspaces/{workspaceId}/inativar", h.HandleDeactivateWorkspace)
		r.Delete("/workspaces/{workspaceId}/admins/{userId}", h.HandleRevokeWorkspaceAdmin)

		r.Get("/membros", h.HandleMembersPage)
		r.Get("/membros/{userId}/papeis", h.HandleMemberRoles)
		r.Patch("/membros/{userId}", h.HandleUpdateMember)

		r.Post("/admins", h.HandlePromoteAdmin)
		r.Delete("/admins/{userId}", h.HandleRevokeAdmin)
	})
}

// revalidate records that an action invalidated the cached view of a path.
// Pages fetch no-store, so the record is observational: logs and a counter.
func (h *Handler) revalidate(r *http.Request, path string) {
	if h.metrics != nil {
		h.metrics.IncrementViewsRevalidated(path)
	}
	h.logger.InfoContext(r.Context(), "view revalidated",
		"path", path,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}

// HandleSelectCompanyPage renders the company selector. A failed membership
// fetch renders an error state here rather than redirecting: this page is
// itself the gate's fallback location.
func (h *Handler) HandleSelectCompanyPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireCompleted(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")

	companies, err := h.api.MyCompanies(r.Context(), sess.Token)
	if err != nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"view":  "company_selector",
			"error": "Erro ao carregar empresas.",
		})
		return
	}

	if len(companies) == 0 {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"view": "no_company_access"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":      "company_selector",
		"companies": companies,
	})
}

// HandleSelectCompany records the company preference and enters its panel.
func (h *Handler) HandleSelectCompany(w http.ResponseWriter, r *http.Request) {
	companyID := httputil.FormValue(r, "companyId")
	if companyID == "" {
		httputil.WriteActionError(w, "Empresa inválida")
		return
	}
	h.cookies.SetLastCompany(w, companyID)
	http.Redirect(w, r, gate.CompanyWorkspacesPath(companyID), http.StatusSeeOther)
}

// HandleWorkspacesPage lists a company's workspaces. The membership check and
// the data read are independent and issued concurrently; both complete before
// anything renders, and the gate verdict is applied first.
func (h *Handler) HandleWorkspacesPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireCompleted(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")
	query, page := httputil.ListQuery(r)

	var (
		membership *backend.CompanyMembership
		gateErr    error
		list       models.WorkspaceList
		listErr    error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		membership, gateErr = h.access.ResolveCompany(ctx, sess, companyID)
		return nil
	})
	g.Go(func() error {
		listErr = h.api.Do(ctx, backend.Request{
			Operation: "list_workspaces",
			Method:    http.MethodGet,
			Path:      "/api/v1/empresa/" + companyID + "/workspaces",
			Query:     query,
			Token:     sess.Token,
		}, &list)
		return nil
	})
	_ = g.Wait()

	if gateErr != nil {
		h.access.Redirect(w, r, gate.PathDashboard)
		return
	}
	if listErr != nil {
		list = models.WorkspaceList{Data: []models.Workspace{}}
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":       "workspaces",
		"company":    membership,
		"workspaces": list.Data,
		"total":      list.Total,
		"page":       page,
		"limit":      httputil.PageLimit,
	})
}

// HandleCreateWorkspace creates a workspace and assigns its first admin.
func (h *Handler) HandleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")

	req := models.CreateWorkspaceRequest{
		Name:        httputil.FormValue(r, "name"),
		Description: httputil.FormValue(r, "description"),
		AdminEmail:  httputil.FormValue(r, "adminEmail"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteActionError(w, err.Error())
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "create_workspace",
		Method:    http.MethodPost,
		Path:      "/api/v1/empresa/" + companyID + "/workspaces",
		Token:     sess.Token,
		Body:      req,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao criar workspace"))
		return
	}

	h.revalidate(r, gate.CompanyWorkspacesPath(companyID))
	httputil.WriteActionSuccess(w)
}

// HandleUpdateWorkspace patches name/description; blank fields are left alone.
func (h *Handler) HandleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	workspaceID := chi.URLParam(r, "workspaceId")

	req := models.UpdateWorkspaceRequest{
		Name:        httputil.FormValue(r, "name"),
		Description: httputil.FormValue(r, "description"),
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "update_workspace",
		Method:    http.MethodPatch,
		Path:      "/api/v1/empresa/" + companyID + "/workspaces/" + workspaceID,
		Token:     sess.Token,
		Body:      req,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao atualizar workspace"))
		return
	}

	h.revalidate(r, gate.CompanyWorkspacesPath(companyID))
	httputil.WriteActionSuccess(w)
}

// HandleDeleteWorkspace removes a workspace permanently.
func (h *Handler) HandleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	workspaceID := chi.URLParam(r, "workspaceId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "delete_workspace",
		Method:    http.MethodDelete,
		Path:      "/api/v1/empresa/" + companyID + "/workspaces/" + workspaceID,
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao excluir workspace"))
		return
	}

	h.revalidate(r, gate.CompanyWorkspacesPath(companyID))
	httputil.WriteActionSuccess(w)
}

// HandleDeactivateWorkspace flags a workspace inactive without deleting it.
func (h *Handler) HandleDeactivateWorkspace(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	workspaceID := chi.URLParam(r, "workspaceId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "deactivate_workspace",
		Method:    http.MethodPatch,
		Path:      "/api/v1/empresa/" + companyID + "/workspaces/" + workspaceID + "/inativar",
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao inativar workspace"))
		return
	}

	h.revalidate(r, gate.CompanyWorkspacesPath(companyID))
	httputil.WriteActionSuccess(w)
}

// HandleRevokeWorkspaceAdmin strips a user's workspace_admin role.
func (h *Handler) HandleRevokeWorkspaceAdmin(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	workspaceID := chi.URLParam(r, "workspaceId")
	userID := chi.URLParam(r, "userId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "revoke_workspace_admin",
		Method:    http.MethodDelete,
		Path:      "/api/v1/empresa/" + companyID + "/workspaces/" + workspaceID + "/admins/" + userID,
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao revogar admin de workspace"))
		return
	}

	h.revalidate(r, gate.CompanyMembersPath(companyID))
	httputil.WriteActionSuccess(w)
}

// HandleMembersPage lists company members. Admin-only: members holding any
// other role land on the company's workspaces page.
func (h *Handler) HandleMembersPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.access.RequireCompleted(w, r)
	if !ok {
		return
	}
	companyID := chi.URLParam(r, "companyId")
	query, page := httputil.ListQuery(r)

	var (
		membership *backend.CompanyMembership
		gateErr    error
		list       models.MemberList
		listErr    error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		membership, gateErr = h.access.ResolveCompany(ctx, sess, companyID)
		return nil
	})
	g.Go(func() error {
		listErr = h.api.Do(ctx, backend.Request{
			Operation: "list_members",
			Method:    http.MethodGet,
			Path:      "/api/v1/empresa/" + companyID + "/membros",
			Query:     query,
			Token:     sess.Token,
		}, &list)
		return nil
	})
	_ = g.Wait()

	if gateErr != nil {
		h.access.Redirect(w, r, gate.PathDashboard)
		return
	}
	if membership.Role != backend.RoleAdmin {
		h.access.Redirect(w, r, gate.CompanyWorkspacesPath(companyID))
		return
	}
	if listErr != nil {
		list = models.MemberList{Data: []models.Member{}}
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"view":          "members",
		"company":       membership,
		"members":       list.Data,
		"total":         list.Total,
		"page":          page,
		"limit":         httputil.PageLimit,
		"currentUserId": sess.User.ID,
	})
}

// HandleMemberRoles is the read action behind the roles modal.
func (h *Handler) HandleMemberRoles(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	userID := chi.URLParam(r, "userId")

	var roles models.MemberRoles
	err := h.api.Do(r.Context(), backend.Request{
		Operation: "member_roles",
		Method:    http.MethodGet,
		Path:      "/api/v1/empresa/" + companyID + "/membros/" + userID + "/papeis",
		Token:     sess.Token,
	}, &roles)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao buscar papéis"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.ActionResult{Data: roles})
}

// HandleUpdateMember toggles a member's active flag.
func (h *Handler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	userID := chi.URLParam(r, "userId")

	isActive, err := strconv.ParseBool(httputil.FormValue(r, "isActive"))
	if err != nil {
		httputil.WriteActionError(w, "Erro ao atualizar membro")
		return
	}

	err = h.api.Do(r.Context(), backend.Request{
		Operation: "update_member",
		Method:    http.MethodPatch,
		Path:      "/api/v1/empresa/" + companyID + "/membros/" + userID,
		Token:     sess.Token,
		Body:      models.UpdateMemberRequest{IsActive: isActive},
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao atualizar membro"))
		return
	}

	h.revalidate(r, gate.CompanyMembersPath(companyID))
	httputil.WriteActionSuccess(w)
}

// HandlePromoteAdmin grants a member the company admin role.
func (h *Handler) HandlePromoteAdmin(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")

	userID := httputil.FormValue(r, "userId")
	if userID == "" {
		httputil.WriteActionError(w, "Erro ao promover administrador")
		return
	}

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "promote_admin",
		Method:    http.MethodPost,
		Path:      "/api/v1/empresa/" + companyID + "/admins",
		Token:     sess.Token,
		Body:      models.PromoteAdminRequest{UserID: userID},
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao promover administrador"))
		return
	}

	h.revalidate(r, gate.CompanyMembersPath(companyID))
	httputil.WriteActionSuccess(w)
}

// HandleRevokeAdmin strips a user's company admin role.
func (h *Handler) HandleRevokeAdmin(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	if sess == nil {
		httputil.WriteActionError(w, msgSessionExpired)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	userID := chi.URLParam(r, "userId")

	err := h.api.Do(r.Context(), backend.Request{
		Operation: "revoke_admin",
		Method:    http.MethodDelete,
		Path:      "/api/v1/empresa/" + companyID + "/admins/" + userID,
		Token:     sess.Token,
	}, nil)
	if err != nil {
		httputil.WriteActionError(w, backend.MessageOr(err, msgConnError, "Erro ao revogar administrador"))
		return
	}

	h.revalidate(r, gate.CompanyMembersPath(companyID))
	httputil.WriteActionSuccess(w)
}
