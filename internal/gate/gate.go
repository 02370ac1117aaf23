// Package gate decides, per protected page, whether the requester may see it.
// Every denial is a redirect to a canonical fallback, never an error banner:
// expired or insufficient sessions are handled by navigation. Any backend
// fetch failure while gating is a denial: the gate fails closed.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"taskstation/internal/backend"
	"taskstation/internal/platform/metrics"
	"taskstation/internal/platform/middleware"
	"taskstation/internal/session"
)

// Canonical fallback locations.
const (
	PathLogin               = "/login"
	PathFirstAccess         = "/first-access"
	PathDashboard           = "/dashboard"
	PathSuperadminCompanies = "/superadmin/empresas"
	PathCompanySelector     = "/empresa/selecionar"
)

// CompanyWorkspacesPath is a company's default page.
func CompanyWorkspacesPath(companyID string) string {
	return "/empresa/" + companyID + "/workspaces"
}

// CompanyMembersPath is the admin-only members page of a company.
func CompanyMembersPath(companyID string) string {
	return "/empresa/" + companyID + "/membros"
}

//go:generate mockgen -source=gate.go -destination=mocks/mocks.go -package=mocks CompanyDirectory

// CompanyDirectory lists the caller's company memberships. Satisfied by
// *backend.Client; narrowed here so gate tests can mock it.
type CompanyDirectory interface {
	MyCompanies(ctx context.Context, token string) ([]backend.CompanyMembership, error)
}

// ErrNoAccess means the memberships were fetched but the company is not among
// them (or the role is insufficient for the page).
var ErrNoAccess = errors.New("no access to company")

// Gate evaluates page access for a resolved session.
type Gate struct {
	directory CompanyDirectory
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a gate backed by the given membership directory.
func New(directory CompanyDirectory, logger *slog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{directory: directory, logger: logger, metrics: m}
}

// Redirect issues the gate's terminal "redirect(target)" state.
func (g *Gate) Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if g.metrics != nil {
		g.metrics.IncrementGateRedirects(target)
	}
	g.logger.InfoContext(r.Context(), "gate redirect",
		"from", r.URL.Path,
		"to", target,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Require resolves the session or redirects to login.
func (g *Gate) Require(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := session.FromRequest(r)
	if sess == nil {
		g.Redirect(w, r, PathLogin)
		return nil, false
	}
	return sess, true
}

// RequireCompleted additionally forces pending first-access users to the
// first-access page. Every protected page except first-access itself goes
// through here, superusers included.
func (g *Gate) RequireCompleted(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := g.Require(w, r)
	if !ok {
		return nil, false
	}
	if sess.User.MustResetPassword {
		g.Redirect(w, r, PathFirstAccess)
		return nil, false
	}
	return sess, true
}

// RequireSuperuser gates the superadmin panel.
func (g *Gate) RequireSuperuser(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := g.RequireCompleted(w, r)
	if !ok {
		return nil, false
	}
	if !sess.User.IsSuperuser {
		g.Redirect(w, r, PathDashboard)
		return nil, false
	}
	return sess, true
}

// ResolveCompany re-fetches the caller's memberships and returns the entry for
// companyID. This runs on every company-scoped render so that removal from a
// company is effective immediately, whatever the cached snapshot claims.
func (g *Gate) ResolveCompany(ctx context.Context, sess *session.Session, companyID string) (*backend.CompanyMembership, error) {
	companies, err := g.directory.MyCompanies(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].CompanyID == companyID {
			return &companies[i], nil
		}
	}
	return nil, ErrNoAccess
}

// CompanyAccess is ResolveCompany with the terminal redirect applied: fetch
// failure and missing membership both land on the dashboard.
func (g *Gate) CompanyAccess(w http.ResponseWriter, r *http.Request, sess *session.Session, companyID string) (*backend.CompanyMembership, bool) {
	membership, err := g.ResolveCompany(r.Context(), sess, companyID)
	if err != nil {
		g.Redirect(w, r, PathDashboard)
		return nil, false
	}
	return membership, true
}

// RequireCompanyAdmin gates admin-only company pages: members of the company
// without the admin role land on the company's default page.
func (g *Gate) RequireCompanyAdmin(w http.ResponseWriter, r *http.Request, sess *session.Session, companyID string) (*backend.CompanyMembership, bool) {
	membership, ok := g.CompanyAccess(w, r, sess, companyID)
	if !ok {
		return nil, false
	}
	if membership.Role != backend.RoleAdmin {
		g.Redirect(w, r, CompanyWorkspacesPath(companyID))
		return nil, false
	}
	return membership, true
}

// Landing resolves the dashboard tie-break. The ordering is load-bearing:
// several conditions can hold at once and the first one wins.
func Landing(isSuperuser bool, companies []backend.CompanyMembership, lastCompanyID string) string {
	if isSuperuser && len(companies) == 0 {
		return PathSuperadminCompanies
	}
	if lastCompanyID != "" {
		for _, c := range companies {
			if c.CompanyID == lastCompanyID {
				return CompanyWorkspacesPath(lastCompanyID)
			}
		}
	}
	if len(companies) == 1 {
		return CompanyWorkspacesPath(companies[0].CompanyID)
	}
	return PathCompanySelector
}
