package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"taskstation/internal/backend"
	"taskstation/internal/gate"
	"taskstation/internal/session"
	"taskstation/pkg/platform/httputil"
)

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	backend *httptest.Server

	apiHandler http.HandlerFunc
}

func (s *HandlerSuite) SetupTest() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}
	s.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.apiHandler(w, r)
	}))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	api := backend.New(s.backend.URL, 0, logger, nil)
	access := gate.New(api, logger, nil)
	h := New(api, session.Writer{}, access, logger, nil)

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.backend.Close()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) withSession(req *http.Request, user backend.SessionUser) *http.Request {
	rec := httptest.NewRecorder()
	session.Writer{}.Issue(rec, backend.SessionPayload{AccessToken: "tok-123", User: user})
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func (s *HandlerSuite) superuser() backend.SessionUser {
	return backend.SessionUser{ID: "u-super", Email: "root@example.com", IsSuperuser: true}
}

func (s *HandlerSuite) getPage(path string) *httptest.ResponseRecorder {
	req := s.withSession(httptest.NewRequest(http.MethodGet, path, nil), s.superuser())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) doForm(method, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.withSession(req, s.superuser())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) actionResult(rec *httptest.ResponseRecorder) httputil.ActionResult {
	var result httputil.ActionResult
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func (s *HandlerSuite) TestCompaniesPage_NonSuperuserBounced() {
	req := s.withSession(
		httptest.NewRequest(http.MethodGet, "/superadmin/empresas", nil),
		backend.SessionUser{ID: "u-1"},
	)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusSeeOther, rec.Code)
	assert.Equal(s.T(), gate.PathDashboard, rec.Header().Get("Location"))
}

func (s *HandlerSuite) TestCompaniesPage_FilterPassthrough() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), "/api/v1/superadmin/empresas", r.URL.Path)
		assert.Equal(s.T(), "acme", r.URL.Query().Get("search"))
		assert.Equal(s.T(), "true", r.URL.Query().Get("isActive"))
		assert.Equal(s.T(), "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"data":[],"total":0}`))
	}

	rec := s.getPage("/superadmin/empresas?search=acme&isActive=true&page=2")

	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "no-store", rec.Header().Get("Cache-Control"))
}

func (s *HandlerSuite) TestCompaniesPage_AllFilterIsDropped() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.False(s.T(), r.URL.Query().Has("isActive"),
			`"all" means no filter upstream`)
		_, _ = w.Write([]byte(`{"data":[],"total":0}`))
	}

	rec := s.getPage("/superadmin/empresas?isActive=all")

	assert.Equal(s.T(), http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestCompanyDetailPage_NotFound() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}

	rec := s.getPage("/superadmin/empresas/c-9")

	var view map[string]string
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(s.T(), "not_found", view["view"])
}

func (s *HandlerSuite) TestCompanyDetailPage_OtherFailureFallsBackToList() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	rec := s.getPage("/superadmin/empresas/c-9")

	assert.Equal(s.T(), http.StatusSeeOther, rec.Code)
	assert.Equal(s.T(), pathCompanies, rec.Header().Get("Location"))
}

func (s *HandlerSuite) TestCreateCompany_Validation() {
	rec := s.doForm(http.MethodPost, "/superadmin/empresas", url.Values{
		"legalName":  {"Acme Ltda"},
		"document":   {"12345678000190"},
		"adminName":  {"A"},
		"adminEmail": {"ana@example.com"},
	})

	assert.Equal(s.T(), "Mínimo 2 caracteres", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestCreateCompany_NoSession() {
	req := httptest.NewRequest(http.MethodPost, "/superadmin/empresas", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(s.T(), "Não autenticado", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestUpdateCompany_NothingToChange() {
	called := false
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) { called = true }

	rec := s.doForm(http.MethodPatch, "/superadmin/empresas/c-1", url.Values{})

	assert.Equal(s.T(), "Nenhum campo foi alterado", s.actionResult(rec).Error)
	assert.False(s.T(), called)
}

func (s *HandlerSuite) TestUpdateCompany_SparsePayload() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(s.T(), json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(s.T(), map[string]string{"legalName": "Acme Nova Ltda"}, body,
			"untouched fields must be absent from the payload")
		w.WriteHeader(http.StatusOK)
	}

	rec := s.doForm(http.MethodPatch, "/superadmin/empresas/c-1", url.Values{
		"legalName": {"Acme Nova Ltda"},
	})

	assert.True(s.T(), s.actionResult(rec).Success)
}

func (s *HandlerSuite) TestDeactivateMembership_FallbackMessage() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), "/api/v1/superadmin/empresas/c-1/membros/m-1/inativar", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
	}

	rec := s.doForm(http.MethodPatch, "/superadmin/empresas/c-1/membros/m-1/inativar", url.Values{})

	assert.Equal(s.T(), "Erro ao inativar administrador", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestRevokeCompanyAdmin_DeactivatesMembership() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), http.MethodPatch, r.Method)
		assert.Equal(s.T(), "/api/v1/superadmin/empresas/c-1/membros/m-1/inativar", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}

	rec := s.doForm(http.MethodPatch, "/superadmin/empresas/c-1/membros/m-1/revogar", url.Values{
		"userId": {"u-7"},
	})

	assert.True(s.T(), s.actionResult(rec).Success)
}

func (s *HandlerSuite) TestRevokeCompanyAdmin_FallbackMessage() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}

	rec := s.doForm(http.MethodPatch, "/superadmin/empresas/c-1/membros/m-1/revogar", url.Values{})

	assert.Equal(s.T(), "Erro ao revogar administrador", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestUserDetailPage_IsSelf() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u-super","name":"Root","email":"root@example.com","isActive":true,"isSuperuser":true}`))
	}

	rec := s.getPage("/superadmin/usuarios/u-super")

	var view struct {
		View   string `json:"view"`
		IsSelf bool   `json:"isSelf"`
	}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(s.T(), "superadmin_user_detail", view.View)
	assert.True(s.T(), view.IsSelf)
}

func (s *HandlerSuite) TestUpdateUser_WeakPassword() {
	rec := s.doForm(http.MethodPatch, "/superadmin/usuarios/u-7", url.Values{
		"password": {"1234567"},
	})

	assert.Equal(s.T(), "A senha deve ter no mínimo 8 caracteres", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestUpdateUser_NothingToChange() {
	rec := s.doForm(http.MethodPatch, "/superadmin/usuarios/u-7", url.Values{})

	assert.Equal(s.T(), "Nenhum campo foi alterado", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestUpdateUserStatus_PatchesUserResource() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), http.MethodPatch, r.Method)
		assert.Equal(s.T(), "/api/v1/superadmin/usuarios/u-7", r.URL.Path)
		var body map[string]any
		require.NoError(s.T(), json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(s.T(), map[string]any{"isActive": false}, body)
		w.WriteHeader(http.StatusOK)
	}

	rec := s.doForm(http.MethodPatch, "/superadmin/usuarios/u-7/status", url.Values{
		"isActive": {"false"},
	})

	assert.True(s.T(), s.actionResult(rec).Success)
}

func (s *HandlerSuite) TestInvalidateCredentials_ReturnsLink() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), http.MethodPost, r.Method)
		assert.Equal(s.T(), "/api/v1/superadmin/usuarios/u-7/invalidar-credenciais", r.URL.Path)
		_, _ = w.Write([]byte(`{"magicLink":"https://console.example.com/first-access?token=abc"}`))
	}

	rec := s.doForm(http.MethodPost, "/superadmin/usuarios/u-7/invalidar-credenciais", url.Values{})

	result := s.actionResult(rec)
	assert.True(s.T(), result.Success)
	data, ok := result.Data.(map[string]any)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "https://console.example.com/first-access?token=abc", data["magicLink"])
}

func (s *HandlerSuite) TestGetMagicLink_NullWhenNonePending() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"magicLink":null}`))
	}

	rec := s.doForm(http.MethodGet, "/superadmin/usuarios/u-7/magic-link", url.Values{})

	result := s.actionResult(rec)
	assert.True(s.T(), result.Success)
	data, ok := result.Data.(map[string]any)
	require.True(s.T(), ok)
	assert.Nil(s.T(), data["magicLink"])
}

func (s *HandlerSuite) TestGetMagicLink_FallbackMessage() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	rec := s.doForm(http.MethodGet, "/superadmin/usuarios/u-7/magic-link", url.Values{})

	assert.Equal(s.T(), "Erro ao obter magic link", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestUpdateProfile_NothingToChange() {
	called := false
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) { called = true }

	rec := s.doForm(http.MethodPatch, "/superadmin/perfil", url.Values{})

	assert.Equal(s.T(), "Nenhum campo foi alterado", s.actionResult(rec).Error)
	assert.False(s.T(), called)
}

func (s *HandlerSuite) TestUpdateProfile_PasswordKeyInPayload() {
	s.apiHandler = func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(s.T(), json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(s.T(), map[string]string{"password": "12345678"}, body,
			"the confirmation never leaves the console and the new password travels as password")
		w.WriteHeader(http.StatusOK)
	}

	rec := s.doForm(http.MethodPatch, "/superadmin/perfil", url.Values{
		"newPassword":     {"12345678"},
		"confirmPassword": {"12345678"},
	})

	assert.True(s.T(), s.actionResult(rec).Success)
}

func (s *HandlerSuite) TestUpdateProfile_MismatchedPasswords() {
	rec := s.doForm(http.MethodPatch, "/superadmin/perfil", url.Values{
		"newPassword":     {"12345678"},
		"confirmPassword": {"87654321"},
	})

	assert.Equal(s.T(), "As senhas não coincidem", s.actionResult(rec).Error)
}

func (s *HandlerSuite) TestUpdateProfile_EmailChangeRefreshesSnapshot() {
	rec := s.doForm(http.MethodPatch, "/superadmin/perfil", url.Values{
		"email": {"nova@example.com"},
	})

	assert.True(s.T(), s.actionResult(rec).Success)

	var snapshot *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieUser {
			snapshot = c
		}
	}
	require.NotNil(s.T(), snapshot, "snapshot must be rewritten on email change")

	raw, err := url.QueryUnescape(snapshot.Value)
	require.NoError(s.T(), err)
	var user backend.SessionUser
	require.NoError(s.T(), json.Unmarshal([]byte(raw), &user))
	assert.Equal(s.T(), "nova@example.com", user.Email)
}
