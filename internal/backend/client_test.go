package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(srv.URL, 0, logger, nil), srv
}

func TestDo_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"), "login sends no bearer token")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SessionPayload{
			AccessToken: "tok-123",
			User:        SessionUser{ID: "u-1", Email: "ana@example.com"},
		})
	})

	var payload SessionPayload
	err := client.Do(context.Background(), Request{
		Operation: "login",
		Method:    http.MethodPost,
		Path:      "/api/v1/auth/login",
		Body:      map[string]string{"email": "ana@example.com", "password": "secret"},
	}, &payload)

	require.NoError(t, err)
	assert.Equal(t, "tok-123", payload.AccessToken)
	assert.Equal(t, "u-1", payload.User.ID)
}

func TestDo_BearerTokenAndQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.Do(context.Background(), Request{
		Operation: "list_workspaces",
		Method:    http.MethodGet,
		Path:      "/api/v1/empresa/c-1/workspaces",
		Query:     map[string][]string{"page": {"2"}, "limit": {"20"}},
		Token:     "tok-123",
	}, nil)

	require.NoError(t, err)
}

func TestDo_RejectionCarriesBackendMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Usuário já é administrador"}`))
	})

	err := client.Do(context.Background(), Request{
		Operation: "promote_admin",
		Method:    http.MethodPost,
		Path:      "/api/v1/empresa/c-1/admins",
		Token:     "tok-123",
	}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Usuário já é administrador", apiErr.Message)
}

func TestDo_RejectionWithoutMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream blew up"))
	})

	err := client.Do(context.Background(), Request{
		Operation: "list_members",
		Method:    http.MethodGet,
		Path:      "/api/v1/empresa/c-1/membros",
		Token:     "tok-123",
	}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message, "unparseable error body yields no message")
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	client := New(srv.URL, 0, logger, nil)

	err := client.Do(context.Background(), Request{
		Operation: "login",
		Method:    http.MethodPost,
		Path:      "/api/v1/auth/login",
	}, nil)

	assert.True(t, IsUnreachable(err), "refused connection must map to ConnError")
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		// A degraded backend still counts as reachable.
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	assert.NoError(t, client.Ping(context.Background()))
}

func TestMyCompanies(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/me/empresas", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"companyId":"c-1","legalName":"Acme","role":"admin"}]`))
	})

	companies, err := client.MyCompanies(context.Background(), "tok-123")

	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "c-1", companies[0].CompanyID)
	assert.Equal(t, RoleAdmin, companies[0].Role)
}

func TestMessageOr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "transport failure uses connectivity wording",
			err:  &ConnError{Err: errors.New("dial tcp: refused")},
			want: "conn",
		},
		{
			name: "backend message wins over fallback",
			err:  &APIError{StatusCode: 422, Message: "Documento inválido"},
			want: "Documento inválido",
		},
		{
			name: "empty backend message falls back",
			err:  &APIError{StatusCode: 500},
			want: "fallback",
		},
		{
			name: "unknown error falls back",
			err:  errors.New("boom"),
			want: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageOr(tt.err, "conn", "fallback"))
		})
	}
}
