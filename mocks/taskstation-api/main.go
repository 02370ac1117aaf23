// Mock Task Station API for local console development. Runs the handful of
// endpoints the console calls, backed by fixed in-memory data. "Magic" emails
// and tokens let manual tests drive specific flows without a real backend.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

const (
	defaultPort = "8080"

	validToken      = "mock-access-token"
	firstAccessLink = "first-access-token-123"
)

type user struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	IsSuperuser       bool   `json:"isSuperuser"`
	MustResetPassword bool   `json:"mustResetPassword"`
}

type sessionPayload struct {
	AccessToken string `json:"access_token"`
	User        user   `json:"user"`
}

type companyMembership struct {
	CompanyID string `json:"companyId"`
	LegalName string `json:"legalName"`
	Role      string `json:"role"`
}

// Magic emails:
//
//	admin@example.com  - company admin of two companies
//	super@example.com  - superuser, no memberships
//	reset@example.com  - must complete first access
//
// Every password except "wrongpass" is accepted.
var testUsers = map[string]user{
	"admin@example.com": {ID: "u-1", Email: "admin@example.com"},
	"super@example.com": {ID: "u-2", Email: "super@example.com", IsSuperuser: true},
	"reset@example.com": {ID: "u-3", Email: "reset@example.com", MustResetPassword: true},
}

var memberships = map[string][]companyMembership{
	"u-1": {
		{CompanyID: "c-1", LegalName: "Acme Ltda", Role: "admin"},
		{CompanyID: "c-2", LegalName: "Globex SA", Role: "member"},
	},
}

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/api/v1/health", handleHealth)
	http.HandleFunc("/api/v1/auth/login", handleLogin)
	http.HandleFunc("/api/v1/auth/forgot-password", handleForgotPassword)
	http.HandleFunc("/api/v1/auth/first-access", handleFirstAccess)
	http.HandleFunc("/api/v1/me/empresas", handleMyCompanies)
	http.HandleFunc("/api/v1/", handleCatchAll)

	log.Printf("Mock Task Station API starting on port %s", port)
	log.Printf("Test users: admin@example.com, super@example.com, reset@example.com")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	u, ok := testUsers[body.Email]
	if !ok || body.Password == "wrongpass" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload{AccessToken: validToken, User: u})
}

func handleForgotPassword(w http.ResponseWriter, _ *http.Request) {
	// Real API answers 200 regardless; the console ignores the status anyway.
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func handleFirstAccess(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token != firstAccessLink {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "token not found"})
		return
	}

	u := testUsers["reset@example.com"]
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"email": u.Email})
	case http.MethodPost:
		u.MustResetPassword = false
		writeJSON(w, http.StatusOK, sessionPayload{AccessToken: validToken, User: u})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func handleMyCompanies(w http.ResponseWriter, r *http.Request) {
	u, ok := authenticate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}
	list := memberships[u.ID]
	if list == nil {
		list = []companyMembership{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCatchAll accepts any other authenticated mutation so the console's
// action flows can be exercised end to end.
func handleCatchAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticate(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func authenticate(r *http.Request) (user, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != validToken {
		return user{}, false
	}
	// The mock does not distinguish sessions; admin is the default actor.
	return testUsers["admin@example.com"], true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
