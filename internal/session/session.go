// Package session reconstructs the logged-in principal from the browser's
// cookie store. No network call validates the pair; the API rejects stale or
// forged tokens per request, and a malformed cookie degrades to "no session".
package session

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"taskstation/internal/backend"
)

// Cookie cells owned by the console.
const (
	CookieToken       = "access_token"
	CookieUser        = "user"
	CookieLastCompany = "last_company_id"
)

const (
	sessionMaxAge     = 7 * 24 * time.Hour
	lastCompanyMaxAge = 30 * 24 * time.Hour
)

// Session is the client-held principal: an opaque bearer token plus a cached
// user snapshot. The snapshot refreshes only at login, first-access
// completion, or password reset, so it can lag behind the API.
type Session struct {
	Token string
	User  backend.SessionUser
}

// FromRequest rebuilds the session from the two cookie cells. Both must be
// present and the snapshot must parse, otherwise the session is absent; a
// half-valid pair never yields a partial session.
func FromRequest(r *http.Request) *Session {
	tokenCookie, err := r.Cookie(CookieToken)
	if err != nil || tokenCookie.Value == "" {
		return nil
	}
	userCookie, err := r.Cookie(CookieUser)
	if err != nil || userCookie.Value == "" {
		return nil
	}

	raw, err := url.QueryUnescape(userCookie.Value)
	if err != nil {
		return nil
	}
	var user backend.SessionUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}

	return &Session{Token: tokenCookie.Value, User: user}
}

// Writer sets and clears the console's cookie cells. Secure mirrors the
// deployment environment; SameSite stays Lax so top-level navigations from
// magic-link emails still carry the session.
type Writer struct {
	Secure bool
}

// Issue writes a fresh token + snapshot pair, both with the 7-day expiry.
func (cw Writer) Issue(w http.ResponseWriter, payload backend.SessionPayload) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieToken,
		Value:    payload.AccessToken,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	cw.SetUser(w, payload.User)
}

// SetUser rewrites only the snapshot cell. The value is URL-escaped JSON: the
// snapshot is readable client-side, unlike the http-only token.
func (cw Writer) SetUser(w http.ResponseWriter, user backend.SessionUser) {
	encoded, err := json.Marshal(user)
	if err != nil {
		// SessionUser marshalling cannot fail; keep the old snapshot if it somehow does.
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieUser,
		Value:    url.QueryEscape(string(encoded)),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: false,
		Secure:   cw.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetLastCompany records the company preference consulted by the dashboard
// landing tie-break.
func (cw Writer) SetLastCompany(w http.ResponseWriter, companyID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieLastCompany,
		Value:    companyID,
		Path:     "/",
		MaxAge:   int(lastCompanyMaxAge.Seconds()),
		HttpOnly: false,
		Secure:   cw.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear drops the session pair. Destruction is purely local: the token stays
// valid against the API until its own expiry.
func (cw Writer) Clear(w http.ResponseWriter) {
	for _, name := range []string{CookieToken, CookieUser} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   cw.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// LastCompanyID reads the company preference cell, empty when absent.
func LastCompanyID(r *http.Request) string {
	cookie, err := r.Cookie(CookieLastCompany)
	if err != nil {
		return ""
	}
	return cookie.Value
}
