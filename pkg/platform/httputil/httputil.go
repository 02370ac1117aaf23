package httputil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// PageLimit is the page size every listing uses.
const PageLimit = 20

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// ActionResult is the envelope every form action resolves to. Exactly one of
// Error or Success is meaningful; extra per-action data rides in Data.
type ActionResult struct {
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteActionError writes a failed action envelope. Actions always answer 200;
// the error belongs to the form, not to the HTTP exchange.
func WriteActionError(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, ActionResult{Error: message})
}

// WriteActionSuccess writes a successful action envelope.
func WriteActionSuccess(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, ActionResult{Success: true})
}

// FormValue returns a trimmed form field.
func FormValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// ListQuery translates a listing page's URL into the query forwarded upstream.
// page defaults to 1, limit is fixed, search passes through when present and
// isActive passes through unless it is the catch-all "all".
func ListQuery(r *http.Request) (url.Values, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	query := url.Values{}
	if search := r.URL.Query().Get("search"); search != "" {
		query.Set("search", search)
	}
	if isActive := r.URL.Query().Get("isActive"); isActive != "" && isActive != "all" {
		query.Set("isActive", isActive)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(PageLimit))
	return query, page
}
