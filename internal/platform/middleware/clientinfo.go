package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type clientFingerprintKey struct{}

// ClientInfo pre-computes a coarse device fingerprint from the User-Agent and
// injects it into the request context. Session-issuing handlers log it so
// operators can correlate credential events with the browser that produced them.
//
// Note: does NOT include the IP address (too volatile; logged separately).
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fingerprint := ComputeFingerprint(r.UserAgent())
		ctx := context.WithValue(r.Context(), clientFingerprintKey{}, fingerprint)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientFingerprint retrieves the device fingerprint from the context.
func GetClientFingerprint(ctx context.Context) string {
	if fp, ok := ctx.Value(clientFingerprintKey{}).(string); ok {
		return fp
	}
	return ""
}

// ComputeFingerprint hashes browser family, major version, OS, and platform
// class into a stable identifier. Full User-Agent strings are never logged.
func ComputeFingerprint(userAgentString string) string {
	if userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)
	browser, version := ua.Browser()

	majorVersion := "unknown"
	if version != "" {
		parts := strings.Split(version, ".")
		if len(parts) > 0 && parts[0] != "" {
			majorVersion = parts[0]
		}
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}

	raw := fmt.Sprintf("%s|%s|%s|%s", browser, majorVersion, ua.OS(), platform)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
