package middleware

import (
	"net/http"
	"net/url"
	"regexp"

	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/security"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
)

// MsgRejected is the generic answer to screened requests.
const MsgRejected = "Solicitud rechazada"

// Suspicious activity kinds raised by the edge.
const (
	KindSuspiciousURL  = "SUSPICIOUS_URL_PATTERN"
	KindCSRFMismatch   = "CSRF_ORIGIN_MISMATCH"
	KindUploadTooLarge = "FILE_TOO_LARGE"
)

// suspiciousURLPatterns are checked against the full request URL in order.
var suspiciousURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\./|\.\.\\`),
	regexp.MustCompile(`(?i)<script|javascript:|onerror=|onload=`),
	regexp.MustCompile(`(?i)union.*select|insert.*into|drop.*table`),
	regexp.MustCompile(`(?i)eval\(|exec\(|system\(`),
	regexp.MustCompile(`(?i)cmd\.exe|powershell|bash`),
}

// fullURL rebuilds scheme://host/path?query as the client sent it.
func fullURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// unescaped returns s percent-decoded, or s when it does not decode.
func unescaped(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}

// ThreatScreen rejects requests whose URL carries traversal, script, SQL or
// shell signatures, then runs the detector over the query string. Both the
// raw and the percent-decoded forms are screened.
func ThreatScreen(detector security.ThreatDetector, log *seclog.Logger, ips *clientip.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := fullURL(r)
			decoded := unescaped(raw)
			for _, p := range suspiciousURLPatterns {
				if p.MatchString(raw) || p.MatchString(decoded) {
					log.SuspiciousActivity(KindSuspiciousURL, ips.IP(r), r.URL.Path, map[string]any{
						"pattern": p.String(),
						"url":     raw,
					})
					guard.WriteError(w, http.StatusBadRequest, MsgRejected)
					return
				}
			}

			if r.URL.RawQuery != "" {
				query := "?" + r.URL.RawQuery
				plain := unescaped(query)
				switch {
				case detector.LooksLikeSQLInjection(query) || detector.LooksLikeSQLInjection(plain):
					log.SQLInjectionAttempt(ips.IP(r), plain, r.URL.Path)
					guard.WriteError(w, http.StatusBadRequest, MsgRejected)
					return
				case detector.LooksLikeXSS(query) || detector.LooksLikeXSS(plain):
					log.XSSAttempt(ips.IP(r), plain, r.URL.Path)
					guard.WriteError(w, http.StatusBadRequest, MsgRejected)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
