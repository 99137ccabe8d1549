package middleware

import (
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
)

// DefaultUploadLimit is the multipart ceiling checked before any body is read.
const DefaultUploadLimit int64 = 10 << 20

// MsgUploadTooLarge answers an oversized upload.
const MsgUploadTooLarge = "Archivo demasiado grande (máx 10MB)"

// UploadSizeLimit rejects multipart requests under an /upload path whose
// declared Content-Length exceeds maxBytes, before the body is consumed.
// The per-file limit is enforced again by the upload handler.
func UploadSizeLimit(maxBytes int64, log *seclog.Logger, ips *clientip.Resolver) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadLimit
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.URL.Path, "/upload") ||
				!strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > maxBytes {
				log.SuspiciousActivity(KindUploadTooLarge, ips.IP(r), r.URL.Path, map[string]any{
					"size":    r.ContentLength,
					"maxSize": maxBytes,
				})
				guard.WriteError(w, http.StatusRequestEntityTooLarge, MsgUploadTooLarge)
				return
			}

			// Chunked bodies carry no Content-Length
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
