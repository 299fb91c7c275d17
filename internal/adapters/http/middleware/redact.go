package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mentana/user-service/internal/platform/logging"
)

// RedactHeaders converts an http.Header map into slog.Attr values for
// structured logging. Headers named in logging.SensitiveHeaders are replaced
// with "[REDACTED]"; everything else passes through, multi-value headers
// joined with a comma. The set lives in the logging package so this layer
// and the masq handler cannot drift apart.
func RedactHeaders(headers http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(headers))
	for key, vals := range headers {
		if logging.SensitiveHeaders[strings.ToLower(key)] {
			attrs = append(attrs, slog.String(key, "[REDACTED]"))
		} else {
			attrs = append(attrs, slog.String(key, strings.Join(vals, ",")))
		}
	}
	return attrs
}
