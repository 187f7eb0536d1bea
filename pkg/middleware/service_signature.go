package middleware

import (
	"bytes"
	"io"
	"net/http"

	"rentals/pkg/logger"
	"rentals/pkg/sealer"
)

// RequestMatcher selects the requests a middleware applies to.
type RequestMatcher func(r *http.Request) bool

// ServiceSignatureVerification rejects matched requests whose body is not
// signed with secret. An empty secret disables the check; a nil matcher
// applies it to every request.
func ServiceSignatureVerification(secret string, matches RequestMatcher, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matches != nil && !matches(r) {
				next.ServeHTTP(w, r)
				return
			}

			signature := r.Header.Get(sealer.SignatureHeader)
			if signature == "" {
				logAndReject(w, log, r, "Missing "+sealer.SignatureHeader+" header")
				return
			}

			body, err := readAndRestoreBody(r)
			if err != nil {
				logAndReject(w, log, r, "Failed to read request body")
				return
			}

			if !sealer.Verify(secret, body, signature) {
				logAndReject(w, log, r, "Invalid service signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	return body, nil
}

func logAndReject(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	requestID, _ := r.Context().Value(RequestIDKey).(string)

	log.Warn("Service signature verification failed",
		"request_id", requestID,
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthorized","code":"UNAUTHORIZED"}`))
}
