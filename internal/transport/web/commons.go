// Package web is the HTTP boundary: it decodes requests into dispatcher
// requests and turns result errors into status codes.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/BinaryAlley/Lyrida-sub002/internal/app"
	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Handler is a container for application dependencies that are required by HTTP handlers.
// It gives handlers access to the dispatcher and configuration.
type Handler struct {
	container *app.Container
}

// NewHandler creates and returns a new Handler instance.
func NewHandler(container *app.Container) *Handler {
	return &Handler{container: container}
}

// ErrorResponse is a helper function for sending standardized JSON error responses.
// It writes the status code and a JSON body with an "error" key.
func ErrorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": message,
	})
}

// jsonResponse is a helper function for sending standardized JSON responses.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// limitRequestBody wraps a request body with MaxBytesReader to limit its size.
func limitRequestBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// decodeJSON reads the body into dst. On failure it writes the error response
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	limitRequestBody(w, r, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		ErrorResponse(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the {name} path segment as a positive integer id.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// callerID returns the authenticated user id; zero on public routes.
func callerID(r *http.Request) int64 {
	p, _ := authz.PrincipalFrom(r.Context())
	return p.UserID
}

// errorBody is the JSON shape of a failed result.
type errorBody struct {
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	Errors    []errorItem `json:"errors"`
	RequestID string      `json:"request_id,omitempty"`
}

type errorItem struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// statusOf maps an error descriptor to an HTTP status / Convertit une erreur en statut HTTP
func statusOf(e result.Error) int {
	switch e.Code {
	case result.ErrUnauthenticated.Code:
		return http.StatusUnauthorized
	case result.ErrCannotModifyAdminRole.Code:
		return http.StatusUnprocessableEntity
	}

	switch e.Kind {
	case result.KindValidation:
		return http.StatusBadRequest
	case result.KindUnauthorized:
		return http.StatusForbidden
	case result.KindNotFound:
		return http.StatusNotFound
	case result.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeErrors writes every error of a failed result; the status follows the first one.
func writeErrors(w http.ResponseWriter, r *http.Request, errs []result.Error) {
	first := errs[0]
	body := errorBody{
		Error:     first.Message,
		Code:      first.Code,
		Errors:    make([]errorItem, 0, len(errs)),
		RequestID: GetRequestID(r.Context()),
	}
	if body.Error == "" {
		body.Error = first.Code
	}
	for _, e := range errs {
		body.Errors = append(body.Errors, errorItem{Kind: e.Kind.String(), Code: e.Code, Message: e.Message})
	}
	jsonResponse(w, statusOf(first), body)
}

// respond writes a successful result through render, or its errors.
func respond[T, U any](w http.ResponseWriter, r *http.Request, res result.Result[T], status int, render func(T) U) {
	value, ok := res.Value()
	if !ok {
		writeErrors(w, r, res.Errors())
		return
	}
	jsonResponse(w, status, render(value))
}

// respondDone answers a boolean command: true is 204, false is 404.
func respondDone(w http.ResponseWriter, r *http.Request, res result.Result[bool], notFound result.Error) {
	done, ok := res.Value()
	switch {
	case !ok:
		writeErrors(w, r, res.Errors())
	case !done:
		writeErrors(w, r, []result.Error{notFound})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
