package web

import "context"

// ContextKey is a custom type used for creating context keys.
// Using a custom type for context keys helps prevent collisions between keys
// defined in different packages.
type ContextKey string

// requestIDContextKey stores the request ID set by the RequestID middleware.
const requestIDContextKey = ContextKey("request_id")

// GetRequestID extracts request ID from context / Extrait l'ID de la requête du contexte
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok {
		return requestID
	}
	return ""
}
