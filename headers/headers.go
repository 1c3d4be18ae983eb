// Package headers defines the HTTP header names used by the SDK.
package headers

const (
	// Authorization carries the bearer token.
	Authorization = "Authorization"

	// RequestID is the header for request correlation.
	RequestID = "X-Request-Id"

	// Traceparent propagates the W3C trace context.
	Traceparent = "Traceparent"

	// SupabaseAPIKey is the anon key header required by the Supabase auth API.
	SupabaseAPIKey = "apikey" //nolint:gosec // This is a header name, not a credential
)
