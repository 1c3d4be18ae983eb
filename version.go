package sdk

// Version is the published SDK version.
// 0.3.0: Add optional stream timeouts and the Supabase refresh-token provider.
// 0.2.0: Add the knowledge-extraction stream and document endpoints.
const Version = "0.3.0"
