package sdk

// StringPtr is a convenience helper for optional string fields.
func StringPtr(s string) *string { return &s }

// IntPtr is a convenience helper for optional int fields.
func IntPtr(v int) *int { return &v }
