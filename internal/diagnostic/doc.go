// Package diagnostic provides structured warnings and errors for
// declaration validation and binding-site resolution.
//
// Key capabilities:
//   - Registration conflict errors (duplicate adapter keys)
//   - Resolution misses tied to the offending attribute
//   - Ambiguous declaration reports collecting every duplicate
//   - Non-fatal type-lookup skip notices
package diagnostic
