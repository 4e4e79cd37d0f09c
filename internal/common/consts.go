package common

// UnknownStr is the fallback rendering for unrecognized enum values.
const UnknownStr = "unknown"
