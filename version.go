package hscript

// Version is the toolchain version reported by the CLI. The cache artifact
// format is versioned separately by its magic (compile.go).
const Version = "0.3.1"

// BuildDate may be overridden at link time.
var BuildDate = "unknown"
