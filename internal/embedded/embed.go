// Package embedded carries a small sample catalog compiled into the binary,
// used when no catalog file or URL is configured.
package embedded

import (
	"embed"
)

// FS embeds the sample map catalog and its description overlay.
//
//go:embed catalog/*
var FS embed.FS
