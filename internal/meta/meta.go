// Package meta holds build metadata shared by the CLI commands.
package meta

// Version is the pgcomment release version. Overridden at build time with
// -ldflags "-X github.com/rickchristie/pgcomment/internal/meta.Version=...".
var Version = "0.1.0"
