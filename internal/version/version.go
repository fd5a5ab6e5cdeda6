package version

// Version is set at build time with
// -ldflags "-X github.com/hashicorp-forge/xano-meta/internal/version.Version=...".
var Version = "dev"
