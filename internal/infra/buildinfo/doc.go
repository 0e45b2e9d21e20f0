// Package buildinfo reports objhost build information.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/objhost-go/internal/infra/buildinfo.Version=v0.3.0"
//
// Values that were not injected fall back to the VCS stamp embedded by
// the Go toolchain, when available.
package buildinfo
