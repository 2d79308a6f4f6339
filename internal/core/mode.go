// Package core is the orchestration layer.  It composes a transport,
// the TELNET session and capabilities into a runnable mode and
// provides a builder that assembles that mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session (telnet + expect)  →  capability  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete run of gotelnet, from dialing the peer to hanging
// up.
type Mode interface {
	Run(ctx context.Context) error
}
