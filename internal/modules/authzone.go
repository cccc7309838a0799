package modules

import (
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// AuthZonePush pushes a moved proof onto a frame's auth-zone, the
// AuthZoneRef dispatch target's "push" entry point (§4.5).
func AuthZonePush(z *auth.AuthZone, p valuegraph.Proof) {
	z.Push(p)
}

// AuthZoneProofs reads the current proof stack without consuming it, the
// "proofs" entry point a caller uses before composing a new combined proof.
func AuthZoneProofs(z *auth.AuthZone) []valuegraph.Proof {
	return z.Proofs()
}

// AuthZoneClear drops every proof in the zone, the "clear" entry point
// run() calls best-effort on frame exit.
func AuthZoneClear(z *auth.AuthZone) []valuegraph.Proof {
	return z.Clear()
}
