//go:build !linux

package supervisor

// Orphans re-parent to init on other systems; only direct children are
// reaped.
func becomeSubreaper() error { return nil }
