//go:build !linux || !cgo

package clip

import "fmt"

// Native is unavailable without cgo on linux.
func (b *Backends) Native() (Endpoint, error) {
	return nil, &BackendError{
		Kind:    KindNative,
		Display: "native",
		Op:      "open",
		Err:     fmt.Errorf("%w: native clipboard needs linux and cgo", ErrAbsent),
	}
}
