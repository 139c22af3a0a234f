//go:build !unix

package lifecycle

// systemSync is a no-op where the platform has no whole-system sync call.
func systemSync() {}
