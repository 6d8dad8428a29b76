package utils

import (
	"os"
	"testing"

	cp "github.com/otiai10/copy"

	"pfheap/pkg/pf"
)

// EnsureCleanup registers fn to run via t.Cleanup, isolated from test
// failures: cleanup runs even if the test has already failed, and a
// panic inside fn doesn't prevent the rest of the suite from reporting.
func EnsureCleanup(t *testing.T, fn func()) {
	t.Cleanup(func() {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("cleanup panicked: %v", r)
			}
		}()
		fn()
	})
}

// GetTempDbFile reserves a fresh, randomly named path in the OS's
// default temp directory for a test to use as a paged-file backing
// store. No file exists at the path on return; whatever file the test
// creates there is removed on test cleanup.
func GetTempDbFile(t *testing.T) string {
	tmpfile, err := os.CreateTemp("", "*.db")
	if err != nil {
		t.Fatal(err)
	}
	_ = tmpfile.Close()
	if err := os.Remove(tmpfile.Name()); err != nil {
		t.Fatal(err)
	}

	EnsureCleanup(t, func() {
		_ = os.Remove(tmpfile.Name())
	})
	return tmpfile.Name()
}

// CopyDbFile duplicates the file at src to a new temp path, for tests
// that need to reopen or corrupt a copy without disturbing a fixture
// still referenced elsewhere in the same test.
func CopyDbFile(t *testing.T, src string) string {
	dst := GetTempDbFile(t)
	if err := cp.Copy(src, dst); err != nil {
		t.Fatal(err)
	}
	return dst
}

// ResetPF tears down the pf package's process-wide state between test
// cases, since the buffer pool and file table are singletons.
func ResetPF(t *testing.T) {
	pf.Reset()
	EnsureCleanup(t, pf.Reset)
}
