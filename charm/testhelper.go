// ABOUTME: Test utilities for creating isolated key-value clients
// ABOUTME: Opens a local BadgerDB in a per-test temporary directory

package charm

import (
	"path/filepath"
	"testing"
)

// NewTestClient returns a local client that is closed when the test ends.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := OpenLocal(filepath.Join(t.TempDir(), "kv"))
	if err != nil {
		t.Fatalf("Failed to open test kv: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test kv: %v", err)
		}
	})
	return c
}
