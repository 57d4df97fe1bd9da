package scanner

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies the bounded worker pool never leaks goroutines across
// a scan, cancelled or not.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
