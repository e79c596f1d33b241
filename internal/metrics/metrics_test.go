package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	// ObserveHTTP should not panic
	assert.NotPanics(t, func() {
		ObserveHTTP("/items", "200", 15*time.Millisecond)
	})
}
