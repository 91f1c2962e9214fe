package idgen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Shape(t *testing.T) {
	re := regexp.MustCompile(`^[A-Za-z0-9]{20}$`)
	for i := 0; i < 100; i++ {
		id, err := New()
		require.NoError(t, err)
		assert.Regexp(t, re, id)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		id, err := New()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}
