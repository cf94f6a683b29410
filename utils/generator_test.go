package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferenceNumberFormat(t *testing.T) {
	ref := GenerateReferenceNumber()

	parts := strings.Split(ref, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "SRP", parts[0])
	assert.Equal(t, time.Now().Format("20060102"), parts[1])
	assert.Len(t, parts[2], 6)

	// The suffix alphabet skips lookalike characters (0/O, 1/I/L) so the
	// reference survives being read over the phone to support.
	for _, r := range parts[2] {
		assert.Contains(t, letterBytes, string(r))
	}
}

func TestGenerateReferenceNumberVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[GenerateReferenceNumber()] = true
	}
	assert.Greater(t, len(seen), 1)
}
