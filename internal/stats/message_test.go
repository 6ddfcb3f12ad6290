// internal/stats/message_test.go
package stats

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMessage(t *testing.T) {
	t.Run("strips co-author trailers and trims", func(t *testing.T) {
		msg := "Fix login redirect\n\nCo-Authored-By: Jane <jane@example.com>\n"
		assert.Equal(t, "Fix login redirect", CleanMessage(msg))
	})

	t.Run("keeps intermediate blank lines", func(t *testing.T) {
		msg := "Add cache layer\n\nSecond paragraph"
		assert.Equal(t, msg, CleanMessage(msg))
	})

	t.Run("message that is only a trailer collapses to empty", func(t *testing.T) {
		assert.Equal(t, "", CleanMessage("Co-Authored-By: Jane <jane@example.com>"))
	})

	t.Run("passes a plain message through", func(t *testing.T) {
		assert.Equal(t, "Bump deps", CleanMessage("Bump deps"))
	})
}

func TestMaskMessage(t *testing.T) {
	sum := sha256.Sum256([]byte("secret work"))

	masked := MaskMessage("secret work")

	assert.Equal(t, hex.EncodeToString(sum[:]), masked)
	assert.Len(t, masked, 64)
	// Deterministic so equal messages stay comparable after masking.
	assert.Equal(t, masked, MaskMessage("secret work"))
	assert.NotEqual(t, masked, MaskMessage("other work"))
}

func TestPctChange(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous int
		want     int
	}{
		{"no activity either window", 0, 0, 0},
		{"growth from nothing", 5, 0, 100},
		{"halved", 50, 100, -50},
		{"doubled", 10, 5, 100},
		{"rounds to nearest", 1, 3, -67},
		{"rounds halves away from zero", 1, 8, -88},
		{"full drop", 0, 7, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PctChange(tt.current, tt.previous))
		})
	}
}
