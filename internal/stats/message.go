// internal/stats/message.go
package stats

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
)

// maskedCommitURL replaces outbound links for private-repo commits.
const maskedCommitURL = "#"

// CleanMessage strips author-attribution trailer lines (Co-Authored-By: ...)
// from a commit message and trims trailing whitespace.
func CleanMessage(message string) string {
	lines := strings.Split(message, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "Co-Authored-By:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// MaskMessage replaces a cleaned message with its one-way digest. The same
// message always maps to the same digest, so consumers can de-duplicate
// without disclosure.
func MaskMessage(cleaned string) string {
	sum := sha256.Sum256([]byte(cleaned))
	return hex.EncodeToString(sum[:])
}

// PctChange is the rounded percentage change between two window values.
// A zero previous value yields +100 when there is current activity and 0
// otherwise, signaling growth-from-nothing without dividing by zero.
func PctChange(current, previous int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}
