package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FeedbackFingerprint returns a stable hash for one piece of client
// feedback, used to skip reprocessing duplicate submissions.
func FeedbackFingerprint(clientID int64, text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", clientID, normalized)))
	return hex.EncodeToString(sum[:])
}
