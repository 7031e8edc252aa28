// Package privacy keeps user-authored text out of logs and diagnostics.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Redact returns a short stable token for user-authored text, safe for log
// output. Identical inputs produce identical tokens so log lines remain
// correlatable without exposing the text itself.
func Redact(text string) string {
	if text == "" {
		return "empty"
	}
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s(%d chars)", hex.EncodeToString(sum[:])[:8], len(text))
}
