package i2penc

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
)

// ShortName computes the "<base32(sha256(destBytes))>.b32.i2p" short-form
// identifier for a destination's canonical byte form.
func ShortName(destBytes []byte) string {
	sum := sha256.Sum256(destBytes)
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(enc.EncodeToString(sum[:])) + ".b32.i2p"
}
