// Package fingerprint computes content fingerprints for record text.
//
// Two records are exact duplicates iff their fingerprints are equal. The
// fingerprint is a 64-bit xxhash of the exact bytes of the text field,
// rendered as 16 lowercase hex characters. xxhash is not cryptographic,
// but collision probability is negligible at corpus scale and hashing is
// an order of magnitude cheaper than MD5/SHA on long lines.
package fingerprint

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the fingerprint of text.
func Sum(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}
