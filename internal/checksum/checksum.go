// Package checksum fingerprints serialized articles for catalog change detection.
package checksum

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the hex-encoded xxhash64 digest of data.
func Sum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// SumParts hashes several byte slices as one stream, separated by a NUL byte.
func SumParts(parts ...[]byte) string {
	h := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write(p)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
