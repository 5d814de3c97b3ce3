package cache

import "crypto/md5"

// contentHash fingerprints source for L1's zero-trust staleness check
// (spec §4.1). MD5 is used for fingerprinting only, never for
// cryptographic integrity.
func contentHash(source []byte) [16]byte {
	return md5.Sum(source)
}
