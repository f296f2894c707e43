package por

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
)

// prfMaxIterations bounds the rejection-sampling loop in evaluatePRF. The
// masking step biases the sample enough that the expected iteration count
// is under 2; 80 is the same abort threshold the source library uses.
const prfMaxIterations = 80

// prf is a keyed pseudorandom map from an index i to a field element in
// [0, limit). Two independent prf instances sharing the same key (but
// different limits) are how a Challenge derives its indexer and coefficient
// functions — see challenge.go.
type prf struct {
	key   []byte
	limit *big.Int
}

// newPRF binds a 32-byte key to an upper bound. limit must be positive.
func newPRF(key []byte, limit *big.Int) (*prf, error) {
	if len(key) != 32 {
		return nil, errorf("newPRF", ErrInvalidInput, "key must be 32 bytes, got %d", len(key))
	}
	if limit == nil || limit.Sign() <= 0 {
		return nil, errorf("newPRF", ErrInvalidInput, "limit must be positive")
	}
	k := make([]byte, 32)
	copy(k, key)
	return &prf{key: k, limit: limit}, nil
}

// at evaluates the PRF at index i. The result is deterministic given
// (key, limit, i) and is always strictly less than limit.
func (p *prf) at(i uint32) (*big.Int, error) {
	return evaluatePRF(p.key, p.limit, i)
}

// evaluatePRF derives a field element from a keyed AES-CFB keystream via
// rejection sampling. The index is hashed as a fixed 4-byte
// big-endian value; the source library instead feeds the raw host-byte-order
// representation of i to SHA-256, which is non-portable across
// architectures. Big-endian is fixed here as the defensible, portable
// choice, made once here so every caller in this package (the
// chunk loop in Encode, the indexer/coefficient PRFs derived from a
// Challenge) goes through this one function, so the choice only has to be
// made in one place to keep encode, prove, and verify in agreement.
func evaluatePRF(key []byte, limit *big.Int, i uint32) (*big.Int, error) {
	var idxBytes [4]byte
	binary.BigEndian.PutUint32(idxBytes[:], i)
	digest := sha256.Sum256(idxBytes[:])

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("por: prf: aes key setup: %w", err)
	}

	// Resynchronize under a fixed all-zero IV every call: the PRF carries
	// no state across invocations, only across rejection-sampling
	// iterations within a single call (below).
	iv := make([]byte, aes.BlockSize)
	stream := cipher.NewCFBEncrypter(block, iv)

	limitSize := minEncodedSize(limit)
	plain := make([]byte, limitSize)
	copy(plain, digest[:]) // truncated/zero-padded: digest on the leading bytes, zero elsewhere

	bitsInTop := limit.BitLen() % 8
	if bitsInTop == 0 {
		bitsInTop = 8
	}
	msbMask := byte((1 << uint(bitsInTop)) - 1)

	enc := make([]byte, limitSize)
	for iter := 0; iter < prfMaxIterations; iter++ {
		// Each call to XORKeyStream draws the next block(s) of the same
		// keystream, so re-encrypting the same plaintext buffer yields a
		// fresh sample every iteration without rehashing.
		stream.XORKeyStream(enc, plain)
		enc[0] &= msbMask
		a := new(big.Int).SetBytes(enc)
		if a.Cmp(limit) < 0 {
			return a, nil
		}
	}
	return nil, fmt.Errorf("por: prf: rejection sampling did not converge after %d iterations", prfMaxIterations)
}

// minEncodedSize returns the minimal big-endian encoding width of limit
// itself (1 for a non-positive limit), which is always enough to hold any
// value in [0, limit); for a power of 256 it is one byte more than those
// values need.
func minEncodedSize(limit *big.Int) int {
	if limit.Sign() <= 0 {
		return 1
	}
	return (limit.BitLen() + 7) / 8
}
