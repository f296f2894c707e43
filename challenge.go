package por

import (
	"bytes"
	"crypto/rand"
	"io"
	"math/big"
)

// challengeKeyMaxLen bounds the challenge key on decode.
const challengeKeyMaxLen = 32

// Challenge is the auditor's short, file-independent seed for a single
// verification round: {ℓ, key, B}. It defines two PRFs that share the same
// key — an indexer mapping [0, ℓ) to a chunk index in [0, n), and a
// coefficient function mapping [0, ℓ) to a field element in [0, B) — so
// Prove and Verify can agree on both without exchanging anything else.
type Challenge struct {
	L   int // ℓ: number of chunks examined
	Key []byte
	B   *big.Int
}

// NewChallenge builds a fresh Challenge: a random 32-byte key and the given
// ℓ, B.
func NewChallenge(l int, b *big.Int) (*Challenge, error) {
	return newChallengeFromReader(rand.Reader, l, b)
}

// newChallengeFromReader is NewChallenge with an injectable randomness
// source, so Heartbeat.GenChallenge can honor WithRandReader for
// deterministic test harnesses.
func newChallengeFromReader(randReader io.Reader, l int, b *big.Int) (*Challenge, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return nil, errorf("NewChallenge", ErrIO, "key generation: %v", err)
	}
	return &Challenge{L: l, Key: key, B: b}, nil
}

// indexer returns the PRF that maps i ∈ [0, ℓ) to a chunk index in [0, n).
func (c *Challenge) indexer(n int) (*prf, error) {
	return newPRF(c.Key, big.NewInt(int64(n)))
}

// coefficient returns the PRF that maps i ∈ [0, ℓ) to a field coefficient
// in [0, B).
func (c *Challenge) coefficient() (*prf, error) {
	return newPRF(c.Key, c.B)
}

// Serialize encodes the Challenge as
// u32 ℓ ∥ u32 |key| ∥ key ∥ u32 |B| ∥ B.
func (c *Challenge) Serialize() []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(c.L))
	writeLenPrefixed(&buf, c.Key)
	writeSafeInt(&buf, c.B)
	return buf.Bytes()
}

// DeserializeChallenge parses a Challenge, rejecting a key longer than 32
// bytes.
func DeserializeChallenge(data []byte) (*Challenge, error) {
	r := bytes.NewReader(data)
	l, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	key, err := readLenPrefixed(r, challengeKeyMaxLen)
	if err != nil {
		return nil, err
	}
	b, err := readSafeInt(r)
	if err != nil {
		return nil, err
	}
	return &Challenge{L: int(l), Key: key, B: b}, nil
}

// ToBase64 renders the Challenge's serialization as a base64 "dict"
// payload.
func (c *Challenge) ToBase64() string {
	return toBase64(c.Serialize())
}

// ChallengeFromBase64 is the inverse of Challenge.ToBase64.
func ChallengeFromBase64(s string) (*Challenge, error) {
	raw, err := fromBase64(s)
	if err != nil {
		return nil, err
	}
	return DeserializeChallenge(raw)
}
