package por

import (
	"bytes"
	"math/big"
)

// Tag is the per-chunk aggregate authenticator σ = (σ_0, …, σ_{n-1})
// produced by Encode and stored alongside the file on the (untrusted)
// server. Every entry is a field element in [0, p).
type Tag struct {
	sigma []*big.Int
}

// Len returns the chunk count n = |σ|.
func (t *Tag) Len() int {
	if t == nil {
		return 0
	}
	return len(t.sigma)
}

// At returns σ_i. Panics if i is out of range, matching the convention that
// a caller iterating [0, n) already has a valid n from Tag.Len.
func (t *Tag) At(i int) *big.Int {
	return t.sigma[i]
}

// Serialize encodes the Tag as u32 n ∥ {u32 |σ_i| ∥ σ_i}_{i=0..n-1}.
func (t *Tag) Serialize() []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(t.sigma)))
	for _, s := range t.sigma {
		writeSafeInt(&buf, s)
	}
	return buf.Bytes()
}

// DeserializeTag parses a Tag from its wire form, validating every integer
// with the SafeInteger bound.
func DeserializeTag(raw []byte) (*Tag, error) {
	r := bytes.NewReader(raw)
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	sigma := make([]*big.Int, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := readSafeInt(r)
		if err != nil {
			return nil, err
		}
		sigma = append(sigma, s)
	}
	return &Tag{sigma: sigma}, nil
}

// ToBase64 renders the Tag's serialization as a base64 "dict" payload for
// text-only interchange.
func (t *Tag) ToBase64() string {
	return toBase64(t.Serialize())
}

// TagFromBase64 is the inverse of Tag.ToBase64.
func TagFromBase64(s string) (*Tag, error) {
	raw, err := fromBase64(s)
	if err != nil {
		return nil, err
	}
	return DeserializeTag(raw)
}
