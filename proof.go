package por

import (
	"bytes"
	"math/big"
)

// Proof is the server's response to a Challenge: per-sector linear
// combinations μ_j and the aggregated tag combination σ.
type Proof struct {
	Mu    []*big.Int // one entry per sector, j = 0..sectors-1
	Sigma *big.Int
}

// Serialize encodes the Proof as
// u32 s ∥ {u32 |μ_j| ∥ μ_j}_{j=0..s-1} ∥ u32 |σ| ∥ σ.
func (p *Proof) Serialize() []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(p.Mu)))
	for _, mu := range p.Mu {
		writeSafeInt(&buf, mu)
	}
	writeSafeInt(&buf, p.Sigma)
	return buf.Bytes()
}

// DeserializeProof parses a Proof, validating every integer with the
// SafeInteger bound.
func DeserializeProof(data []byte) (*Proof, error) {
	r := bytes.NewReader(data)
	s, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	mu := make([]*big.Int, 0, s)
	for j := uint32(0); j < s; j++ {
		v, err := readSafeInt(r)
		if err != nil {
			return nil, err
		}
		mu = append(mu, v)
	}
	sigma, err := readSafeInt(r)
	if err != nil {
		return nil, err
	}
	return &Proof{Mu: mu, Sigma: sigma}, nil
}

// ToBase64 renders the Proof's serialization as a base64 "dict" payload.
func (p *Proof) ToBase64() string {
	return toBase64(p.Serialize())
}

// ProofFromBase64 is the inverse of Proof.ToBase64.
func ProofFromBase64(s string) (*Proof, error) {
	raw, err := fromBase64(s)
	if err != nil {
		return nil, err
	}
	return DeserializeProof(raw)
}
