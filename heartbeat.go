package por

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/tomsons/go-por/internal/porlog"
)

// config holds the ceremony parameters a Heartbeat is constructed with.
// There is no file- or environment-based configuration surface: every
// parameter here is a property of the cryptographic ceremony itself, so a
// small functional-options struct over New is the right shape rather than
// an external config loader.
type config struct {
	checkFraction float64
	sectors       int
	primeBytes    int
	logger        porlog.Logger
	randReader    io.Reader
}

func defaultConfig() config {
	return config{
		checkFraction: 1.0,
		sectors:       10,
		primeBytes:    128,
		logger:        porlog.Discard(),
		randReader:    rand.Reader,
	}
}

// Option configures a Heartbeat at construction (or deserialization) time.
type Option func(*config)

// WithCheckFraction sets the fraction of chunks a challenge examines.
// Must be in (0, 1]; default 1.0.
func WithCheckFraction(f float64) Option {
	return func(c *config) { c.checkFraction = f }
}

// WithSectors sets the number of sectors per chunk. Default 10.
func WithSectors(n int) Option {
	return func(c *config) { c.sectors = n }
}

// WithPrimeBytes sets the byte length of the generated prime p. Default
// 128 (1024 bits).
func WithPrimeBytes(n int) Option {
	return func(c *config) { c.primeBytes = n }
}

// WithLogger attaches a structured logger. Default discards every record.
func WithLogger(l porlog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRandReader injects the CSPRNG source, letting a deterministic test
// harness replace crypto/rand.Reader for k_enc/k_mac, the prime p, the PRF
// keys drawn by Encode, and the challenge key. The IV Encode uses to seal
// the State is not drawn from it: State.Encrypt always reads crypto/rand.
func WithRandReader(r io.Reader) Option {
	return func(c *config) { c.randReader = r }
}

// Heartbeat is the proof-of-retrievability engine. A full Heartbeat (built
// by New) holds k_enc/k_mac and may Encode, GenChallenge, and Verify; a
// public Heartbeat (built by Public) holds no secret keys and may only
// Prove — it is what gets handed to the untrusted server.
//
// A Heartbeat is immutable after construction and safe for concurrent use
// by multiple goroutines as long as they don't share a SimpleFile/
// SeekableFile handle without external synchronization.
type Heartbeat struct {
	p             *big.Int
	sectorSize    int
	sectors       int
	kEnc          []byte
	kMac          []byte
	checkFraction float64
	isPublic      bool

	logger     porlog.Logger
	randReader io.Reader
}

// New generates a fresh full Heartbeat: random k_enc/k_mac and a random
// prime p of the configured byte length.
func New(opts ...Option) (*Heartbeat, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.checkFraction <= 0 || cfg.checkFraction > 1 {
		return nil, errorf("New", ErrInvalidInput, "check_fraction must be in (0, 1], got %v", cfg.checkFraction)
	}
	if cfg.sectors <= 0 {
		return nil, errorf("New", ErrInvalidInput, "sectors must be positive, got %d", cfg.sectors)
	}
	if cfg.primeBytes <= 0 {
		return nil, errorf("New", ErrInvalidInput, "prime_bytes must be positive, got %d", cfg.primeBytes)
	}

	kEnc := make([]byte, 32)
	kMac := make([]byte, 32)
	if _, err := io.ReadFull(cfg.randReader, kEnc); err != nil {
		return nil, errorf("New", ErrIO, "k_enc generation: %v", err)
	}
	if _, err := io.ReadFull(cfg.randReader, kMac); err != nil {
		return nil, errorf("New", ErrIO, "k_mac generation: %v", err)
	}

	p, err := rand.Prime(cfg.randReader, cfg.primeBytes*8)
	if err != nil {
		return nil, errorf("New", ErrIO, "prime generation: %v", err)
	}

	h := &Heartbeat{
		p:             p,
		sectorSize:    p.BitLen() / 8,
		sectors:       cfg.sectors,
		kEnc:          kEnc,
		kMac:          kMac,
		checkFraction: cfg.checkFraction,
		isPublic:      false,
		logger:        cfg.logger.With("component", "por.heartbeat"),
		randReader:    cfg.randReader,
	}
	h.logger.Info(context.Background(), "heartbeat initialized",
		"sector_size", h.sectorSize, "sectors", h.sectors, "check_fraction", h.checkFraction,
		porlog.KeyMaterial("k_enc", kEnc), porlog.KeyMaterial("k_mac", kMac))
	return h, nil
}

// Public returns a copy of h with is_public set and both symmetric keys
// zeroed; public parameters (p, sectors, sector_size, check_fraction) are
// preserved. Public is idempotent: h.Public().Public() is structurally
// identical to h.Public().
func (h *Heartbeat) Public() *Heartbeat {
	return &Heartbeat{
		p:             h.p,
		sectorSize:    h.sectorSize,
		sectors:       h.sectors,
		checkFraction: h.checkFraction,
		isPublic:      true,
		logger:        h.logger,
		randReader:    h.randReader,
	}
}

// IsPublic reports whether this Heartbeat holds no secret keys.
func (h *Heartbeat) IsPublic() bool { return h.isPublic }

// P returns the prime modulus.
func (h *Heartbeat) P() *big.Int { return new(big.Int).Set(h.p) }

// Sectors returns the number of sectors per chunk.
func (h *Heartbeat) Sectors() int { return h.sectors }

// SectorSize returns the sector size in bytes.
func (h *Heartbeat) SectorSize() int { return h.sectorSize }

// CheckFraction returns the configured check fraction. It is not part of
// the wire format; a deployment using a non-default fraction must
// transport this out of band.
func (h *Heartbeat) CheckFraction() float64 { return h.checkFraction }

// Encode reads file sequentially and produces a Tag plus a sealed State.
// Requires a non-public Heartbeat.
func (h *Heartbeat) Encode(file SimpleFile) (*Tag, *State, error) {
	if h.isPublic {
		return nil, nil, errorf("Encode", ErrInvalidInput, "encode requires a non-public heartbeat")
	}

	kF := make([]byte, 32)
	kAlpha := make([]byte, 32)
	if _, err := io.ReadFull(h.randReader, kF); err != nil {
		return nil, nil, errorf("Encode", ErrIO, "k_f generation: %v", err)
	}
	if _, err := io.ReadFull(h.randReader, kAlpha); err != nil {
		return nil, nil, errorf("Encode", ErrIO, "k_alpha generation: %v", err)
	}

	var sigma []*big.Int
	for {
		chunkIdx := uint32(len(sigma))
		accum := new(big.Int)
		sawAnySector := false
		doneAfterChunk := false

		for j := 0; j < h.sectors; j++ {
			buf := make([]byte, h.sectorSize)
			n, err := file.Read(buf)
			if err != nil {
				return nil, nil, errorf("Encode", ErrIO, "reading sector %d of chunk %d: %v", j, chunkIdx, err)
			}
			if n == 0 {
				doneAfterChunk = true
				break
			}
			sawAnySector = true

			alphaJ, err := evaluatePRF(kAlpha, h.p, uint32(j))
			if err != nil {
				return nil, nil, err
			}
			sectorVal := new(big.Int).SetBytes(buf[:n])
			accum.Add(accum, new(big.Int).Mul(alphaJ, sectorVal))

			if n < h.sectorSize {
				doneAfterChunk = true
				break
			}
		}

		if !sawAnySector {
			break
		}

		fI, err := evaluatePRF(kF, h.p, chunkIdx)
		if err != nil {
			return nil, nil, err
		}
		accum.Add(accum, fI)
		accum.Mod(accum, h.p)
		sigma = append(sigma, accum)

		if doneAfterChunk {
			break
		}
	}

	state, err := NewState(len(sigma), kF, kAlpha)
	if err != nil {
		return nil, nil, err
	}
	if err := state.Encrypt(h.kEnc, h.kMac, false); err != nil {
		return nil, nil, err
	}

	h.logger.Info(context.Background(), "encode complete", "chunks", len(sigma),
		porlog.KeyMaterial("k_f", kF), porlog.KeyMaterial("k_alpha", kAlpha))
	return &Tag{sigma: sigma}, state, nil
}

// EncodeRejectEmpty behaves like Encode but fails with ErrInvalidInput if
// the file produced zero chunks, for callers who would rather reject empty
// files than accept a vacuously-true proof for an empty file.
func (h *Heartbeat) EncodeRejectEmpty(file SimpleFile) (*Tag, *State, error) {
	tag, state, err := h.Encode(file)
	if err != nil {
		return nil, nil, err
	}
	if tag.Len() == 0 {
		return nil, nil, errorf("EncodeRejectEmpty", ErrInvalidInput, "file produced zero chunks")
	}
	return tag, state, nil
}

// GenChallenge decrypts sealed, then emits a fresh Challenge sized to
// check_fraction · n.
func (h *Heartbeat) GenChallenge(sealed *State) (*Challenge, error) {
	clone, err := cloneState(sealed)
	if err != nil {
		return nil, err
	}
	ok, err := clone.Decrypt(h.kEnc, h.kMac)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorf("GenChallenge", ErrStateAuthentication, "state MAC verification failed")
	}

	l := int(h.checkFraction * float64(clone.n))
	challenge, err := newChallengeFromReader(h.randReader, l, new(big.Int).Set(h.p))
	if err != nil {
		return nil, err
	}
	h.logger.Debug(context.Background(), "challenge generated", "l", l, "n", clone.n)
	return challenge, nil
}

// Prove computes the server's response to challenge over file, using tag.
// Either a public or a full Heartbeat may prove.
func (h *Heartbeat) Prove(file SeekableFile, challenge *Challenge, tag *Tag) (*Proof, error) {
	n := tag.Len()
	s := h.sectors
	chunkSize := int64(s) * int64(h.sectorSize)

	mu := make([]*big.Int, s)
	for j := range mu {
		mu[j] = new(big.Int)
	}
	sigmaAcc := new(big.Int)

	m := challenge.L
	if n < m {
		m = n
	}

	if m > 0 {
		useIndexer := challenge.L < n
		var indexerPRF *prf
		var err error
		if useIndexer {
			indexerPRF, err = challenge.indexer(n)
			if err != nil {
				return nil, err
			}
		}
		coeffPRF, err := challenge.coefficient()
		if err != nil {
			return nil, err
		}

		for i := 0; i < m; i++ {
			idx := i
			if useIndexer {
				idxBig, err := indexerPRF.at(uint32(i))
				if err != nil {
					return nil, err
				}
				idx = int(idxBig.Int64())
			}
			vi, err := coeffPRF.at(uint32(i))
			if err != nil {
				return nil, err
			}

			base := int64(idx) * chunkSize
			for j := 0; j < s; j++ {
				offset := base + int64(j)*int64(h.sectorSize)
				actual, err := file.Seek(offset)
				if err != nil {
					return nil, errorf("Prove", ErrIO, "seek: %v", err)
				}
				if actual != offset {
					break // EOF semantics: abort the j loop for this chunk
				}
				buf := make([]byte, h.sectorSize)
				nRead, err := file.Read(buf)
				if err != nil {
					return nil, errorf("Prove", ErrIO, "read: %v", err)
				}
				if nRead == 0 {
					continue
				}
				sectorVal := new(big.Int).SetBytes(buf[:nRead])
				mu[j].Add(mu[j], new(big.Int).Mul(vi, sectorVal))
			}

			sigmaAcc.Add(sigmaAcc, new(big.Int).Mul(vi, tag.At(idx)))
		}
	}

	for j := range mu {
		mu[j].Mod(mu[j], h.p)
	}
	sigmaAcc.Mod(sigmaAcc, h.p)

	h.logger.Debug(context.Background(), "proof computed", "l", challenge.L, "n", n)
	return &Proof{Mu: mu, Sigma: sigmaAcc}, nil
}

// Verify decrypts sealed, recomputes the expected response, and compares it
// to proof. A MAC failure or a sector-count mismatch yields (false, nil) —
// a normal domain result, not an error.
func (h *Heartbeat) Verify(proof *Proof, challenge *Challenge, sealed *State) (bool, error) {
	clone, err := cloneState(sealed)
	if err != nil {
		return false, err
	}
	ok, err := clone.Decrypt(h.kEnc, h.kMac)
	if err != nil {
		return false, err
	}
	if !ok {
		h.logger.Warn(context.Background(), "verify: state authentication failed")
		return false, nil
	}
	if len(proof.Mu) != h.sectors {
		return false, nil
	}

	n := clone.n
	m := challenge.L
	if n < m {
		m = n
	}

	rhs := new(big.Int)

	if m > 0 {
		useIndexer := challenge.L < n
		var indexerPRF *prf
		if useIndexer {
			indexerPRF, err = challenge.indexer(n)
			if err != nil {
				return false, err
			}
		}
		coeffPRF, err := challenge.coefficient()
		if err != nil {
			return false, err
		}
		fPRF, err := newPRF(clone.kF, h.p)
		if err != nil {
			return false, err
		}

		for i := 0; i < m; i++ {
			idx := i
			if useIndexer {
				idxBig, err := indexerPRF.at(uint32(i))
				if err != nil {
					return false, err
				}
				idx = int(idxBig.Int64())
			}
			vi, err := coeffPRF.at(uint32(i))
			if err != nil {
				return false, err
			}
			fi, err := fPRF.at(uint32(idx))
			if err != nil {
				return false, err
			}
			rhs.Add(rhs, new(big.Int).Mul(vi, fi))
		}
	}

	alphaPRF, err := newPRF(clone.kAlpha, h.p)
	if err != nil {
		return false, err
	}
	for j, muJ := range proof.Mu {
		aj, err := alphaPRF.at(uint32(j))
		if err != nil {
			return false, err
		}
		rhs.Add(rhs, new(big.Int).Mul(aj, muJ))
	}
	rhs.Mod(rhs, h.p)

	result := proof.Sigma.Cmp(rhs) == 0
	h.logger.Info(context.Background(), "verify complete", "result", result, "l", challenge.L, "n", n)
	return result, nil
}

// cloneState copies only the sealed bytes of s, so GenChallenge/Verify
// never mutate the caller's State in place.
func cloneState(s *State) (*State, error) {
	if s == nil || s.raw == nil {
		return nil, errorf("cloneState", ErrInvalidInput, "state has not been sealed")
	}
	return &State{raw: append([]byte(nil), s.raw...)}, nil
}

// Serialize encodes the Heartbeat's public parameters (and, for a
// non-public Heartbeat, its symmetric keys). check_fraction is
// deliberately not included — see CheckFraction's doc comment.
func (h *Heartbeat) Serialize() []byte {
	var buf bytes.Buffer
	var flags byte
	if h.isPublic {
		flags |= 1
	}
	buf.WriteByte(flags)
	if !h.isPublic {
		writeLenPrefixed(&buf, h.kEnc)
		writeLenPrefixed(&buf, h.kMac)
	}
	writeUint32(&buf, uint32(h.sectors))
	writeUint32(&buf, uint32(h.sectorSize))
	writeSafeInt(&buf, h.p)
	return buf.Bytes()
}

// DeserializeHeartbeat parses a Heartbeat's wire form. check_fraction is not
// on the wire, so it takes its default (or an explicit WithCheckFraction
// option) rather than whatever value the original heartbeat used.
func DeserializeHeartbeat(data []byte, opts ...Option) (*Heartbeat, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := bytes.NewReader(data)
	flagsByte, err := r.ReadByte()
	if err != nil {
		return nil, errorf("DeserializeHeartbeat", ErrDeserialization, "truncated flags: %v", err)
	}
	if flagsByte&^1 != 0 {
		return nil, errorf("DeserializeHeartbeat", ErrDeserialization, "reserved flag bits set")
	}
	isPublic := flagsByte&1 != 0

	var kEnc, kMac []byte
	if !isPublic {
		kEnc, err = readLenPrefixed(r, 32)
		if err != nil {
			return nil, err
		}
		if len(kEnc) != 32 {
			return nil, errorf("DeserializeHeartbeat", ErrDeserialization, "k_enc length %d != 32", len(kEnc))
		}
		kMac, err = readLenPrefixed(r, 32)
		if err != nil {
			return nil, err
		}
		if len(kMac) != 32 {
			return nil, errorf("DeserializeHeartbeat", ErrDeserialization, "k_mac length %d != 32", len(kMac))
		}
	}

	sectors, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	sectorSize, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	p, err := readSafeInt(r)
	if err != nil {
		return nil, err
	}

	return &Heartbeat{
		p:             p,
		sectorSize:    int(sectorSize),
		sectors:       int(sectors),
		kEnc:          kEnc,
		kMac:          kMac,
		checkFraction: cfg.checkFraction,
		isPublic:      isPublic,
		logger:        cfg.logger.With("component", "por.heartbeat"),
		randReader:    cfg.randReader,
	}, nil
}

// ToBase64 renders the Heartbeat's serialization as a base64 "dict"
// payload.
func (h *Heartbeat) ToBase64() string {
	return toBase64(h.Serialize())
}

// HeartbeatFromBase64 is the inverse of Heartbeat.ToBase64.
func HeartbeatFromBase64(s string, opts ...Option) (*Heartbeat, error) {
	raw, err := fromBase64(s)
	if err != nil {
		return nil, err
	}
	return DeserializeHeartbeat(raw, opts...)
}
