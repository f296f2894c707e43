package por

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"
)

// State is the auditor's secret ceremony metadata: the chunk count n and
// the two PRF keys used by Encode. In memory it is a plain value; on the
// wire it only ever travels sealed — see Encrypt/Decrypt below.
//
// n rides in the envelope's signed-but-unencrypted region so a party
// without the keys (the server, via PublicInterpretation) can still learn
// the chunk count without being able to forge or read k_f/k_α.
type State struct {
	n       int
	kF      []byte
	kAlpha  []byte
	hasKeys bool

	// raw is the sealed envelope. Nil until Encrypt is called
	// or the State was built by DeserializeState.
	raw []byte
}

// NewState builds an unsealed State from a chunk count and the two PRF
// keys generated by Encode. Both keys must be 32 bytes.
func NewState(n int, kF, kAlpha []byte) (*State, error) {
	if err := fitsByteLen(len(kF), 32); err != nil {
		return nil, errorf("NewState", ErrInvalidInput, "k_f: %v", err)
	}
	if err := fitsByteLen(len(kAlpha), 32); err != nil {
		return nil, errorf("NewState", ErrInvalidInput, "k_alpha: %v", err)
	}
	s := &State{n: n, hasKeys: true}
	s.kF = append([]byte(nil), kF...)
	s.kAlpha = append([]byte(nil), kAlpha...)
	return s, nil
}

// N returns the chunk count.
func (s *State) N() int { return s.n }

// Keys returns the PRF keys if the State currently holds them (i.e. it was
// built unsealed, or Decrypt has since succeeded on it).
func (s *State) Keys() (kF, kAlpha []byte, ok bool) {
	if !s.hasKeys {
		return nil, nil, false
	}
	return append([]byte(nil), s.kF...), append([]byte(nil), s.kAlpha...), true
}

// KeySize is the fixed size, in bytes, of k_enc, k_mac, k_f and k_alpha.
func KeySize() int { return 32 }

// Encrypt seals the State: encrypt-then-MAC over (n, IV, AES-CFB
// ciphertext of k_f ∥ k_alpha) under k_enc/k_mac. This is
// encrypt-then-MAC sealing. convergent selects a fixed all-zero IV
// (deterministic ciphertext for equal plaintexts, at the cost of leaking
// equality) instead of a fresh random one.
func (s *State) Encrypt(kEnc, kMac []byte, convergent bool) error {
	if !s.hasKeys {
		return errorf("Encrypt", ErrInvalidInput, "state has no PRF keys to seal")
	}
	if err := fitsByteLen(len(kEnc), 32); err != nil {
		return errorf("Encrypt", ErrInvalidInput, "k_enc: %v", err)
	}
	if err := fitsByteLen(len(kMac), 32); err != nil {
		return errorf("Encrypt", ErrInvalidInput, "k_mac: %v", err)
	}

	var plain bytes.Buffer
	writeLenPrefixed(&plain, s.kF)
	writeLenPrefixed(&plain, s.kAlpha)

	iv := make([]byte, aes.BlockSize)
	if !convergent {
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return errorf("Encrypt", ErrIO, "iv generation: %v", err)
		}
	}

	block, err := aes.NewCipher(kEnc)
	if err != nil {
		return errorf("Encrypt", ErrInvalidInput, "aes key: %v", err)
	}
	ciphertext := make([]byte, plain.Len())
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, plain.Bytes())

	var sigRegion bytes.Buffer
	writeUint32(&sigRegion, uint32(s.n))
	writeLenPrefixed(&sigRegion, iv)
	writeLenPrefixed(&sigRegion, ciphertext)

	mac := hmac.New(sha256.New, kMac)
	mac.Write(sigRegion.Bytes())
	macSum := mac.Sum(nil)

	var raw bytes.Buffer
	writeLenPrefixed(&raw, sigRegion.Bytes())
	writeLenPrefixed(&raw, macSum)

	if raw.Len() > maxRawStateSize {
		return errorf("Encrypt", ErrInvalidInput, "sealed envelope of %d bytes exceeds %d-byte bound", raw.Len(), maxRawStateSize)
	}
	s.raw = raw.Bytes()
	return nil
}

// Decrypt verifies the envelope's
// HMAC and, only on success, decrypts and installs k_f/k_alpha. A MAC
// mismatch is reported as (false, nil), never as an error — this lets
// Verify treat it as a normal domain result while GenChallenge turns it
// into ErrStateAuthentication. A malformed envelope (one that can't even
// be parsed) is a real deserialization error, reported as (false, err).
func (s *State) Decrypt(kEnc, kMac []byte) (bool, error) {
	if err := fitsByteLen(len(kEnc), 32); err != nil {
		return false, errorf("Decrypt", ErrInvalidInput, "k_enc: %v", err)
	}
	if err := fitsByteLen(len(kMac), 32); err != nil {
		return false, errorf("Decrypt", ErrInvalidInput, "k_mac: %v", err)
	}
	if s.raw == nil {
		return false, errorf("Decrypt", ErrDeserialization, "state was never sealed")
	}

	r := bytes.NewReader(s.raw)
	sigRegion, err := readLenPrefixed(r, maxRawStateSize)
	if err != nil {
		return false, err
	}
	macBytes, err := readLenPrefixed(r, 64)
	if err != nil {
		return false, err
	}
	if len(macBytes) != sha256.Size {
		return false, errorf("Decrypt", ErrDeserialization, "mac length %d != %d", len(macBytes), sha256.Size)
	}

	mac := hmac.New(sha256.New, kMac)
	mac.Write(sigRegion)
	expected := mac.Sum(nil)
	if !hmac.Equal(expected, macBytes) {
		return false, nil
	}

	rr := bytes.NewReader(sigRegion)
	n, err := readUint32(rr)
	if err != nil {
		return false, err
	}
	iv, err := readLenPrefixed(rr, aes.BlockSize)
	if err != nil {
		return false, err
	}
	if len(iv) != aes.BlockSize {
		return false, errorf("Decrypt", ErrDeserialization, "iv length %d != %d", len(iv), aes.BlockSize)
	}
	ciphertext, err := readLenPrefixed(rr, maxRawStateSize)
	if err != nil {
		return false, err
	}

	block, err := aes.NewCipher(kEnc)
	if err != nil {
		return false, errorf("Decrypt", ErrInvalidInput, "aes key: %v", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plain, ciphertext)

	pr := bytes.NewReader(plain)
	kF, err := readLenPrefixed(pr, 32)
	if err != nil {
		return false, err
	}
	kAlpha, err := readLenPrefixed(pr, 32)
	if err != nil {
		return false, err
	}
	if len(kF) != 32 || len(kAlpha) != 32 {
		return false, errorf("Decrypt", ErrDeserialization, "PRF key length mismatch")
	}

	s.n = int(n)
	s.kF = kF
	s.kAlpha = kAlpha
	s.hasKeys = true
	return true, nil
}

// PublicInterpretation extracts only n from the signed region, without
// needing (or touching) any keys, and installs it as s.n. This is what a
// server — or DeserializeState — uses to learn the chunk count.
func (s *State) PublicInterpretation() (int, error) {
	if s.raw == nil {
		return 0, errorf("PublicInterpretation", ErrDeserialization, "state was never sealed")
	}
	r := bytes.NewReader(s.raw)
	sigRegion, err := readLenPrefixed(r, maxRawStateSize)
	if err != nil {
		return 0, err
	}
	rr := bytes.NewReader(sigRegion)
	n, err := readUint32(rr)
	if err != nil {
		return 0, err
	}
	s.n = int(n)
	return s.n, nil
}

// Serialize encodes the State as u32 raw_len ∥ raw[raw_len].
// raw must already have been produced by Encrypt.
func (s *State) Serialize() ([]byte, error) {
	if s.raw == nil {
		return nil, errorf("Serialize", ErrInvalidInput, "state has not been sealed")
	}
	var buf bytes.Buffer
	writeLenPrefixed(&buf, s.raw)
	return buf.Bytes(), nil
}

// DeserializeState parses the outer State wire form and populates n via
// PublicInterpretation; k_f/k_alpha remain absent until Decrypt succeeds.
func DeserializeState(data []byte) (*State, error) {
	r := bytes.NewReader(data)
	raw, err := readLenPrefixed(r, maxRawStateSize)
	if err != nil {
		return nil, err
	}
	s := &State{raw: raw}
	if _, err := s.PublicInterpretation(); err != nil {
		return nil, err
	}
	// s.n is now populated as a side effect of PublicInterpretation.
	return s, nil
}

// ToBase64 renders the serialized, sealed State as a base64 "dict" payload.
func (s *State) ToBase64() (string, error) {
	raw, err := s.Serialize()
	if err != nil {
		return "", err
	}
	return toBase64(raw), nil
}

// StateFromBase64 is the inverse of State.ToBase64.
func StateFromBase64(b64 string) (*State, error) {
	raw, err := fromBase64(b64)
	if err != nil {
		return nil, err
	}
	return DeserializeState(raw)
}
