package por

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

// Every wire structure in this package uses the same primitive encoding: a
// 4-byte big-endian length prefix in front of a byte blob, and arbitrary-
// precision integers encoded as a length prefix around their minimal
// big-endian unsigned representation (zero encodes as a zero-length blob).
// Built directly on bytes.Buffer and encoding/binary rather than a
// TLS-oriented parser: every prefix here is a full 4 bytes, which a
// 1/2/3-byte length-prefix cursor library does not offer natively.

// safeIntegerMaxBytes bounds any single big-integer's encoded length.
const safeIntegerMaxBytes = 1024

// maxRawStateSize bounds the sealed State envelope.
const maxRawStateSize = 2048

func writeUint32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errorf("readUint32", ErrDeserialization, "truncated length prefix: %v", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// writeLenPrefixed writes a 4-byte big-endian length followed by data.
func writeLenPrefixed(w *bytes.Buffer, data []byte) {
	writeUint32(w, uint32(len(data)))
	w.Write(data)
}

// readLenPrefixed reads a 4-byte length prefix and that many bytes. maxLen
// bounds the declared length before any allocation happens, so a hostile
// prefix can't be used to force a huge allocation.
func readLenPrefixed(r *bytes.Reader, maxLen int) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if int(n) > maxLen {
		return nil, errorf("readLenPrefixed", ErrDeserialization, "declared length %d exceeds bound %d", n, maxLen)
	}
	if int64(n) > int64(r.Len()) {
		return nil, errorf("readLenPrefixed", ErrDeserialization, "declared length %d exceeds remaining %d bytes", n, r.Len())
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errorf("readLenPrefixed", ErrDeserialization, "short read: %v", err)
	}
	return buf, nil
}

// writeSafeInt writes an arbitrary-precision non-negative integer as a
// length-prefixed, minimally-encoded big-endian blob. Zero encodes as a
// zero-length blob.
func writeSafeInt(w *bytes.Buffer, v *big.Int) {
	if v == nil || v.Sign() == 0 {
		writeUint32(w, 0)
		return
	}
	writeLenPrefixed(w, v.Bytes())
}

// readSafeInt reads a SafeInteger-checked arbitrary-precision integer: the
// declared length must be <= safeIntegerMaxBytes, and the stream must
// actually hold that many bytes.
func readSafeInt(r *bytes.Reader) (*big.Int, error) {
	raw, err := readLenPrefixed(r, safeIntegerMaxBytes)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// toBase64 exposes a binary serialization as a UTF-8 "dict" payload for
// text-only interchange.
func toBase64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func fromBase64(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errorf("fromBase64", ErrDeserialization, "invalid base64: %v", err)
	}
	return raw, nil
}

// fitsByteLen reports whether the declared length matches the required
// fixed size exactly, used for key-size checks (k_enc, k_mac, k_f, k_alpha all fixed at 32 bytes).
func fitsByteLen(got, want int) error {
	if got != want {
		return fmt.Errorf("expected %d bytes, got %d", want, got)
	}
	return nil
}
