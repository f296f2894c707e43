package por

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writeUint32(&buf, 0xdeadbeef)
	r := bytes.NewReader(buf.Bytes())
	v, err := readUint32(r)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v)
}

func TestReadUint32Truncated(t *testing.T) {
	r := bytes.NewReader([]byte{0x01, 0x02})
	_, err := readUint32(r)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDeserialization)
}

func TestLenPrefixedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("some bytes of a tag or proof")
	writeLenPrefixed(&buf, payload)

	r := bytes.NewReader(buf.Bytes())
	got, err := readLenPrefixed(r, 1024)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadLenPrefixedRejectsOverBound(t *testing.T) {
	var buf bytes.Buffer
	writeLenPrefixed(&buf, make([]byte, 100))

	r := bytes.NewReader(buf.Bytes())
	_, err := readLenPrefixed(r, 10)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDeserialization)
}

func TestReadLenPrefixedRejectsShortStream(t *testing.T) {
	var buf bytes.Buffer
	writeUint32(&buf, 100) // declares 100 bytes that never follow

	r := bytes.NewReader(buf.Bytes())
	_, err := readLenPrefixed(r, 1024)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDeserialization)
}

func TestSafeIntRoundTrip(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(-0), // same as 0
		new(big.Int).Lsh(big.NewInt(1), 4000),
	}
	for _, c := range cases {
		var buf bytes.Buffer
		writeSafeInt(&buf, c)
		r := bytes.NewReader(buf.Bytes())
		got, err := readSafeInt(r)
		// Values wider than safeIntegerMaxBytes must be rejected on read,
		// even though writeSafeInt happily encodes them.
		if len(c.Bytes()) > safeIntegerMaxBytes {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, 0, c.Cmp(got))
	}
}

func TestSafeIntRejectsOversizedOnRead(t *testing.T) {
	var buf bytes.Buffer
	writeLenPrefixed(&buf, make([]byte, safeIntegerMaxBytes+1))

	r := bytes.NewReader(buf.Bytes())
	_, err := readSafeInt(r)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDeserialization)
}

func TestBase64RoundTrip(t *testing.T) {
	raw := []byte{0x00, 0x01, 0xff, 0x7e}
	s := toBase64(raw)
	got, err := fromBase64(s)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestFromBase64RejectsGarbage(t *testing.T) {
	_, err := fromBase64("not valid base64!!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDeserialization)
}

func TestFitsByteLen(t *testing.T) {
	require.NoError(t, fitsByteLen(32, 32))
	require.Error(t, fitsByteLen(31, 32))
}
