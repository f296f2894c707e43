package por

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStateRejectsBadKeySizes(t *testing.T) {
	_, err := NewState(3, []byte("short"), testKey(0x01))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewState(3, testKey(0x01), []byte("short"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStateEncryptDecryptRoundTrip(t *testing.T) {
	kF := testKey(0x11)
	kAlpha := testKey(0x22)
	kEnc := testKey(0x33)
	kMac := testKey(0x44)

	s, err := NewState(7, kF, kAlpha)
	require.NoError(t, err)
	require.NoError(t, s.Encrypt(kEnc, kMac, false))

	raw, err := s.Serialize()
	require.NoError(t, err)

	got, err := DeserializeState(raw)
	require.NoError(t, err)
	require.Equal(t, 7, got.N())

	ok, err := got.Decrypt(kEnc, kMac)
	require.NoError(t, err)
	require.True(t, ok)

	gotKF, gotKAlpha, has := got.Keys()
	require.True(t, has)
	require.Equal(t, kF, gotKF)
	require.Equal(t, kAlpha, gotKAlpha)
}

func TestStateDecryptWrongMacKeyFails(t *testing.T) {
	s, err := NewState(1, testKey(0x01), testKey(0x02))
	require.NoError(t, err)
	require.NoError(t, s.Encrypt(testKey(0x03), testKey(0x04), false))

	raw, err := s.Serialize()
	require.NoError(t, err)
	got, err := DeserializeState(raw)
	require.NoError(t, err)

	ok, err := got.Decrypt(testKey(0x03), testKey(0xff))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStateDecryptMalformedEnvelopeErrors(t *testing.T) {
	s := &State{raw: []byte{0x00, 0x00, 0x00, 0x01, 0xAB}}
	_, err := s.Decrypt(testKey(0x01), testKey(0x02))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDeserialization)
}

func TestStateConvergentEncryptionIsDeterministic(t *testing.T) {
	kF := testKey(0x01)
	kAlpha := testKey(0x02)
	kEnc := testKey(0x03)
	kMac := testKey(0x04)

	s1, err := NewState(3, kF, kAlpha)
	require.NoError(t, err)
	require.NoError(t, s1.Encrypt(kEnc, kMac, true))

	s2, err := NewState(3, kF, kAlpha)
	require.NoError(t, err)
	require.NoError(t, s2.Encrypt(kEnc, kMac, true))

	raw1, err := s1.Serialize()
	require.NoError(t, err)
	raw2, err := s2.Serialize()
	require.NoError(t, err)
	require.Equal(t, raw1, raw2)
}

func TestStateRandomIVEncryptionVaries(t *testing.T) {
	kF := testKey(0x01)
	kAlpha := testKey(0x02)
	kEnc := testKey(0x03)
	kMac := testKey(0x04)

	s1, err := NewState(3, kF, kAlpha)
	require.NoError(t, err)
	require.NoError(t, s1.Encrypt(kEnc, kMac, false))

	s2, err := NewState(3, kF, kAlpha)
	require.NoError(t, err)
	require.NoError(t, s2.Encrypt(kEnc, kMac, false))

	raw1, err := s1.Serialize()
	require.NoError(t, err)
	raw2, err := s2.Serialize()
	require.NoError(t, err)
	require.NotEqual(t, raw1, raw2)
}

func TestStatePublicInterpretationWithoutKeys(t *testing.T) {
	s, err := NewState(42, testKey(0x01), testKey(0x02))
	require.NoError(t, err)
	require.NoError(t, s.Encrypt(testKey(0x03), testKey(0x04), false))

	raw, err := s.Serialize()
	require.NoError(t, err)

	got, err := DeserializeState(raw)
	require.NoError(t, err)
	_, _, has := got.Keys()
	require.False(t, has)
	n, err := got.PublicInterpretation()
	require.NoError(t, err)
	require.Equal(t, 42, n)
}

func TestStateBase64RoundTrip(t *testing.T) {
	s, err := NewState(2, testKey(0x01), testKey(0x02))
	require.NoError(t, err)
	require.NoError(t, s.Encrypt(testKey(0x03), testKey(0x04), false))

	b64, err := s.ToBase64()
	require.NoError(t, err)
	got, err := StateFromBase64(b64)
	require.NoError(t, err)
	require.Equal(t, 2, got.N())
}

func TestKeySize(t *testing.T) {
	require.Equal(t, 32, KeySize())
}
