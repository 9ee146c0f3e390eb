package bitchain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := StatePayload(map[string]string{"mood": "calm", "phase": "peak"})
	b := StatePayload(map[string]string{"phase": "peak", "mood": "calm"})

	// Map iteration order must not leak into the fingerprint.
	for i := 0; i < 20; i++ {
		if !bytes.Equal(a.Fingerprint(), b.Fingerprint()) {
			t.Fatal("state fingerprint depends on key order")
		}
	}

	require.Equal(t, TextPayload("hello").Fingerprint(), TextPayload("hello").Fingerprint())
	require.Equal(t, VectorPayload([]float64{0.1, 0.2}).Fingerprint(), VectorPayload([]float64{0.1, 0.2}).Fingerprint())
}

func TestFingerprintDiscriminates(t *testing.T) {
	cases := [][2]Payload{
		{TextPayload("hello"), TextPayload("hello ")},
		{TextPayload("1"), VectorPayload([]float64{1})},
		{VectorPayload([]float64{0.1, 0.2}), VectorPayload([]float64{0.2, 0.1})},
		{StatePayload(map[string]string{"a": "b"}), StatePayload(map[string]string{"a": "c"})},
		{BytesPayload([]byte{1, 2}), BytesPayload([]byte{2, 1})},
	}
	for _, c := range cases {
		if bytes.Equal(c[0].Fingerprint(), c[1].Fingerprint()) {
			t.Fatalf("distinct payloads share a fingerprint: %+v vs %+v", c[0], c[1])
		}
	}
}

func TestVectorFingerprintPrecision(t *testing.T) {
	// Nearby floats must not collapse.
	a := VectorPayload([]float64{0.1000000000000001})
	b := VectorPayload([]float64{0.1000000000000002})
	if bytes.Equal(a.Fingerprint(), b.Fingerprint()) {
		t.Fatal("fingerprint loses float precision")
	}
}

func TestPayloadValidate(t *testing.T) {
	require.NoError(t, TextPayload("ok").Validate())
	require.NoError(t, TextPayload("").Validate())

	big := make([]byte, MaxPayloadBytes+1)
	require.Error(t, BytesPayload(big).Validate())
}

func TestStageValid(t *testing.T) {
	for _, s := range Stages {
		require.True(t, s.Valid())
	}
	require.False(t, Stage("vapour").Valid())
}
