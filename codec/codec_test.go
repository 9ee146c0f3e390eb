package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	type record struct {
		ID    string   `json:"id"`
		Score float64  `json:"score"`
		Tags  []string `json:"tags"`
	}

	in := record{ID: "r-1", Score: 0.75, Tags: []string{"a", "b"}}
	data, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	require.Equal(t, "json", c.Name())

	_, ok = ByName("msgpack")
	require.False(t, ok)
}

func TestDefaultIsRegistered(t *testing.T) {
	c, ok := ByName(Default.Name())
	require.True(t, ok)
	require.Equal(t, Default.Name(), c.Name())
}
