package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTextKnownVector(t *testing.T) {
	// base64("{}") = "e30=" -> "t85." -> reversed ".58t"
	assert.Equal(t, "v1..58t", EncodeText("{}"))
}

func TestRoundTrip(t *testing.T) {
	inputs := []any{
		map[string]any{"name": "插画", "count": float64(3), "tags": []any{"少女", "唯美"}},
		[]any{},
		"plain <string> & more",
		float64(42),
		nil,
		[]any{map[string]any{"emoji": "🌸", "nested": map[string]any{"ok": true}}},
	}

	for _, in := range inputs {
		blob, err := Encode(in)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(blob, VersionPrefix))

		var out any
		require.NoError(t, DecodeInto(blob, &out))
		assert.Equal(t, in, out)
	}
}

func TestDecodeReturnsOriginalText(t *testing.T) {
	text := `[{"id":"desktop-1","category":"动漫"}]`
	got, err := Decode(EncodeText(text))
	require.NoError(t, err)
	assert.Equal(t, text, string(got))
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode("v2.abc")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(VersionPrefix + "!!!")
	assert.ErrorIs(t, err, ErrMalformedBlob)
}

func TestTablesAreInverse(t *testing.T) {
	for from, to := range encodeTable {
		assert.Equal(t, from, decodeLUT[to])
		assert.Equal(t, to, encodeLUT[from])
	}
}
