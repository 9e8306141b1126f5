package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"salesorder_id": float64(42),
		"last_modified": "2024-03-01T00:00:00Z",
		"nested":        map[string]interface{}{"a": float64(1)},
	}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalToWriterNoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarshalToWriter(&buf, map[string]string{"q": "a=1&b=2"}))

	assert.Contains(t, buf.String(), "a=1&b=2")
}

func TestUnmarshalInvalid(t *testing.T) {
	var v map[string]interface{}
	require.Error(t, Unmarshal([]byte("{nope"), &v))
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("hello")
	PutBuffer(buf)

	buf2 := GetBuffer()
	assert.Zero(t, buf2.Len(), "pooled buffers are reset on Get")
	PutBuffer(buf2)
}
