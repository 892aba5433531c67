/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package codec

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = bytes.Repeat([]byte{0xA0, 0x5A, 0x00, 0x0A, 0x00, 0x14, 0xE4}, 100)

func TestZstdRoundTrip(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(payload, nil)
	require.NoError(t, enc.Close())

	c := Detect(compressed)
	assert.Equal(t, Zstd, c.Name())
	assert.True(t, c.IsAvailable())
	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	c := Detect(buf.Bytes())
	assert.Equal(t, Gzip, c.Name())
	out, err := c.Decompress(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestNoneAndUnknown(t *testing.T) {
	c := Detect(payload)
	assert.Equal(t, None, c.Name())
	out, err := c.Decompress(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	c, err = ByName("")
	require.NoError(t, err)
	assert.Equal(t, None, c.Name())

	c, err = ByName(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, c.Name())

	_, err = ByName("lz4")
	assert.Equal(t, ErrUnsupported{Name: "lz4"}, err)
}

func TestCorruptInput(t *testing.T) {
	zc, _ := ByName(Zstd)
	_, err := zc.Decompress([]byte{0x28, 0xB5, 0x2F, 0xFD, 0x00})
	assert.Error(t, err)

	gc, _ := ByName(Gzip)
	_, err = gc.Decompress([]byte{0x1F, 0x8B, 0x00})
	assert.Error(t, err)
}
