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

package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSampleWidths(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		width int
		scale float64
		want  float64
	}{
		{"int16 positive", []byte{0x00, 0x0A}, 2, 1.0, 10},
		{"int16 negative", []byte{0xFF, 0xFE}, 2, 1.0, -2},
		{"int16 min", []byte{0x80, 0x00}, 2, 1.0, -32768},
		{"int16 scaled", []byte{0x03, 0xE8}, 2, 0.195, 195},
		{"int24 positive", []byte{0x7F, 0xFF, 0xFF}, 3, 1.0, 8388607},
		{"int24 negative", []byte{0xFF, 0xFF, 0xFF}, 3, 1.0, -1},
		{"int24 min", []byte{0x80, 0x00, 0x00}, 3, 1.0, -8388608},
		{"int32 min", []byte{0x80, 0x00, 0x00, 0x00}, 4, 1.0, -2147483648},
		{"int32 max", []byte{0x7F, 0xFF, 0xFF, 0xFF}, 4, 1.0, 2147483647},
		{"unsupported width", []byte{0x01, 0x02, 0x03, 0x04, 0x05}, 5, 1.0, 0},
		{"width one", []byte{0x7F}, 1, 1.0, 0},
		{"short input", []byte{0x01}, 2, 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DecodeSample(tt.in, tt.width, tt.scale), 1e-9)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, width := range []int{2, 3, 4} {
		min, max := RawRange(width)
		for _, v := range []int32{min, min + 1, -1, 0, 1, max - 1, max} {
			buf := make([]byte, width)
			EncodeSample(buf, v, width)
			got, ok := DecodeRaw(buf, width)
			assert.True(t, ok)
			assert.Equal(t, v, got, "width %d", width)
			for _, scale := range []float64{1, 0.5, -0.25} {
				assert.Equal(t, float64(v)*scale, DecodeSample(buf, width, scale), "width %d scale %v", width, scale)
			}
		}
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, uint8(0), Checksum(nil))
	assert.Equal(t, uint8(0xE4), Checksum([]byte{0xA0, 0x5A, 0x00, 0x0A, 0x00, 0x14}))
	assert.True(t, ValidChecksum([]byte{0xA0, 0x5A, 0x00, 0x0A, 0x00, 0x14, 0xE4}))
	assert.False(t, ValidChecksum([]byte{0xA0, 0x5A, 0x00, 0x0A, 0x00, 0x14, 0xE5}))
	assert.False(t, ValidChecksum([]byte{0xA0}))
}
