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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-icsource/pkg/config"
)

func twoChannelFormat() config.ProtocolConfig {
	return config.ProtocolConfig{
		Channels:       2,
		BytesPerSample: 2,
		ScaleFactor:    1.0,
		SyncByte1:      0xA0,
		SyncByte2:      0x5A,
		Checksum:       true,
	}
}

func TestDecodePacketExample(t *testing.T) {
	data := []byte{0xA0, 0x5A, 0x00, 0x0A, 0x00, 0x14, 0xE4}
	p, err := DecodePacket(data, twoChannelFormat())
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{10, 20}, p.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int32{10, 20}, p.Raw)
	assert.Equal(t, uint8(0xE4), p.Checksum)
	assert.Equal(t, data, p.LayerContents())
	assert.Equal(t, ICPacketLayerType, p.LayerType())
}

func TestDecodePacketErrors(t *testing.T) {
	format := twoChannelFormat()

	_, err := DecodePacket([]byte{0xA0, 0x5A, 0x00}, format)
	var truncated ErrTruncated
	require.True(t, errors.As(err, &truncated))
	assert.Equal(t, ErrTruncated{Have: 3, Want: 7}, truncated)

	_, err = DecodePacket([]byte{0xA1, 0x5A, 0x00, 0x0A, 0x00, 0x14, 0xE5}, format)
	assert.IsType(t, ErrSyncMismatch{}, err)

	_, err = DecodePacket([]byte{0xA0, 0x5A, 0x00, 0x0A, 0x00, 0x14, 0xFF}, format)
	assert.Equal(t, ErrChecksumMismatch{Computed: 0xE4, Received: 0xFF}, err)
}

func TestDecodeWithoutChecksum(t *testing.T) {
	format := twoChannelFormat()
	format.Checksum = false
	p, err := DecodePacket([]byte{0xA0, 0x5A, 0xFF, 0xFF, 0x00, 0x01}, format)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1}, p.Samples)
}

func TestSerializeRoundTrip(t *testing.T) {
	for _, width := range []int{2, 3, 4} {
		for _, checksum := range []bool{true, false} {
			format := config.ProtocolConfig{
				Channels:       4,
				BytesPerSample: width,
				ScaleFactor:    0.5,
				SyncByte1:      0xA0,
				SyncByte2:      0x5A,
				Checksum:       checksum,
			}
			min, max := RawRange(width)
			raw := []int32{min, -1, 0, max}

			data, err := EncodePacket(format, raw)
			require.NoError(t, err)
			require.Len(t, data, format.PacketSize())

			p, err := DecodePacket(data, format)
			require.NoError(t, err)
			assert.Equal(t, raw, p.Raw)
			want := []float64{float64(min) * 0.5, -0.5, 0, float64(max) * 0.5}
			if diff := cmp.Diff(want, p.Samples); diff != "" {
				t.Errorf("width %d checksum %v (-want +got):\n%s", width, checksum, diff)
			}
		}
	}
}

func TestSerializeWrongChannelCount(t *testing.T) {
	_, err := EncodePacket(twoChannelFormat(), []int32{1, 2, 3})
	assert.Error(t, err)
}

func TestSingleBitFlipRejected(t *testing.T) {
	format := twoChannelFormat()
	data, err := EncodePacket(format, []int32{1234, -4321})
	require.NoError(t, err)

	for i := 2; i < len(data)-1; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := append([]byte(nil), data...)
			corrupt[i] ^= 1 << bit
			_, err := DecodePacket(corrupt, format)
			assert.IsType(t, ErrChecksumMismatch{}, err, "byte %d bit %d", i, bit)
		}
	}
}

func TestDecodingLayerReuse(t *testing.T) {
	format := twoChannelFormat()
	layer := &ICPacketLayer{Format: format}
	for _, raw := range [][]int32{{1, 2}, {-3, 4}} {
		data, err := EncodePacket(format, raw)
		require.NoError(t, err)
		require.NoError(t, layer.DecodeFromBytes(data, gopacket.NilDecodeFeedback))
		assert.Equal(t, raw, layer.Raw)
	}
}
