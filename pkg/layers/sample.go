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

// DecodeSample interprets width bytes as a big-endian two's complement integer and
// multiplies it by scale. Unsupported widths decode to 0.
func DecodeSample(b []byte, width int, scale float64) float64 {
	raw, ok := DecodeRaw(b, width)
	if !ok {
		return 0.0
	}
	return float64(raw) * scale
}

// DecodeRaw returns the signed integer encoded in the first width bytes of b.
func DecodeRaw(b []byte, width int) (int32, bool) {
	if len(b) < width {
		return 0, false
	}
	switch width {
	case 2:
		return int32(int16(uint16(b[0])<<8 | uint16(b[1]))), true
	case 3:
		v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		// sign-extend bit 23 into the high byte
		if v&0x800000 != 0 {
			v |= 0xFF000000
		}
		return int32(v), true
	case 4:
		return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), true
	default:
		return 0, false
	}
}

// EncodeSample writes raw as width bytes big-endian. Bits above width*8 are dropped.
func EncodeSample(buf []byte, raw int32, width int) {
	v := uint32(raw)
	for i := width - 1; i >= 0; i-- {
		buf[i] = uint8(v)
		v >>= 8
	}
}

// RawRange returns the smallest and largest integer representable in width bytes.
func RawRange(width int) (int32, int32) {
	switch width {
	case 2:
		return -1 << 15, 1<<15 - 1
	case 3:
		return -1 << 23, 1<<23 - 1
	case 4:
		return -1 << 31, 1<<31 - 1
	}
	return 0, 0
}

// Checksum is the XOR of all bytes.
func Checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum ^= v
	}
	return sum
}

// ValidChecksum reports whether the last byte of packet equals the XOR of the preceding bytes.
func ValidChecksum(packet []byte) bool {
	if len(packet) < 2 {
		return false
	}
	last := len(packet) - 1
	return Checksum(packet[:last]) == packet[last]
}
