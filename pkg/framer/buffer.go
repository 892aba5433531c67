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

package framer

import (
	"bytes"
)

// FrameBuffer accumulates raw bytes between parse calls. It never holds
// more than max bytes: the oldest bytes are dropped first.
type FrameBuffer struct {
	buf []byte
	off int
	max int
}

func NewFrameBuffer(max int) *FrameBuffer {
	return &FrameBuffer{
		buf: make([]byte, 0, max),
		max: max,
	}
}

// Append adds p to the tail and returns how many of the oldest bytes were
// discarded to stay within the size limit.
func (b *FrameBuffer) Append(p []byte) int {
	dropped := 0
	if len(p) > b.max {
		dropped += len(p) - b.max
		p = p[len(p)-b.max:]
	}
	if over := b.Len() + len(p) - b.max; over > 0 {
		b.Drop(over)
		dropped += over
	}
	if len(b.buf)+len(p) > cap(b.buf) {
		b.compact()
	}
	b.buf = append(b.buf, p...)
	return dropped
}

func (b *FrameBuffer) compact() {
	n := copy(b.buf, b.buf[b.off:])
	b.buf = b.buf[:n]
	b.off = 0
}

// Bytes returns the buffered bytes. The slice is valid until the next mutation.
func (b *FrameBuffer) Bytes() []byte {
	return b.buf[b.off:]
}

func (b *FrameBuffer) Len() int {
	return len(b.buf) - b.off
}

// Free is the number of bytes that can be appended without dropping anything.
func (b *FrameBuffer) Free() int {
	return b.max - b.Len()
}

func (b *FrameBuffer) Max() int {
	return b.max
}

// Drop discards n bytes from the head.
func (b *FrameBuffer) Drop(n int) {
	if n >= b.Len() {
		b.Reset()
		return
	}
	b.off += n
}

func (b *FrameBuffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// FindSync returns the offset of the first sync1,sync2 pair or -1.
func (b *FrameBuffer) FindSync(sync1, sync2 uint8) int {
	return bytes.Index(b.Bytes(), []byte{sync1, sync2})
}

// Retain trims the buffer after a scan found no sync pair. Only a trailing
// sync1 byte is kept since it may pair with the first byte of the next chunk.
func (b *FrameBuffer) Retain(sync1 uint8) {
	data := b.Bytes()
	if n := len(data); n > 0 && data[n-1] == sync1 {
		b.Drop(n - 1)
		return
	}
	b.Reset()
}
