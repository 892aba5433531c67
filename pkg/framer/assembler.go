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
	"sync"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/layers"
	"jinr.ru/greenlab/go-icsource/pkg/log"
)

// DecodedPacket is one validated packet: a sample per channel in channel order.
type DecodedPacket struct {
	Samples []float64
	Valid   bool
	Index   uint64
}

// Stats counts framing noise. None of it is an error.
type Stats struct {
	Packets        uint64 `json:"packets"`
	ChecksumErrors uint64 `json:"checksumErrors"`
	SkippedBytes   uint64 `json:"skippedBytes"`
	OverflowBytes  uint64 `json:"overflowBytes"`
}

// Assembler turns an unaligned byte stream into decoded packets. It is safe
// for concurrent use: Configure and Parse share one lock.
type Assembler struct {
	mu     sync.Mutex
	format config.ProtocolConfig
	size   int
	buffer *FrameBuffer
	layer  layers.ICPacketLayer
	index  uint64
	stats  Stats
}

func NewAssembler(format config.ProtocolConfig) *Assembler {
	a := &Assembler{
		buffer: NewFrameBuffer(config.MaxFrameBufferSize),
	}
	a.setFormat(format)
	return a
}

func (a *Assembler) setFormat(format config.ProtocolConfig) {
	a.format = format
	a.size = format.PacketSize()
	a.layer = layers.ICPacketLayer{Format: format}
}

// Configure validates format and switches to it. Already buffered bytes
// are kept and framed with the new layout.
func (a *Assembler) Configure(format config.ProtocolConfig) error {
	if err := format.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setFormat(format)
	return nil
}

func (a *Assembler) Format() config.ProtocolConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.format
}

func (a *Assembler) PacketSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// Buffered is the number of bytes waiting for the rest of a packet.
func (a *Assembler) Buffered() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buffer.Len()
}

func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Reset drops buffered bytes, the packet index and stats.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffer.Reset()
	a.index = 0
	a.stats = Stats{}
}

// Parse appends data to the frame buffer and returns every packet that
// became complete. Bytes are fed in pieces no larger than the free space,
// so the result does not depend on how the stream was split into calls.
func (a *Assembler) Parse(data []byte) []DecodedPacket {
	a.mu.Lock()
	defer a.mu.Unlock()

	var packets []DecodedPacket
	for len(data) > 0 {
		n := a.buffer.Free()
		if n == 0 {
			n = len(data)
		}
		if n > len(data) {
			n = len(data)
		}
		a.stats.OverflowBytes += uint64(a.buffer.Append(data[:n]))
		data = data[n:]
		packets = a.scan(packets)
	}
	return packets
}

func (a *Assembler) scan(packets []DecodedPacket) []DecodedPacket {
	sync1 := uint8(a.format.SyncByte1)
	sync2 := uint8(a.format.SyncByte2)
	for {
		pos := a.buffer.FindSync(sync1, sync2)
		if pos < 0 {
			before := a.buffer.Len()
			a.buffer.Retain(sync1)
			a.stats.SkippedBytes += uint64(before - a.buffer.Len())
			return packets
		}
		if pos > 0 {
			a.buffer.Drop(pos)
			a.stats.SkippedBytes += uint64(pos)
		}
		if a.buffer.Len() < a.size {
			// wait for the rest of the candidate
			return packets
		}
		if err := a.layer.DecodeFromBytes(a.buffer.Bytes()[:a.size], gopacket.NilDecodeFeedback); err != nil {
			log.Debug("Resync after %s", err)
			a.stats.ChecksumErrors++
			a.stats.SkippedBytes++
			a.buffer.Drop(1)
			continue
		}
		packets = append(packets, DecodedPacket{
			Samples: a.layer.Samples,
			Valid:   true,
			Index:   a.index,
		})
		a.index++
		a.stats.Packets++
		a.buffer.Drop(a.size)
	}
}
