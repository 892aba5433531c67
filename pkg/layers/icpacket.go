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
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/log"
)

const (
	// ICPacketLayerNum identifies the layer
	ICPacketLayerNum = 2000
)

/*
 Wire format, all fields big-endian:

 [SYNC1][SYNC2][ch0: W bytes]...[chN-1: W bytes][CHECKSUM: 1 byte, optional]

 W is 2, 3 or 4. CHECKSUM is the XOR of every preceding byte including sync.
 Example for 2 channels, W=2, scale 1.0:
 a0 5a 00 0a 00 14 e4  ->  [10.0, 20.0]
*/

var ICPacketLayerType = gopacket.RegisterLayerType(ICPacketLayerNum,
	gopacket.LayerTypeMetadata{Name: "ICPacketLayerType", Decoder: PacketDecoder{Format: *config.NewDefaultProtocolConfig()}})

// ICPacketLayer is one framed packet. Format must be set before decoding or serializing.
type ICPacketLayer struct {
	layers.BaseLayer
	Format   config.ProtocolConfig
	Sync1    uint8
	Sync2    uint8
	Raw      []int32
	Samples  []float64
	Checksum uint8
}

// NewICPacket builds a packet ready for serialization from raw channel values.
func NewICPacket(format config.ProtocolConfig, raw []int32) *ICPacketLayer {
	return &ICPacketLayer{
		Format: format,
		Sync1:  uint8(format.SyncByte1),
		Sync2:  uint8(format.SyncByte2),
		Raw:    raw,
	}
}

// LayerType returns the type of the packet layer in the layer catalog
func (p *ICPacketLayer) LayerType() gopacket.LayerType {
	return ICPacketLayerType
}

func (p *ICPacketLayer) CanDecode() gopacket.LayerClass {
	return ICPacketLayerType
}

func (p *ICPacketLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

// DecodeFromBytes validates sync and checksum of exactly one packet at the beginning of data
// and decodes every channel. Bytes past the packet size are ignored.
func (p *ICPacketLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	size := p.Format.PacketSize()
	if len(data) < size {
		df.SetTruncated()
		return ErrTruncated{Have: len(data), Want: size}
	}
	if data[0] != uint8(p.Format.SyncByte1) || data[1] != uint8(p.Format.SyncByte2) {
		return ErrSyncMismatch{Sync1: data[0], Sync2: data[1]}
	}
	if p.Format.Checksum {
		computed := Checksum(data[:size-1])
		if computed != data[size-1] {
			return ErrChecksumMismatch{Computed: computed, Received: data[size-1]}
		}
		p.Checksum = data[size-1]
	}

	width := p.Format.BytesPerSample
	payload := data[2 : 2+p.Format.PayloadSize()]
	p.BaseLayer = layers.BaseLayer{
		Contents: data[:size],
		Payload:  payload,
	}
	p.Sync1 = data[0]
	p.Sync2 = data[1]
	p.Raw = make([]int32, p.Format.Channels)
	p.Samples = make([]float64, p.Format.Channels)
	for ch := 0; ch < p.Format.Channels; ch++ {
		field := payload[ch*width : (ch+1)*width]
		p.Raw[ch], _ = DecodeRaw(field, width)
		p.Samples[ch] = DecodeSample(field, width, p.Format.ScaleFactor)
	}
	return nil
}

// SerializeTo serializes the packet into bytes and writes the bytes to the SerializeBuffer
func (p *ICPacketLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(p.Raw) != p.Format.Channels {
		return fmt.Errorf("packet has %d channel values, format expects %d", len(p.Raw), p.Format.Channels)
	}
	size := p.Format.PacketSize()
	bytes, err := b.AppendBytes(size)
	if err != nil {
		return err
	}
	bytes[0] = p.Sync1
	bytes[1] = p.Sync2
	width := p.Format.BytesPerSample
	for ch, raw := range p.Raw {
		EncodeSample(bytes[2+ch*width:], raw, width)
	}
	if p.Format.Checksum {
		p.Checksum = Checksum(bytes[:size-1])
		bytes[size-1] = p.Checksum
	}
	return nil
}

func (p *ICPacketLayer) String() string {
	return fmt.Sprintf("sync=%02X%02X samples=%v raw=%s", p.Sync1, p.Sync2, p.Samples, hex.EncodeToString(p.Contents))
}

// PacketDecoder is a gopacket.Decoder bound to one protocol format
type PacketDecoder struct {
	Format config.ProtocolConfig
}

func (d PacketDecoder) Decode(data []byte, p gopacket.PacketBuilder) error {
	layer := &ICPacketLayer{Format: d.Format}
	if err := layer.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(layer)
	return nil
}

// DecodePacket decodes a single aligned packet.
func DecodePacket(data []byte, format config.ProtocolConfig) (*ICPacketLayer, error) {
	packet := gopacket.NewPacket(data, PacketDecoder{Format: format}, gopacket.NoCopy)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		log.Debug("DecodePacket: %s", errLayer.Error())
		return nil, errLayer.Error()
	}
	layer := packet.Layer(ICPacketLayerType)
	if layer == nil {
		return nil, errors.New("No packet layer decoded")
	}
	return layer.(*ICPacketLayer), nil
}

// EncodePacket serializes raw channel values into one wire packet.
func EncodePacket(format config.ProtocolConfig, raw []int32) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, NewICPacket(format, raw))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
