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

package capture

import (
	"fmt"
	"os"

	"jinr.ru/greenlab/go-icsource/pkg/codec"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/framer"
)

const AutoCodec = "auto"

// Result of framing a raw byte capture offline.
type Result struct {
	Codec   string
	Bytes   int
	Packets []framer.DecodedPacket
	Stats   framer.Stats
}

// Decode decompresses data with c and runs it through a fresh assembler.
func Decode(data []byte, c codec.Codec, format config.ProtocolConfig) (*Result, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if !c.IsAvailable() {
		return nil, fmt.Errorf("codec %s is not available", c.Name())
	}
	raw, err := c.Decompress(data)
	if err != nil {
		return nil, err
	}
	a := framer.NewAssembler(format)
	packets := a.Parse(raw)
	return &Result{
		Codec:   c.Name(),
		Bytes:   len(raw),
		Packets: packets,
		Stats:   a.Stats(),
	}, nil
}

// DecodeFile reads filename and decodes it. codecName auto or empty picks the
// codec from the file's magic bytes.
func DecodeFile(filename, codecName string, format config.ProtocolConfig) (*Result, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var c codec.Codec
	if codecName == "" || codecName == AutoCodec {
		c = codec.Detect(data)
	} else {
		c, err = codec.ByName(codecName)
		if err != nil {
			return nil, err
		}
	}
	return Decode(data, c, format)
}

// WritePackets writes one row per packet, timestamped from its index.
func WritePackets(w *Writer, packets []framer.DecodedPacket, rate float64) error {
	for _, p := range packets {
		if err := w.WriteRow(int64(p.Index), float64(p.Index)/rate, p.Samples); err != nil {
			return err
		}
	}
	return w.Flush()
}
