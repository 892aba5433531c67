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

package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HexByte is a byte rendered as a two digit hexadecimal string in config files and API payloads.
type HexByte uint8

func ParseHexByte(s string) (HexByte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" || len(s) > 2 {
		return 0, ErrInvalidConfig{Field: "sync byte", What: fmt.Sprintf("%q is not a hex byte", s)}
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, ErrInvalidConfig{Field: "sync byte", What: fmt.Sprintf("%q is not a hex byte", s)}
	}
	return HexByte(v), nil
}

func (b HexByte) String() string {
	return fmt.Sprintf("%02X", uint8(b))
}

func (b HexByte) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *HexByte) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint8
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		*b = HexByte(n)
		return nil
	}
	v, err := ParseHexByte(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ProtocolConfig describes the binary layout of one packet:
// [SYNC1][SYNC2][ch0 .. chN-1, each BytesPerSample big-endian signed][CHECKSUM (optional)]
type ProtocolConfig struct {
	Channels       int     `json:"channels"`
	BytesPerSample int     `json:"bytesPerSample"`
	ScaleFactor    float64 `json:"scaleFactor"`
	SyncByte1      HexByte `json:"syncByte1"`
	SyncByte2      HexByte `json:"syncByte2"`
	Checksum       bool    `json:"checksum"`
}

func NewDefaultProtocolConfig() *ProtocolConfig {
	return &ProtocolConfig{
		Channels:       DefaultChannels,
		BytesPerSample: DefaultBytesPerSample,
		ScaleFactor:    DefaultScaleFactor,
		SyncByte1:      DefaultSyncByte1,
		SyncByte2:      DefaultSyncByte2,
		Checksum:       DefaultChecksum,
	}
}

// PayloadSize is the number of sample bytes in one packet.
func (p ProtocolConfig) PayloadSize() int {
	return p.Channels * p.BytesPerSample
}

// PacketSize is sync (2) + payload + checksum (1 if enabled).
func (p ProtocolConfig) PacketSize() int {
	size := 2 + p.PayloadSize()
	if p.Checksum {
		size++
	}
	return size
}

func ValidateChannels(channels int) error {
	if channels < MinChannels || channels > MaxChannels {
		return ErrInvalidConfig{
			Field: "channel count",
			What:  fmt.Sprintf("%d is out of range [%d, %d]", channels, MinChannels, MaxChannels),
		}
	}
	return nil
}

func ValidateBytesPerSample(width int) error {
	switch width {
	case 2, 3, 4:
		return nil
	}
	return ErrInvalidConfig{Field: "bytes per sample", What: fmt.Sprintf("%d is not one of 2, 3, 4", width)}
}

func ValidateScaleFactor(scale float64) error {
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return ErrInvalidConfig{Field: "scale factor", What: fmt.Sprintf("%v must be a finite nonzero number", scale)}
	}
	return nil
}

func ValidateSampleRate(rate float64) error {
	if !(rate > 0 && rate <= MaxSampleRate) {
		return ErrInvalidConfig{Field: "sample rate", What: fmt.Sprintf("%v is out of range (0, %v]", rate, MaxSampleRate)}
	}
	return nil
}

func ValidateBaudRate(baud int) error {
	for _, b := range StandardBaudRates {
		if b == baud {
			return nil
		}
	}
	return ErrInvalidConfig{Field: "baud rate", What: fmt.Sprintf("%d is not a standard baud rate", baud)}
}

func (p ProtocolConfig) Validate() error {
	if err := ValidateChannels(p.Channels); err != nil {
		return err
	}
	if err := ValidateBytesPerSample(p.BytesPerSample); err != nil {
		return err
	}
	if err := ValidateScaleFactor(p.ScaleFactor); err != nil {
		return err
	}
	if size := p.PacketSize(); size < 3 || size > MaxFrameBufferSize {
		return ErrInvalidConfig{Field: "packet size", What: fmt.Sprintf("%d does not fit the frame buffer", size)}
	}
	return nil
}
