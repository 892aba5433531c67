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
	"github.com/spf13/pflag"

	"jinr.ru/greenlab/go-icsource/pkg/config"
)

// ProtocolFlags override the local protocol config for offline commands.
type ProtocolFlags struct {
	Channels int
	Width    int
	Scale    float64
	Sync1    string
	Sync2    string
	Checksum bool
}

func (f *ProtocolFlags) Bind(fs *pflag.FlagSet, defaults *config.ProtocolConfig) {
	fs.IntVar(&f.Channels, "channels", defaults.Channels, "Channel count")
	fs.IntVar(&f.Width, "bytes-per-sample", defaults.BytesPerSample, "Sample width: 2, 3 or 4")
	fs.Float64Var(&f.Scale, "scale", defaults.ScaleFactor, "Scale factor applied to raw samples")
	fs.StringVar(&f.Sync1, "sync1", "0x"+defaults.SyncByte1.String(), "First sync byte")
	fs.StringVar(&f.Sync2, "sync2", "0x"+defaults.SyncByte2.String(), "Second sync byte")
	fs.BoolVar(&f.Checksum, "checksum", defaults.Checksum, "Trailing XOR checksum byte")
}

// Protocol returns the validated protocol described by the flags.
func (f *ProtocolFlags) Protocol() (config.ProtocolConfig, error) {
	p := config.ProtocolConfig{
		Channels:       f.Channels,
		BytesPerSample: f.Width,
		ScaleFactor:    f.Scale,
		Checksum:       f.Checksum,
	}
	var err error
	if p.SyncByte1, err = config.ParseHexByte(f.Sync1); err != nil {
		return p, err
	}
	if p.SyncByte2, err = config.ParseHexByte(f.Sync2); err != nil {
		return p, err
	}
	return p, p.Validate()
}
