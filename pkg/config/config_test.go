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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketSize(t *testing.T) {
	for _, channels := range []int{1, 2, 8, 256} {
		for _, width := range []int{2, 3, 4} {
			for _, checksum := range []bool{true, false} {
				p := ProtocolConfig{Channels: channels, BytesPerSample: width, ScaleFactor: 1, Checksum: checksum}
				want := 2 + channels*width
				if checksum {
					want++
				}
				assert.Equal(t, want, p.PacketSize())
				assert.NoError(t, p.Validate())
			}
		}
	}
}

func TestProtocolValidate(t *testing.T) {
	base := *NewDefaultProtocolConfig()

	tests := []struct {
		name   string
		mutate func(p *ProtocolConfig)
	}{
		{"zero channels", func(p *ProtocolConfig) { p.Channels = 0 }},
		{"too many channels", func(p *ProtocolConfig) { p.Channels = 257 }},
		{"width 1", func(p *ProtocolConfig) { p.BytesPerSample = 1 }},
		{"width 5", func(p *ProtocolConfig) { p.BytesPerSample = 5 }},
		{"zero scale", func(p *ProtocolConfig) { p.ScaleFactor = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.IsType(t, ErrInvalidConfig{}, err)
		})
	}

	negative := base
	negative.ScaleFactor = -0.5
	assert.NoError(t, negative.Validate())
}

func TestHexByteJSON(t *testing.T) {
	p := NewDefaultProtocolConfig()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"syncByte1":"A0"`)
	assert.Contains(t, string(data), `"syncByte2":"5A"`)

	decoded := &ProtocolConfig{}
	require.NoError(t, json.Unmarshal([]byte(`{"syncByte1":"0xff","syncByte2":"1b"}`), decoded))
	assert.Equal(t, HexByte(0xFF), decoded.SyncByte1)
	assert.Equal(t, HexByte(0x1B), decoded.SyncByte2)

	assert.Error(t, json.Unmarshal([]byte(`{"syncByte1":"zz"}`), decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"syncByte1":"100"}`), decoded))
}

func TestValidateRanges(t *testing.T) {
	assert.NoError(t, ValidateSampleRate(100000))
	assert.Error(t, ValidateSampleRate(0))
	assert.Error(t, ValidateSampleRate(100000.5))
	assert.NoError(t, ValidateBaudRate(921600))
	assert.Error(t, ValidateBaudRate(12345))
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ConfigFile)

	cfg := NewDefaultConfig()
	cfg.SetPath(path)
	cfg.Protocol.Channels = 4
	cfg.Protocol.BytesPerSample = 3
	cfg.Protocol.SyncByte1 = 0xC0
	cfg.Transport.Target = "/dev/ttyUSB0"
	cfg.Acquisition.SampleRate = 500
	require.NoError(t, cfg.Persist(false))

	err := cfg.Persist(false)
	assert.IsType(t, ErrConfigFileExists{}, err)
	require.NoError(t, cfg.Persist(true))

	loaded := NewDefaultConfig()
	loaded.SetPath(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg.Protocol, loaded.Protocol)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Transport.Target)
	assert.Equal(t, 500.0, loaded.Acquisition.SampleRate)
	assert.Equal(t, path, loaded.Path())
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetPath(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, cfg.Load())
	assert.Equal(t, NewDefaultProtocolConfig(), cfg.Protocol)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("protocol:\n  channels: 999\n"), 0644))

	cfg := NewDefaultConfig()
	cfg.SetPath(path)
	assert.Error(t, cfg.Load())
	assert.Equal(t, DefaultChannels, cfg.Protocol.Channels)
}

func TestCloneIsDeep(t *testing.T) {
	cfg := NewDefaultConfig()
	clone := cfg.Clone()
	clone.Protocol.Channels = 2
	clone.Transport.Target = "COM3"
	assert.Equal(t, DefaultChannels, cfg.Protocol.Channels)
	assert.Empty(t, cfg.Transport.Target)
}
